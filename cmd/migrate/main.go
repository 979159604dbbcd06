package main

import (
	"log"
	"os"

	"acquisition-arena-be/internal/model"
	"acquisition-arena-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// 3. Pre-Migration: Extensions
	log.Println("Step 1: Setting up Extensions...")
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		log.Printf("Warn: Failed to enable pgcrypto: %v. Continuing...", err)
	}

	// 4. AutoMigrate All Models
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.User{},
		&model.Persona{},
		&model.Parcel{},
		&model.TrainingSession{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: Constraints & Indexes
	log.Println("Step 3: Creating Constraints and Indexes...")

	postMigrationSQL := []string{
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'training_sessions_status_check') THEN
		    ALTER TABLE training_sessions ADD CONSTRAINT training_sessions_status_check
		      CHECK (status IN ('pending', 'active', 'generating_feedback', 'completed', 'failed'));
		  END IF;
		END $$;`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'training_sessions_feedback_score_check') THEN
		    ALTER TABLE training_sessions ADD CONSTRAINT training_sessions_feedback_score_check
		      CHECK (feedback_score IS NULL OR feedback_score BETWEEN 0 AND 100);
		  END IF;
		END $$;`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'users_sessions_remaining_check') THEN
		    ALTER TABLE users ADD CONSTRAINT users_sessions_remaining_check CHECK (sessions_remaining >= 0);
		  END IF;
		END $$;`,
		// Busy check for agent updates scans active sessions per persona.
		`CREATE INDEX IF NOT EXISTS idx_training_sessions_persona_active
		  ON training_sessions (persona_id) WHERE status = 'active';`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("Migration completed successfully!")
}
