package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"acquisition-arena-be/internal/bootstrap"
	"acquisition-arena-be/internal/config"
	"acquisition-arena-be/internal/server"
	"acquisition-arena-be/internal/tracer"
	"acquisition-arena-be/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.Database.Debug)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(gormDB, cfg)
	if err != nil {
		log.Panicf("Unable to bootstrap container: %v", err)
	}
	defer container.Close()

	// 4. Initialize Tracer
	shutdownTracer := tracer.InitTracer(container.Logger)
	defer shutdownTracer(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Start Background Services
	go func() {
		container.Logger.Info("MAIN", "Background: Starting Consumer Service...", nil)
		if err := container.ConsumerService.Consume(ctx); err != nil {
			container.Logger.Error("MAIN", "Background Consumer Error", map[string]interface{}{"error": err.Error()})
		}
	}()
	go container.EventAudit.Start(ctx)

	// 6. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		container.Logger.Info("MAIN", "Shutting down server...", nil)
		if err := srv.Shutdown(); err != nil {
			container.Logger.Error("MAIN", "Server shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// 7. Run Server
	if err := srv.Run(); err != nil {
		container.Logger.Error("MAIN", "Server stopped", map[string]interface{}{"error": err.Error()})
	}
}
