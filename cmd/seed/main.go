package main

import (
	"context"
	"embed"
	"encoding/json"
	"log"
	"os"

	"acquisition-arena-be/internal/entity"
	"acquisition-arena-be/internal/repository/specification"
	"acquisition-arena-be/internal/repository/unitofwork"
	"acquisition-arena-be/pkg/database"
	"acquisition-arena-be/pkg/parcel"
	"acquisition-arena-be/pkg/persona"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

//go:embed data/*.json
var seedData embed.FS

type personaSeed struct {
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	VoiceId         string         `json:"voice_id"`
	Characteristics persona.Traits `json:"characteristics"`
}

type parcelSeed struct {
	ParcelNumber     string          `json:"parcel_number"`
	City             string          `json:"city"`
	State            string          `json:"state"`
	PropertyFeatures parcel.Features `json:"property_features"`
}

func main() {
	// Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ctx := context.Background()
	uowFactory := unitofwork.NewRepositoryFactory(db)

	var personas []personaSeed
	mustLoad("data/personas.json", &personas)
	var parcels []parcelSeed
	mustLoad("data/parcels.json", &parcels)

	color.Cyan("Seeding personas...")
	created := seedPersonas(ctx, uowFactory, personas)
	color.Green("Personas: %d created, %d already present", created, len(personas)-created)

	color.Cyan("\nSeeding parcels...")
	created = seedParcels(ctx, uowFactory, parcels)
	color.Green("Parcels: %d created, %d already present", created, len(parcels)-created)

	printSummary(personas, parcels)
}

func mustLoad(path string, out any) {
	raw, err := seedData.ReadFile(path)
	if err != nil {
		log.Fatalf("Error: reading %s: %v", path, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.Fatalf("Error: decoding %s: %v", path, err)
	}
}

func seedPersonas(ctx context.Context, uowFactory unitofwork.RepositoryFactory, seeds []personaSeed) int {
	repo := uowFactory.NewUnitOfWork(ctx).PersonaRepository()
	created := 0

	for _, s := range seeds {
		if err := persona.Validate(s.Characteristics); err != nil {
			color.Red("Skipping persona '%s': %v", s.Name, err)
			continue
		}

		existing, err := repo.FindOne(ctx, specification.ByName{Name: s.Name})
		if err != nil {
			color.Red("Error looking up persona '%s': %v", s.Name, err)
			continue
		}
		if existing != nil {
			color.Yellow("Persona '%s' already exists, skipping...", s.Name)
			continue
		}

		p := &entity.Persona{
			Name:                   s.Name,
			Description:            s.Description,
			Characteristics:        s.Characteristics,
			CharacteristicsVersion: 1,
		}
		if s.VoiceId != "" {
			voice := s.VoiceId
			p.ElevenLabsVoiceId = &voice
		}
		if err := repo.Create(ctx, p); err != nil {
			color.Red("Error creating persona '%s': %v", s.Name, err)
			continue
		}
		created++
		log.Printf("Created persona: %s", s.Name)
	}
	return created
}

func seedParcels(ctx context.Context, uowFactory unitofwork.RepositoryFactory, seeds []parcelSeed) int {
	repo := uowFactory.NewUnitOfWork(ctx).ParcelRepository()
	created := 0

	for _, s := range seeds {
		if err := parcel.ValidateFeatures(s.PropertyFeatures); err != nil {
			color.Red("Skipping parcel '%s': %v", s.ParcelNumber, err)
			continue
		}

		existing, err := repo.FindOne(ctx, specification.ByParcelNumber{ParcelNumber: s.ParcelNumber})
		if err != nil {
			color.Red("Error looking up parcel '%s': %v", s.ParcelNumber, err)
			continue
		}
		if existing != nil {
			color.Yellow("Parcel '%s' already exists, skipping...", s.ParcelNumber)
			continue
		}

		if err := repo.Create(ctx, &entity.Parcel{
			ParcelNumber:     s.ParcelNumber,
			City:             s.City,
			State:            s.State,
			PropertyFeatures: s.PropertyFeatures,
		}); err != nil {
			color.Red("Error creating parcel '%s': %v", s.ParcelNumber, err)
			continue
		}
		created++
		log.Printf("Created parcel: %s (%s, %s)", s.ParcelNumber, s.City, s.State)
	}
	return created
}

func printSummary(personas []personaSeed, parcels []parcelSeed) {
	var minValue, maxValue, minAcres, maxAcres float64
	states := make(map[string]struct{})
	for i, p := range parcels {
		value, _ := p.PropertyFeatures[parcel.MarketValue].(float64)
		acres, _ := p.PropertyFeatures[parcel.Acres].(float64)
		if i == 0 || value < minValue {
			minValue = value
		}
		if value > maxValue {
			maxValue = value
		}
		if i == 0 || acres < minAcres {
			minAcres = acres
		}
		if acres > maxAcres {
			maxAcres = acres
		}
		states[p.State] = struct{}{}
	}

	color.Cyan("\nSEED DATA SUMMARY")
	color.Green("Personas: %d", len(personas))
	color.Green("Parcels: %d across %d states", len(parcels), len(states))
	color.Green("Price range: $%s - $%s", humanize.Commaf(minValue), humanize.Commaf(maxValue))
	color.Green("Acreage range: %s - %s acres", humanize.Ftoa(minAcres), humanize.Ftoa(maxAcres))
}
