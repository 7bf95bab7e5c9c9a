package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"os"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/service"
)

type ingredientRow struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// Loads the ingredient catalog from a JSON file of
// [{"name": ..., "measurement_unit": ...}, ...] entries. Already-seeded
// names are skipped so reruns are safe.
func main() {
	file := flag.String("file", "data/ingredients.json", "path to the ingredients JSON file")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *file, err)
	}
	var rows []ingredientRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		log.Fatalf("Failed to parse %s: %v", *file, err)
	}

	ingredients := service.NewIngredientService(db)
	ctx := context.Background()

	created, skipped := 0, 0
	for _, row := range rows {
		_, err := ingredients.Create(ctx, row.Name, row.MeasurementUnit)
		switch {
		case err == nil:
			created++
		case errors.Is(err, service.ErrAlreadyExists):
			skipped++
		default:
			log.Fatalf("Failed to create ingredient %q: %v", row.Name, err)
		}
	}
	log.Printf("Seeded %d ingredients (%d already present)", created, skipped)
}
