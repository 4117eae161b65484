package main

import (
	"context"
	"database/sql"
	"log"
	"oil-collection-service/internal/adapters/repositories"
	"oil-collection-service/internal/config"
	"oil-collection-service/internal/platform/db"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

// dbtool prepares the Postgres registry: schema plus seed data.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := config.Get("DATABASE_URL", "")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := db.Open(ctx, databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	seedPath := config.Get("SEED_PATH", "data/seeds/registry.json")
	if err := initAndSeed(ctx, db, seedPath); err != nil {
		log.Fatal(err)
	}
}

func initAndSeed(ctx context.Context, db *sql.DB, seedPath string) error {
	log.Println("Initializing registry schema...")
	if err := repositories.InitPostgresSchema(ctx, db); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	log.Println("Seeding registry...")
	if err := repositories.SeedPostgresFromJSON(ctx, db, seedPath); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Println("Seeding complete.")

	return nil
}
