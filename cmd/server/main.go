package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"oil-collection-service/internal/adapters/lease"
	"oil-collection-service/internal/adapters/repositories"
	"oil-collection-service/internal/api"
	"oil-collection-service/internal/config"
	"oil-collection-service/internal/platform/db"
	"oil-collection-service/internal/platform/metrics"
	"oil-collection-service/internal/ports"
	"oil-collection-service/internal/services"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"
)

// main is the application composition root.
// It wires concrete adapters (SQLite, Postgres, Redis) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	dbPath := config.Get("DB_PATH", "data/app.db")
	seedPath := config.Get("SEED_PATH", "data/seeds/registry.json")
	port := config.Get("PORT", "8080")
	leaseTTL := time.Duration(config.GetInt("VEHICLE_LEASE_TTL_SECONDS", 300)) * time.Second

	cfg, err := config.LoadEngineConfig()
	if err != nil {
		log.Fatal(err)
	}
	metrics.RegisterDefault()

	ledgerDB, err := openDB(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer ledgerDB.Close()

	// Initialize schema and seed demo data on startup for local runs.
	if err := initAndSeed(ledgerDB, seedPath); err != nil {
		log.Fatal(err)
	}

	// The ledgers always live in SQLite; the registry moves to Postgres when configured.
	var registry ports.RegistryRepository = repositories.NewSqliteRegistryRepository(ledgerDB)
	if databaseURL := config.Get("DATABASE_URL", ""); databaseURL != "" {
		pg, err := db.Open(context.Background(), databaseURL)
		if err != nil {
			log.Fatal(err)
		}
		defer pg.Close()
		registry = repositories.NewSQLRegistryRepository(pg)
		log.Println("registry backend=postgres")
	}

	var leaser ports.VehicleLeaser = lease.NewMemoryVehicleLease()
	if redisURL := config.Get("REDIS_URL", ""); redisURL != "" {
		rl, err := lease.NewRedisVehicleLeaseFromURL(context.Background(), redisURL, leaseTTL)
		if err != nil {
			log.Fatal(err)
		}
		defer rl.Close()
		leaser = rl
		log.Println("vehicle lease backend=redis")
	}

	router := api.NewRouter(api.Deps{
		Engine:   services.NewEngine(cfg),
		Registry: registry,
		Ledger:   repositories.NewSqliteLedgerRepository(ledgerDB),
		Leaser:   leaser,
	})

	log.Printf("Server listening addr=:%s", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

func openDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("openDB: open sqlite database %q: %w", dbPath, err)
	}
	// Serialize writers; SQLite allows one at a time.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("openDB: verify sqlite connection to %q: %w", dbPath, err)
	}

	return db, nil
}

func initAndSeed(db *sql.DB, seedPath string) error {
	if err := repositories.InitSchema(db); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if err := repositories.SeedFromJSON(db, seedPath); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	return nil
}
