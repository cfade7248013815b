package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"bookcatalog/internal/config"
)

const migrationsDir = "./migrations"

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using existing environment variables")
	}

	cfg, err := config.ClickHouseFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sql.Open("clickhouse", cfg.ClickHouseDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Printf("Connected to ClickHouse at %s:%d", cfg.ClickHouseHost, cfg.ClickHousePort)

	if err := goose.SetDialect("clickhouse"); err != nil {
		log.Fatalf("Failed to set dialect: %v", err)
	}

	// Default to "up"
	command, args := "up", []string(nil)
	if len(os.Args) > 1 {
		command, args = os.Args[1], os.Args[2:]
	}

	if err := run(db, command, args); err != nil {
		log.Fatal(err)
	}
}

// run executes a single goose command against db
func run(db *sql.DB, command string, args []string) error {
	log.Printf("Running migrations: %s", command)

	switch command {
	case "up":
		if err := goose.Up(db, migrationsDir); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Println("Migrations completed successfully")
	case "down":
		if err := goose.Down(db, migrationsDir); err != nil {
			return fmt.Errorf("failed to rollback migration: %w", err)
		}
		log.Println("Rollback completed successfully")
	case "status":
		if err := goose.Status(db, migrationsDir); err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}
	case "version":
		version, err := goose.GetDBVersion(db)
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		log.Printf("Current migration version: %d", version)
	case "create":
		if len(args) < 1 {
			return fmt.Errorf("usage: migrate create <migration_name>")
		}
		if err := goose.Create(db, migrationsDir, args[0], "sql"); err != nil {
			return fmt.Errorf("failed to create migration: %w", err)
		}
		log.Printf("Created migration: %s", args[0])
	default:
		return fmt.Errorf("unknown command: %s. Available commands: up, down, status, version, create", command)
	}
	return nil
}
