// FILE: cmd/migrate/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"ai-deskmate-be/internal/model"
	"ai-deskmate-be/pkg/database"

	"github.com/jackc/pgx/v5"
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
	if err := ensureDatabase(dsn); err != nil {
		log.Fatal("Error: Failed to ensure database exists:", err)
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting Authoritative GORM Migration...")

	// 3. Pre-Migration: Extensions (Things GORM AutoMigrate doesn't do)
	log.Println("Step 1: Setting up Extensions...")

	setupSQL := []string{
		// gen_random_uuid() defaults need pgcrypto on Postgres < 13
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		// Prototype embeddings live in a vector(768) column
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models (The Core Task)
	log.Println("Step 2: Running AutoMigrate for 4 Tables...")

	models := []interface{}{
		&model.PrototypeExample{},
		&model.DecisionRecord{},
		&model.Operator{},
		&model.RoutingSetting{},
	}

	// Migrate strictly
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: Vector Index
	log.Println("Step 3: Creating Vector Index...")

	postMigrationSQL := []string{
		// Cosine-distance index for admin catalog search. The router itself
		// matches against the in-memory snapshot, not this table.
		`CREATE INDEX IF NOT EXISTS idx_prototype_examples_embedding
		 ON prototype_examples USING hnsw (embedding vector_cosine_ops);`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}

// ensureDatabase creates the application database when it is missing.
// AutoMigrate creates tables, not the database itself, so first runs on a
// fresh Postgres need this maintenance-connection step.
func ensureDatabase(dsn string) error {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse dsn: %w", err)
	}
	target := cfg.Database
	if target == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg.Database = "postgres"
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect maintenance database: %w", err)
	}
	defer conn.Close(ctx)

	var exists bool
	err = conn.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`, target).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check database %q: %w", target, err)
	}
	if exists {
		return nil
	}

	log.Printf("Database %q not found, creating...", target)
	// CREATE DATABASE does not accept bind parameters.
	_, err = conn.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{target}.Sanitize())
	return err
}
