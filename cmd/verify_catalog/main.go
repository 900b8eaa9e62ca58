package main

import (
	"log"
	"os"
	"strings"

	"ai-deskmate-be/pkg/database"
	"ai-deskmate-be/pkg/routing"

	"github.com/joho/godotenv"
)

type Example struct {
	ID       string `gorm:"type:uuid;primary_key"`
	Category string
	Text     string
	Weight   int
}

func main() {
	// 1. Load Environment
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to DB
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Printf("🔍 CATALOG INTEGRITY CHECK")

	// 3. Coverage per category. A category with zero embedded examples makes
	//    every snapshot build fail, which blocks boot and catalog reloads.
	uncovered := 0
	for _, category := range routing.AllCategories() {
		var embedded int64
		db.Table("prototype_examples").
			Where("category = ? AND active = true AND embedding IS NOT NULL AND deleted_at IS NULL", category).
			Count(&embedded)

		var pending int64
		db.Table("prototype_examples").
			Where("category = ? AND active = true AND embedding IS NULL AND deleted_at IS NULL", category).
			Count(&pending)

		marker := "✅"
		if embedded == 0 {
			marker = "❌"
			uncovered++
		}
		log.Printf("%s %-18s embedded=%d awaiting-embedding=%d", marker, category, embedded, pending)
	}
	if uncovered > 0 {
		log.Printf("⚠️  %d categories have no embedded examples. The router will refuse to swap a snapshot.", uncovered)
	}

	// 4. Active rows still waiting for a vector. The next reload embeds them,
	//    so they only become a problem when the embedding provider is down.
	var unembedded []Example
	if err := db.Table("prototype_examples").
		Where("active = true AND embedding IS NULL AND deleted_at IS NULL").
		Find(&unembedded).Error; err != nil {
		log.Fatal("Query failed:", err)
	}

	log.Printf("Found %d active examples without an embedding:", len(unembedded))
	for i, ex := range unembedded {
		log.Println(strings.Repeat("─", 50))
		log.Printf("[%d] ID: %s", i+1, ex.ID)
		log.Printf("    Category: %s", ex.Category)
		if len(ex.Text) > 60 {
			log.Printf("    Text: %.60s...", ex.Text)
		} else {
			log.Printf("    Text: %s", ex.Text)
		}
	}

	// 5. Rows a reload would reject outright: unknown category ids and empty
	//    text both fail snapshot validation.
	var all []Example
	if err := db.Table("prototype_examples").
		Where("deleted_at IS NULL").
		Find(&all).Error; err != nil {
		log.Fatal("Query failed:", err)
	}

	broken := 0
	for _, ex := range all {
		if _, err := routing.ParseCategory(ex.Category); err != nil {
			log.Printf("❌ %s has unknown category '%s'", ex.ID, ex.Category)
			broken++
		}
		if strings.TrimSpace(ex.Text) == "" {
			log.Printf("❌ %s has empty text", ex.ID)
			broken++
		}
	}

	if broken == 0 && uncovered == 0 {
		log.Printf("✅ Catalog is healthy (%d rows total)", len(all))
	} else {
		log.Printf("⚠️  %d broken rows. Fix or deactivate them before the next reload.", broken)
	}
}
