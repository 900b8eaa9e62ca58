// FILE: cmd/seed/main.go
package main

import (
	"log"

	"ai-deskmate-be/internal/config"
	"ai-deskmate-be/internal/model"
	"ai-deskmate-be/pkg/database"
	"ai-deskmate-be/pkg/embedding"
	"ai-deskmate-be/pkg/embedding/jina"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Configuration (reads .env when present)
	cfg := config.Load()

	dsn := cfg.Database.Connection
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	// 3. Pick the Embedding Provider (same selection the server uses, so
	// seeded vectors are comparable with live query vectors)
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbedModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaEmbedModel)
	} else if cfg.Ai.EmbeddingProvider == "jina" {
		embeddingProvider = jina.NewJinaProvider(cfg.Ai.JinaApiKey)
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	} else if cfg.Ai.EmbeddingProvider == "openai" {
		embeddingProvider = embedding.NewOpenAIEmbeddingProvider(
			cfg.Ai.OpenAIApiKey,
			cfg.Ai.LLMBaseURL,
			"text-embedding-3-small",
			cfg.Ai.EmbeddingDimensions,
		)
		log.Printf("[INFO] Using Embedding Provider: OPENAI")
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GeminiApiKey)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	// 4. Seed the Admin Operator
	log.Println("Seeding Admin Operator...")
	seedAdminOperator(db, cfg)

	// 5. Seed the Prototype Catalog
	log.Println("Seeding Prototype Catalog...")
	SeedPrototypeExamples(db, embeddingProvider, cfg.Routing.PolicyPath)
}

func seedAdminOperator(db *gorm.DB, cfg *config.Config) {
	if cfg.Auth.AdminPassword == "" {
		log.Fatal("Error: ADMIN_PASSWORD is not set (refusing to seed an admin with a known default)")
	}

	var existing model.Operator
	if err := db.Where("email = ?", cfg.Auth.AdminEmail).First(&existing).Error; err == nil {
		log.Printf("Operator '%s' already exists, skipping...", cfg.Auth.AdminEmail)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Auth.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Error: Failed to hash admin password: %v", err)
	}
	hashStr := string(hash)

	admin := model.Operator{
		Email:        cfg.Auth.AdminEmail,
		PasswordHash: &hashStr,
		FullName:     "Front Desk Admin",
		Role:         "admin",
		Status:       "active",
	}

	if err := db.Create(&admin).Error; err != nil {
		log.Fatalf("Error: Failed to create admin operator: %v", err)
	}
	log.Printf("Created admin operator: %s", admin.Email)
}
