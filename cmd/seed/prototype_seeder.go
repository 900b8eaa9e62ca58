// FILE: cmd/seed/prototype_seeder.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"ai-deskmate-be/internal/model"
	"ai-deskmate-be/pkg/embedding"
	"ai-deskmate-be/pkg/routing"

	"github.com/pgvector/pgvector-go"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// seedFile is the slice of routing.yaml this command cares about. The policy
// loader skips the seeds key, so both readers share one ops file.
type seedFile struct {
	Seeds map[string][]seedExample `yaml:"seeds"`
}

type seedExample struct {
	Text   string `yaml:"text"`
	Weight int    `yaml:"weight"`
}

func loadSeedExamples(path string) (map[string][]seedExample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if len(file.Seeds) == 0 {
		return nil, fmt.Errorf("no seeds section in %s", path)
	}

	for category := range file.Seeds {
		if _, err := routing.ParseCategory(category); err != nil {
			return nil, fmt.Errorf("seed file: %w", err)
		}
	}
	return file.Seeds, nil
}

// SeedPrototypeExamples populates the catalog with the starter utterance set
// from routing.yaml. Each row is embedded up front; the server refuses to
// boot on a catalog that leaves any category without an embedded active
// example.
func SeedPrototypeExamples(db *gorm.DB, provider embedding.EmbeddingProvider, path string) {
	seeds, err := loadSeedExamples(path)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	categories := make([]string, 0, len(seeds))
	for category := range seeds {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	created := 0
	total := 0
	for _, category := range categories {
		for _, example := range seeds[category] {
			total++
			weight := example.Weight
			if weight <= 0 {
				weight = 1
			}

			// Re-runs must not re-embed rows that are already there
			var existing model.PrototypeExample
			if err := db.Where("category = ? AND text = ?", category, example.Text).First(&existing).Error; err == nil {
				log.Printf("Prototype '%s' already exists, skipping...", example.Text)
				continue
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			res, err := provider.Generate(ctx, example.Text, "RETRIEVAL_DOCUMENT")
			cancel()
			if err != nil {
				// Stop here: a partially embedded catalog can leave a category
				// uncovered and the server will refuse to start on it.
				log.Fatalf("Error: Failed to embed prototype '%s': %v (re-run seed after fixing the provider)", example.Text, err)
			}
			vec := pgvector.NewVector(embedding.Normalize(res.Embedding.Values))

			row := model.PrototypeExample{
				Category:  category,
				Text:      example.Text,
				Embedding: &vec,
				Weight:    weight,
				Active:    true,
			}
			if err := db.Create(&row).Error; err != nil {
				log.Fatalf("Error: Failed to create prototype '%s': %v", example.Text, err)
			}
			created++
			log.Printf("Created prototype [%s]: %s", category, example.Text)
		}
	}

	log.Printf("✅ Prototype catalog seeded successfully (%d new, %d total in set).", created, total)
}
