//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"ai-deskmate-be/internal/config"
	"ai-deskmate-be/pkg/embedding"
)

func main() {
	// 1. Load Config
	cfg := config.Load()
	fmt.Printf("Loaded Config > Embedding Provider: %s\n", cfg.Ai.EmbeddingProvider)
	fmt.Printf("Loaded Config > Ollama URL: %s\n", cfg.Ai.OllamaBaseURL)
	fmt.Printf("Loaded Config > Ollama Model: %s\n", cfg.Ai.OllamaEmbedModel)

	// 2. Initialize Ollama Provider explicitly for testing
	provider := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbedModel)

	// 3. Test Text
	text := "what time does the library close on sundays"
	fmt.Printf("\nGenerating embedding for: \"%s\"\n", text)

	// 4. Generate
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	resp, err := provider.Generate(ctx, text, "RETRIEVAL_QUERY")
	if err != nil {
		log.Fatalf("Error generating embedding: %v", err)
	}

	// 5. Inspect Result
	dims := len(resp.Embedding.Values)
	fmt.Printf("Success! Generated Embedding Dimensions: %d\n", dims)

	if dims > 5 {
		fmt.Printf("First 5 values: %v...\n", resp.Embedding.Values[:5])
	}

	// 6. Validation
	// The prototype_examples column is vector(768); nomic-embed-text matches.
	if dims == cfg.Ai.EmbeddingDimensions {
		fmt.Printf("✅ Dimensions match the configured catalog width (%d).\n", dims)
	} else {
		fmt.Printf("⚠️  Dimensions %d do NOT match the configured %d. Routing snapshots will reject these vectors.\n", dims, cfg.Ai.EmbeddingDimensions)
	}
}
