//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"ai-deskmate-be/internal/config"
	"ai-deskmate-be/pkg/embedding"
)

// CosineSimilarity calculates similarity between two vectors
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}
	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

func main() {
	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// 1. Initialize Providers
	fmt.Println("--- Initializing Providers ---")
	gemini := embedding.NewGeminiProvider(cfg.Ai.GeminiApiKey)
	nomic := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbedModel)

	// 2. Define Test Cases
	// Two phrasings of the same front-desk intent and one unrelated intent.
	// A usable embedding model must keep the first pair closer than the
	// cross-intent pair, or the prototype matcher has nothing to work with.
	text1 := "what time does the library close today"
	text2 := "how late are you open tonight"
	text3 := "i need help finding sources for my chemistry thesis"

	fmt.Println("\n--- Generating Embeddings ---")

	// Helper to generate and print info
	generate := func(name string, p embedding.EmbeddingProvider, t1, t2, t3 string) ([]float32, []float32, []float32) {
		fmt.Printf("\n[%s] Generating...\n", name)

		v1, err := p.Generate(ctx, t1, "RETRIEVAL_DOCUMENT")
		if err != nil {
			log.Printf("Error %s (Text 1): %v", name, err)
			return nil, nil, nil
		}
		fmt.Printf("[%s] Text 1 Dimensions: %d\n", name, len(v1.Embedding.Values))

		v2, err := p.Generate(ctx, t2, "RETRIEVAL_QUERY")
		if err != nil {
			log.Printf("Error %s (Text 2): %v", name, err)
			return nil, nil, nil
		}

		v3, err := p.Generate(ctx, t3, "RETRIEVAL_QUERY")
		if err != nil {
			log.Printf("Error %s (Text 3): %v", name, err)
			return nil, nil, nil
		}

		return v1.Embedding.Values, v2.Embedding.Values, v3.Embedding.Values
	}

	// 3. Run Gemini
	g1, g2, g3 := generate("GEMINI", gemini, text1, text2, text3)

	// 4. Run Nomic
	n1, n2, n3 := generate("NOMIC", nomic, text1, text2, text3)

	// 5. Compare Similarity
	fmt.Println("\n--- Semantic Similarity Comparison ---")
	fmt.Println("(Prototype is embedded as document, patron queries as query)")

	if g1 != nil && g2 != nil && g3 != nil {
		fmt.Printf("\n[GEMINI]\n")
		fmt.Printf("Similarity (Same intent, other phrasing):  %.4f\n", CosineSimilarity(g1, g2))
		fmt.Printf("Similarity (Different intent):             %.4f\n", CosineSimilarity(g1, g3))
	}

	if n1 != nil && n2 != nil && n3 != nil {
		fmt.Printf("\n[NOMIC]\n")
		fmt.Printf("Similarity (Same intent, other phrasing):  %.4f\n", CosineSimilarity(n1, n2))
		fmt.Printf("Similarity (Different intent):             %.4f\n", CosineSimilarity(n1, n3))
	}

	fmt.Println("\n--- Conclusion ---")
	fmt.Println("The same-intent pair must score clearly above the cross-intent pair;")
	fmt.Println("the gap is what the confidence thresholds in routing.yaml lean on.")
}
