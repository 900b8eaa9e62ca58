// FILE: cmd/sweep/main.go
//
// Offline threshold sweep. Replays a labeled query set through the gate,
// the live prototype snapshot and the decision engine across a grid of
// score thresholds, so threshold changes can be judged on data instead of
// gut feeling. Each query is embedded exactly once; every grid cell reuses
// the same candidates because Decide is pure.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"ai-deskmate-be/internal/config"
	"ai-deskmate-be/internal/repository/unitofwork"
	"ai-deskmate-be/internal/service"
	"ai-deskmate-be/pkg/database"
	"ai-deskmate-be/pkg/embedding"
	"ai-deskmate-be/pkg/embedding/jina"
	"ai-deskmate-be/pkg/routing"
	"ai-deskmate-be/pkg/routing/decision"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

type caseFile struct {
	Cases []labeledCase `yaml:"cases"`
}

type labeledCase struct {
	Query string `yaml:"query"`
	// Category is the expected route. Leave it empty for deliberately
	// ambiguous probes: they count toward the rates but not accuracy.
	Category string `yaml:"category"`
}

// preparedCase holds the per-query work that no threshold can change: one
// gate pass and one embed+search.
type preparedCase struct {
	query        string
	label        routing.Category
	shortCircuit routing.Category
	force        bool
	candidates   []routing.Candidate
}

type cellResult struct {
	highScore   float64
	mediumScore float64
	accuracy    float64
	directRate  float64
	clarifyRate float64
	arbRate     float64
}

func main() {
	casesPath := flag.String("cases", "sweep_cases.yaml", "labeled query set (YAML)")
	flag.Parse()

	color.Cyan("🔬 Threshold Sweep Evaluator\n")

	// 1. Configuration, database, policy
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	rawPolicy, err := config.LoadRoutingPolicy(cfg.Routing.PolicyPath)
	if err != nil {
		log.Fatalf("Error: Failed to load routing policy: %v", err)
	}
	compiled, err := config.CompilePolicy(rawPolicy)
	if err != nil {
		log.Fatalf("Error: Failed to compile routing policy: %v", err)
	}

	// 2. Embedding provider (must match what seeded the catalog)
	var provider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		provider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbedModel)
	} else if cfg.Ai.EmbeddingProvider == "jina" {
		provider = jina.NewJinaProvider(cfg.Ai.JinaApiKey)
	} else if cfg.Ai.EmbeddingProvider == "openai" {
		provider = embedding.NewOpenAIEmbeddingProvider(cfg.Ai.OpenAIApiKey, cfg.Ai.LLMBaseURL, "text-embedding-3-small", cfg.Ai.EmbeddingDimensions)
	} else {
		provider = embedding.NewGeminiProvider(cfg.Ai.GeminiApiKey)
	}

	// 3. Snapshot from the live catalog
	ctx := context.Background()
	rows, err := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx).PrototypeRepository().FindActive(ctx)
	if err != nil {
		log.Fatalf("Error: Failed to load prototype catalog: %v", err)
	}
	snapshot, err := service.BuildSnapshot("sweep-"+time.Now().UTC().Format("20060102T150405"), rows)
	if err != nil {
		log.Fatalf("Error: Prototype catalog unusable: %v", err)
	}
	fmt.Printf("Snapshot: %d examples across %d categories\n", snapshot.Count(), len(routing.AllCategories()))

	// 4. Labeled cases
	cases, err := loadCases(*casesPath)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	fmt.Printf("Cases: %d (%s)\n\n", len(cases), *casesPath)

	// 5. One gate pass and one embed+search per case
	color.Yellow("[1/2] Preparing cases (one embedding call each)...")
	prepared := make([]preparedCase, 0, len(cases))
	for _, lc := range cases {
		p := preparedCase{query: lc.Query, label: routing.Category(lc.Category)}

		gateResult := compiled.Gate.Evaluate(lc.Query)
		if gateResult.ShortCircuited() {
			p.shortCircuit = gateResult.ShortCircuit
			prepared = append(prepared, p)
			continue
		}
		p.force = gateResult.ForceArbitration

		embedCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		res, err := provider.Generate(embedCtx, lc.Query, "RETRIEVAL_QUERY")
		cancel()
		if err != nil {
			log.Fatalf("Error: Failed to embed %q: %v", lc.Query, err)
		}
		vector := embedding.Normalize(res.Embedding.Values)

		candidates, err := snapshot.Search(vector, gateResult.Vetoed, rawPolicy.Matcher.TopK)
		if err != nil {
			log.Fatalf("Error: Search failed for %q: %v", lc.Query, err)
		}
		p.candidates = candidates
		prepared = append(prepared, p)
	}

	// 6. The grid. Margins stay at the policy's values; the two score
	// thresholds move, they dominate the direct/ask trade-off.
	color.Yellow("\n[2/2] Sweeping threshold grid...\n")
	highScores := []float64{0.65, 0.70, 0.75, 0.80, 0.85}
	mediumScores := []float64{0.50, 0.55, 0.60, 0.65, 0.70}

	fmt.Printf("%-22s %10s %10s %12s %12s\n", "cell", "accuracy", "direct", "clarify", "arbitrate")
	var best *cellResult
	for _, high := range highScores {
		for _, medium := range mediumScores {
			t := compiled.Thresholds
			t.HighScore = high
			t.MediumScore = medium
			if err := t.Validate(); err != nil {
				continue
			}

			cell := evaluateCell(t, prepared)
			line := fmt.Sprintf("high=%.2f medium=%.2f %9.1f%% %9.1f%% %11.1f%% %11.1f%%",
				high, medium, cell.accuracy*100, cell.directRate*100, cell.clarifyRate*100, cell.arbRate*100)
			if high == compiled.Thresholds.HighScore && medium == compiled.Thresholds.MediumScore {
				color.Blue("%s   <- current policy", line)
			} else {
				fmt.Println(line)
			}

			if best == nil || cell.accuracy > best.accuracy ||
				(cell.accuracy == best.accuracy && cell.directRate > best.directRate) {
				c := cell
				best = &c
			}
		}
	}

	if best == nil {
		color.Red("\nNo valid grid cell (check the policy margins)")
		os.Exit(1)
	}
	color.Green("\n✅ Best cell: high=%.2f medium=%.2f (accuracy %.1f%%, direct %.1f%%)",
		best.highScore, best.mediumScore, best.accuracy*100, best.directRate*100)
}

func loadCases(path string) ([]labeledCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read case file: %w", err)
	}
	var file caseFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse case file: %w", err)
	}
	if len(file.Cases) == 0 {
		return nil, fmt.Errorf("no cases in %s", path)
	}
	for _, c := range file.Cases {
		if c.Category == "" {
			continue
		}
		if _, err := routing.ParseCategory(c.Category); err != nil {
			return nil, fmt.Errorf("case %q: %w", c.Query, err)
		}
	}
	return file.Cases, nil
}

func evaluateCell(t decision.Thresholds, prepared []preparedCase) cellResult {
	var direct, clarify, arbitrate int
	var labeledDirect, labeledCorrect int

	for _, p := range prepared {
		var predicted routing.Category
		switch {
		case p.shortCircuit != "":
			direct++
			predicted = p.shortCircuit
		default:
			outcome := decision.Decide(t, p.candidates, decision.Flags{ForceArbitration: p.force})
			switch outcome.Action {
			case decision.ActionDirect:
				direct++
				predicted = p.candidates[0].Category
			case decision.ActionClarify:
				clarify++
			case decision.ActionArbitrate:
				arbitrate++
			}
		}

		if predicted != "" && p.label != "" {
			labeledDirect++
			if predicted == p.label {
				labeledCorrect++
			}
		}
	}

	total := float64(len(prepared))
	cell := cellResult{
		highScore:   t.HighScore,
		mediumScore: t.MediumScore,
		directRate:  float64(direct) / total,
		clarifyRate: float64(clarify) / total,
		arbRate:     float64(arbitrate) / total,
	}
	if labeledDirect > 0 {
		cell.accuracy = float64(labeledCorrect) / float64(labeledDirect)
	}
	return cell
}
