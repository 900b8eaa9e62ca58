// Package prototype holds the read-only routing knowledge: per-category
// exemplar phrases with precomputed embeddings. Routing reads an immutable,
// versioned Snapshot; refreshes build a new Snapshot off to the side and swap
// it in atomically, so a request never observes a partially updated catalog.
package prototype

import (
	"fmt"
	"sort"

	"ai-deskmate-be/pkg/routing"
)

// Example is one curated phrase anchoring a category in embedding space.
// Immutable after ingestion.
type Example struct {
	Category  routing.Category
	Text      string
	Embedding []float32
	Weight    int // tie-break priority among equal scores, higher wins
}

// Snapshot is a complete, validated view of the prototype catalog.
type Snapshot struct {
	version    string
	dimensions int
	byCategory map[routing.Category][]Example
	total      int
}

// NewSnapshot validates and indexes a set of examples. Validation failures
// are configuration errors: the router must refuse to start (or to swap)
// rather than run with a broken catalog.
func NewSnapshot(version string, examples []Example) (*Snapshot, error) {
	if version == "" {
		return nil, fmt.Errorf("snapshot version is empty")
	}
	if len(examples) == 0 {
		return nil, fmt.Errorf("snapshot %s has no examples", version)
	}

	s := &Snapshot{
		version:    version,
		byCategory: make(map[routing.Category][]Example),
	}

	for i, ex := range examples {
		if !ex.Category.Valid() {
			return nil, fmt.Errorf("example %d: unknown category %q", i, ex.Category)
		}
		if ex.Text == "" {
			return nil, fmt.Errorf("example %d (%s): empty text", i, ex.Category)
		}
		if len(ex.Embedding) == 0 {
			return nil, fmt.Errorf("example %d (%s): missing embedding", i, ex.Category)
		}
		if s.dimensions == 0 {
			s.dimensions = len(ex.Embedding)
		} else if len(ex.Embedding) != s.dimensions {
			return nil, fmt.Errorf("example %d (%s): embedding has %d dimensions, snapshot has %d",
				i, ex.Category, len(ex.Embedding), s.dimensions)
		}
		s.byCategory[ex.Category] = append(s.byCategory[ex.Category], ex)
		s.total++
	}

	// Every reachable category needs at least one anchor, otherwise it can
	// never win a similarity match and silently becomes dead.
	for _, category := range routing.AllCategories() {
		if len(s.byCategory[category]) == 0 {
			return nil, fmt.Errorf("category %s has no prototype examples", category)
		}
	}

	for category := range s.byCategory {
		examples := s.byCategory[category]
		sort.SliceStable(examples, func(i, j int) bool {
			return examples[i].Weight > examples[j].Weight
		})
	}

	return s, nil
}

func (s *Snapshot) Version() string { return s.version }
func (s *Snapshot) Dimensions() int { return s.dimensions }
func (s *Snapshot) Count() int      { return s.total }

// ExamplesFor returns the category's examples ordered by weight.
func (s *Snapshot) ExamplesFor(category routing.Category) []Example {
	return s.byCategory[category]
}

// Search scores the query vector against every non-excluded example and
// reduces per category by max-pooling: a category is as good as its single
// best match, never the average of all of them. Results are sorted by score
// descending (weight, then category id, break ties deterministically) and
// capped at topK.
func (s *Snapshot) Search(vector []float32, excluding map[routing.Category]bool, topK int) ([]routing.Candidate, error) {
	if len(vector) != s.dimensions {
		return nil, fmt.Errorf("query vector has %d dimensions, snapshot has %d", len(vector), s.dimensions)
	}

	type pooled struct {
		candidate routing.Candidate
		weight    int
	}
	best := make(map[routing.Category]pooled)

	for category, examples := range s.byCategory {
		if excluding[category] {
			continue
		}
		for _, ex := range examples {
			score := cosineSimilarity(vector, ex.Embedding)
			current, seen := best[category]
			if !seen || score > current.candidate.Score ||
				(score == current.candidate.Score && ex.Weight > current.weight) {
				best[category] = pooled{
					candidate: routing.Candidate{
						Category:    category,
						Score:       score,
						MatchedText: ex.Text,
					},
					weight: ex.Weight,
				}
			}
		}
	}

	results := make([]pooled, 0, len(best))
	for _, p := range best {
		results = append(results, p)
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].candidate.Score != results[j].candidate.Score {
			return results[i].candidate.Score > results[j].candidate.Score
		}
		if results[i].weight != results[j].weight {
			return results[i].weight > results[j].weight
		}
		return results[i].candidate.Category < results[j].candidate.Category
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}

	candidates := make([]routing.Candidate, len(results))
	for i, p := range results {
		candidates[i] = p.candidate
	}
	return candidates, nil
}

// cosineSimilarity assumes unit-normalized vectors (the embedding providers
// normalize on generation), so the dot product is the cosine. Clamped to
// [0,1]: anti-correlated matches carry no routing signal.
func cosineSimilarity(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	if dot < 0 {
		return 0
	}
	if dot > 1 {
		return 1
	}
	return dot
}
