// Package matcher turns a query into ranked category candidates. It embeds
// the query once, asks the searcher for per-category best scores, and caps
// the result at K. Both dependencies are remote and fallible: any failure or
// timeout yields a degraded result instead of an error, and the decision
// engine downgrades the regime accordingly. The matcher never crashes a turn.
package matcher

import (
	"context"
	"sort"
	"time"

	"ai-deskmate-be/pkg/routing"
)

const (
	// DefaultTopK bounds how many categories a turn considers downstream.
	DefaultTopK = 5
	// DefaultTimeout is the hard budget for the embed plus search round trip.
	DefaultTimeout = 2 * time.Second
)

// Embedder is the outbound embedding dependency.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher is the outbound similarity search: per-category max-pooled best
// matches, excluding vetoed categories, at most topK entries.
type Searcher interface {
	Search(ctx context.Context, vector []float32, excluding map[routing.Category]bool, topK int) ([]routing.Candidate, error)
}

// Result is what a match attempt produced. Degraded means a dependency
// failed or timed out; Candidates is then empty and Err carries the cause
// for logging only, never for the caller's control flow.
type Result struct {
	Candidates []routing.Candidate
	Degraded   bool
	Err        error
}

type Matcher struct {
	embedder Embedder
	searcher Searcher
	topK     int
	timeout  time.Duration
}

func New(embedder Embedder, searcher Searcher, topK int, timeout time.Duration) *Matcher {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Matcher{
		embedder: embedder,
		searcher: searcher,
		topK:     topK,
		timeout:  timeout,
	}
}

// Match runs one embed plus one search under a shared timeout. No retries:
// a failed call degrades the regime rather than stretching worst-case
// latency.
func (m *Matcher) Match(ctx context.Context, query string, excluding map[routing.Category]bool) Result {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	vector, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return Result{Degraded: true, Err: err}
	}

	candidates, err := m.searcher.Search(ctx, vector, excluding, m.topK)
	if err != nil {
		return Result{Degraded: true, Err: err}
	}

	// Own the ordering contract even if a remote searcher is sloppy.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > m.topK {
		candidates = candidates[:m.topK]
	}

	return Result{Candidates: candidates}
}
