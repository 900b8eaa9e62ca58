package prototype

import (
	"context"
	"math"
	"sync"
	"testing"

	"ai-deskmate-be/pkg/routing"
)

const dims = 8

// axis returns a one-hot vector so cosine against it reads the query's
// component directly.
func axis(i int) []float32 {
	v := make([]float32, dims)
	v[i] = 1
	return v
}

func scaledAxis(i int, scale float32) []float32 {
	v := make([]float32, dims)
	v[i] = scale
	return v
}

// testExamples gives every category one anchor on its own axis, plus extra
// equipment-loan examples for pooling tests.
func testExamples() []Example {
	categories := routing.AllCategories()
	examples := make([]Example, 0, len(categories)+2)
	for i, category := range categories {
		examples = append(examples, Example{
			Category:  category,
			Text:      "anchor for " + string(category),
			Embedding: axis(i),
			Weight:    1,
		})
	}
	// equipment-loan is index 4 in AllCategories.
	examples = append(examples,
		Example{
			Category:  routing.CategoryEquipmentLoan,
			Text:      "weak equipment phrase",
			Embedding: scaledAxis(4, 0.5),
			Weight:    1,
		},
		Example{
			Category:  routing.CategoryEquipmentLoan,
			Text:      "can i borrow a laptop",
			Embedding: axis(4),
			Weight:    5,
		},
	)
	return examples
}

func mustSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	s, err := NewSnapshot("v-test", testExamples())
	if err != nil {
		t.Fatalf("NewSnapshot failed: %v", err)
	}
	return s
}

func TestNewSnapshotValidation(t *testing.T) {
	valid := testExamples()

	tests := []struct {
		name    string
		version string
		mutate  func([]Example) []Example
		wantErr bool
	}{
		{
			name:    "valid catalog",
			version: "v1",
			mutate:  func(e []Example) []Example { return e },
		},
		{
			name:    "empty version",
			version: "",
			mutate:  func(e []Example) []Example { return e },
			wantErr: true,
		},
		{
			name:    "no examples",
			version: "v1",
			mutate:  func(e []Example) []Example { return nil },
			wantErr: true,
		},
		{
			name:    "category left without prototypes",
			version: "v1",
			mutate: func(e []Example) []Example {
				kept := e[:0]
				for _, ex := range e {
					if ex.Category != routing.CategoryRoomBooking {
						kept = append(kept, ex)
					}
				}
				return kept
			},
			wantErr: true,
		},
		{
			name:    "unknown category",
			version: "v1",
			mutate: func(e []Example) []Example {
				e[0].Category = "vending-machines"
				return e
			},
			wantErr: true,
		},
		{
			name:    "dimension mismatch",
			version: "v1",
			mutate: func(e []Example) []Example {
				e[2].Embedding = []float32{1, 0}
				return e
			},
			wantErr: true,
		},
		{
			name:    "empty text",
			version: "v1",
			mutate: func(e []Example) []Example {
				e[1].Text = ""
				return e
			},
			wantErr: true,
		},
		{
			name:    "missing embedding",
			version: "v1",
			mutate: func(e []Example) []Example {
				e[3].Embedding = nil
				return e
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			examples := tt.mutate(append([]Example(nil), valid...))
			_, err := NewSnapshot(tt.version, examples)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewSnapshot error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSearchMaxPoolsPerCategory(t *testing.T) {
	s := mustSnapshot(t)

	query := make([]float32, dims)
	query[4] = 0.8 // equipment-loan axis

	candidates, err := s.Search(query, nil, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(candidates) == 0 {
		t.Fatal("expected candidates")
	}

	top := candidates[0]
	if top.Category != routing.CategoryEquipmentLoan {
		t.Fatalf("top category = %s, want equipment-loan", top.Category)
	}
	// The category has matches at 0.8, 0.8 and 0.4. Max-pooling keeps 0.8;
	// averaging would have dragged it to ~0.67.
	if math.Abs(top.Score-0.8) > 1e-6 {
		t.Errorf("top score = %v, want 0.8 (max-pooled)", top.Score)
	}
	// Equal scores resolve by weight: the weight-5 example wins.
	if top.MatchedText != "can i borrow a laptop" {
		t.Errorf("matched text = %q, want the higher-weight example", top.MatchedText)
	}

	for _, c := range candidates {
		if c.Score < 0 || c.Score > 1 {
			t.Errorf("score %v outside [0,1]", c.Score)
		}
	}
}

func TestSearchExcludesVetoedCategories(t *testing.T) {
	s := mustSnapshot(t)

	query := axis(4)
	excluding := map[routing.Category]bool{routing.CategoryEquipmentLoan: true}

	candidates, err := s.Search(query, excluding, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	for _, c := range candidates {
		if c.Category == routing.CategoryEquipmentLoan {
			t.Fatalf("excluded category still present: %+v", c)
		}
	}
}

func TestSearchCapsAtTopK(t *testing.T) {
	s := mustSnapshot(t)

	query := make([]float32, dims)
	for i := range query {
		query[i] = 0.3
	}

	candidates, err := s.Search(query, nil, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(candidates) != 5 {
		t.Errorf("len = %d, want 5 (seven categories, capped)", len(candidates))
	}
	for i := 1; i < len(candidates); i++ {
		if candidates[i].Score > candidates[i-1].Score {
			t.Errorf("candidates not sorted descending at %d", i)
		}
	}
}

func TestSearchOrderIsDeterministicOnTies(t *testing.T) {
	s := mustSnapshot(t)

	query := make([]float32, dims)
	query[0] = 0.6 // opening-hours
	query[1] = 0.6 // room-booking

	first, err := s.Search(query, nil, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := s.Search(query, nil, 5)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("run %d: order changed at %d: %+v vs %+v", i, j, again[j], first[j])
			}
		}
	}
}

func TestSearchRejectsWrongDimensions(t *testing.T) {
	s := mustSnapshot(t)
	if _, err := s.Search([]float32{1, 0}, nil, 5); err == nil {
		t.Fatal("expected dimension error")
	}
}

func TestStoreSwapIsAtomicForReaders(t *testing.T) {
	first := mustSnapshot(t)
	store, err := NewStore(first)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	pinned := store.Snapshot()

	second, err := NewSnapshot("v-next", testExamples())
	if err != nil {
		t.Fatalf("NewSnapshot failed: %v", err)
	}
	if err := store.Swap(second); err != nil {
		t.Fatalf("Swap failed: %v", err)
	}

	if store.Snapshot().Version() != "v-next" {
		t.Errorf("active version = %s, want v-next", store.Snapshot().Version())
	}
	// A request that pinned the old snapshot keeps a fully consistent view.
	if pinned.Version() != "v-test" {
		t.Errorf("pinned version = %s, want v-test", pinned.Version())
	}

	if err := store.Swap(nil); err == nil {
		t.Error("expected error swapping nil snapshot")
	}
}

func TestStoreConcurrentReadersDuringSwap(t *testing.T) {
	store, err := NewStore(mustSnapshot(t))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			query := axis(4)
			for {
				select {
				case <-stop:
					return
				default:
				}
				if _, err := store.Search(context.Background(), query, nil, 5); err != nil {
					t.Errorf("Search failed during swap: %v", err)
					return
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		next, err := NewSnapshot("v-swap", testExamples())
		if err != nil {
			t.Fatalf("NewSnapshot failed: %v", err)
		}
		if err := store.Swap(next); err != nil {
			t.Fatalf("Swap failed: %v", err)
		}
	}
	close(stop)
	wg.Wait()
}
