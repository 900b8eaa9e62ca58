package contract

import (
	"context"

	"ai-deskmate-be/internal/entity"
	"ai-deskmate-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredPrototype pairs a catalog row with its cosine similarity to a probe
// vector. Used by the curation test endpoint, not by the routing hot path.
type ScoredPrototype struct {
	Example    *entity.PrototypeExample
	Similarity float64
}

type PrototypeRepository interface {
	Create(ctx context.Context, example *entity.PrototypeExample) error
	CreateBulk(ctx context.Context, examples []*entity.PrototypeExample) error
	Update(ctx context.Context, example *entity.PrototypeExample) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PrototypeExample, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PrototypeExample, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// FindActive returns the rows the in-memory snapshot is built from,
	// ordered by category then descending weight.
	FindActive(ctx context.Context) ([]*entity.PrototypeExample, error)
	// SearchSimilar scans the catalog with pgvector cosine similarity.
	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]*ScoredPrototype, error)
}
