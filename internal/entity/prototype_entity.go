package entity

import (
	"time"

	"github.com/google/uuid"
)

// PrototypeExample is one labeled utterance in the routing catalog. Its
// embedding is stored alongside the text so the in-memory snapshot can be
// rebuilt without re-embedding the whole catalog.
type PrototypeExample struct {
	Id        uuid.UUID
	Category  string
	Text      string
	Embedding []float32
	// Weight breaks score ties between examples of the same category;
	// higher wins.
	Weight    int
	Active    bool
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
