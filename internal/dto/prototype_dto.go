// FILE: internal/dto/prototype_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
)

type PrototypeListRequest struct {
	Page     int    `query:"page"`
	Limit    int    `query:"limit"`
	Category string `query:"category"`
	Search   string `query:"search"`
}

type PrototypeResponse struct {
	Id           uuid.UUID  `json:"id"`
	Category     string     `json:"category"`
	Text         string     `json:"text"`
	Weight       int        `json:"weight"`
	Active       bool       `json:"active"`
	HasEmbedding bool       `json:"has_embedding"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

type PrototypeListResponse struct {
	Items []PrototypeResponse `json:"items"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}

type CreatePrototypeRequest struct {
	Category string `json:"category" validate:"required"`
	Text     string `json:"text" validate:"required,max=500"`
	Weight   int    `json:"weight" validate:"omitempty,gt=0"`
	Active   *bool  `json:"active"`
}

type UpdatePrototypeRequest struct {
	Id       uuid.UUID
	Category string `json:"category" validate:"omitempty"`
	Text     string `json:"text" validate:"omitempty,max=500"`
	Weight   int    `json:"weight" validate:"omitempty,gt=0"`
	Active   *bool  `json:"active"`
}

type PrototypeMutationResponse struct {
	Id uuid.UUID `json:"id"`
}

// --- Curation Test Probe ---

type TestQueryRequest struct {
	Query string `json:"query" validate:"required,max=2000"`
}

type CatalogMatchDTO struct {
	Id       uuid.UUID `json:"id"`
	Category string    `json:"category"`
	Text     string    `json:"text"`
	Score    float64   `json:"score"`
}

// TestQueryResponse shows the live snapshot verdict next to a raw catalog
// scan so curators can see the effect of unsynced edits.
type TestQueryResponse struct {
	SnapshotVersion    string            `json:"snapshot_version"`
	SnapshotCandidates []CandidateDTO    `json:"snapshot_candidates"`
	SnapshotDegraded   bool              `json:"snapshot_degraded"`
	CatalogMatches     []CatalogMatchDTO `json:"catalog_matches"`
}

// PrototypeRefreshMessage rides the in-process queue from a catalog mutation
// to the rebuild worker.
type PrototypeRefreshMessage struct {
	PrototypeId uuid.UUID `json:"prototype_id"`
	Action      string    `json:"action"`
}
