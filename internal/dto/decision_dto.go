// FILE: internal/dto/decision_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
)

type DecisionListRequest struct {
	Page           int    `query:"page"`
	Limit          int    `query:"limit"`
	Mode           string `query:"mode"`
	Category       string `query:"category"`
	Reason         string `query:"reason"`
	ConversationId string `query:"conversation_id"`
	SinceHours     int    `query:"since_hours"`
}

type DecisionLogResponse struct {
	Id             uuid.UUID      `json:"id"`
	ConversationId string         `json:"conversation_id"`
	Query          string         `json:"query"`
	EffectiveQuery string         `json:"effective_query,omitempty"`
	Mode           string         `json:"mode"`
	Category       *string        `json:"category"`
	ConfidenceTier string         `json:"confidence_tier"`
	Reason         string         `json:"reason"`
	Candidates     []CandidateDTO `json:"candidates"`
	Question       *string        `json:"question,omitempty"`
	GateEffects    string         `json:"gate_effects,omitempty"`
	Degraded       bool           `json:"degraded"`
	LatencyMs      int64          `json:"latency_ms"`
	CreatedAt      time.Time      `json:"created_at"`
}

type DecisionListResponse struct {
	Items []DecisionLogResponse `json:"items"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

// CategoryVolumeResponse is one cell of the decisions-per-category report.
type CategoryVolumeResponse struct {
	Category string `json:"category"`
	Mode     string `json:"mode"`
	Total    int64  `json:"total"`
}
