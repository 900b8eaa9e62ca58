// FILE: internal/dto/route_dto.go
package dto

import "time"

type RouteRequest struct {
	ConversationId string `json:"conversation_id" validate:"required,max=100"`
	Query          string `json:"query" validate:"required,max=2000"`
	RouteHint      string `json:"route_hint"`
	ChoiceId       string `json:"choice_id"`
}

type CandidateDTO struct {
	Category    string  `json:"category"`
	Score       float64 `json:"score"`
	MatchedText string  `json:"matched_text,omitempty"`
}

// ClarificationChoiceDTO carries a nil Category for the escape option.
type ClarificationChoiceDTO struct {
	Id       string  `json:"id"`
	Label    string  `json:"label"`
	Category *string `json:"category"`
}

type ClarificationDTO struct {
	Question string                   `json:"question"`
	Choices  []ClarificationChoiceDTO `json:"choices"`
}

type RouteResponse struct {
	ConversationId string            `json:"conversation_id"`
	Mode           string            `json:"mode"` // "direct" | "clarify"
	Category       string            `json:"category,omitempty"`
	ConfidenceTier string            `json:"confidence_tier"`
	Reason         string            `json:"reason"`
	Candidates     []CandidateDTO    `json:"candidates"`
	Clarification  *ClarificationDTO `json:"clarification,omitempty"`
	Degraded       bool              `json:"degraded,omitempty"`
	LatencyMs      int64             `json:"latency_ms"`
}

type PendingClarificationResponse struct {
	ConversationId   string                   `json:"conversation_id"`
	Question         string                   `json:"question"`
	Choices          []ClarificationChoiceDTO `json:"choices"`
	Phase            string                   `json:"phase"`
	CreatedAt        time.Time                `json:"created_at"`
	ExpiresInSeconds int                      `json:"expires_in_seconds"`
}
