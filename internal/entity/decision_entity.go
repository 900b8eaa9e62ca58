package entity

import (
	"time"

	"github.com/google/uuid"

	"ai-deskmate-be/pkg/routing"
)

// DecisionRecord is the audit trail entry for one routing turn. Every
// decision the router hands back, including clarifications and fallbacks,
// lands here.
type DecisionRecord struct {
	Id             uuid.UUID
	ConversationId string
	Query          string
	// EffectiveQuery differs from Query when a clarification reply was
	// folded in (elaboration) or a stored original was reused (choice).
	EffectiveQuery string
	Mode           string
	Category       *string
	Tier           string
	Reason         string
	Candidates     []routing.Candidate
	Question       *string
	GateEffects    string
	Degraded       bool
	LatencyMs      int
	CreatedAt      time.Time
}
