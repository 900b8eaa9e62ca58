// Package dialogue tracks the one piece of per-conversation mutable state in
// the router: the pending clarification. It is an explicit state machine
// keyed by conversation id - NoPending, Pending, awaiting elaboration - with
// expiry handled by the backing TTL store, so "none of the above" and
// timeout behavior stay independently testable.
package dialogue

import (
	"time"

	"ai-deskmate-be/pkg/routing"
)

// Phase is where a conversation's clarification currently stands.
type Phase string

const (
	// PhasePending means the question is asked and a choice is awaited.
	PhasePending Phase = "PENDING"
	// PhaseAwaitingElaboration means the patron picked "none of the above"
	// and the next free-text message is the elaboration.
	PhaseAwaitingElaboration Phase = "AWAITING_ELABORATION"
)

// PendingClarification is the stored record. At most one exists per
// conversation; a new clarification overwrites the old one.
type PendingClarification struct {
	ConversationId string                        `json:"conversation_id"`
	OriginalQuery  string                        `json:"original_query"`
	Question       string                        `json:"question"`
	Choices        []routing.ClarificationChoice `json:"choices"`
	Phase          Phase                         `json:"phase"`
	CreatedAt      time.Time                     `json:"created_at"`
}

// ChoiceById finds a stored choice; ok is false for unknown ids.
func (p *PendingClarification) ChoiceById(id string) (routing.ClarificationChoice, bool) {
	for _, choice := range p.Choices {
		if choice.Id == id {
			return choice, true
		}
	}
	return routing.ClarificationChoice{}, false
}

// Store is the TTL-backed persistence for pending clarifications. Entries
// vanish on their own after the clarification timeout; Save resets the
// clock.
type Store interface {
	Save(pending *PendingClarification)
	Get(conversationId string) (*PendingClarification, bool)
	Delete(conversationId string)
}

// ConsumptionKind classifies what the incoming message meant to the dialogue.
type ConsumptionKind string

const (
	// ConsumeNone: no pending state, the message is a fresh query.
	ConsumeNone ConsumptionKind = "none"
	// ConsumeChoice: a substantive choice was selected; route directly.
	ConsumeChoice ConsumptionKind = "choice"
	// ConsumeSentinel: "none of the above"; ask for free text next.
	ConsumeSentinel ConsumptionKind = "sentinel"
	// ConsumeElaboration: the awaited free text arrived; reprocess the
	// concatenated query from the gate onward.
	ConsumeElaboration ConsumptionKind = "elaboration"
	// ConsumeStale: a reply that no longer matches any pending state
	// (expired, unknown choice, free text over a pending question). The
	// pending record is discarded and the message treated as brand-new.
	ConsumeStale ConsumptionKind = "stale"
)

// Consumption is the dialogue's verdict on one incoming message.
type Consumption struct {
	Kind ConsumptionKind
	// Category is set for ConsumeChoice.
	Category routing.Category
	// Query is the effective query the pipeline should process. For
	// elaborations it is original + ". " + elaboration, for choices and
	// the sentinel the stored original query, otherwise the incoming text.
	Query string
	// InvalidState marks replies that referenced state which did not exist
	// anymore; logged, never fatal.
	InvalidState bool
}
