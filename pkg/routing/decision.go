package routing

// Mode is the terminal shape of a routing turn: commit to a category, or
// ask exactly one clarifying question.
type Mode string

const (
	ModeDirect  Mode = "direct"
	ModeClarify Mode = "clarify"
)

// ConfidenceTier summarizes how much trust a direct route carries.
type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "high"
	TierMedium ConfidenceTier = "medium"
	TierLow    ConfidenceTier = "low"
)

// Reason codes carried on RoutingDecision. Short, log-greppable strings.
const (
	ReasonRouteHint            = "route-hint"
	ReasonClarificationChoice  = "clarification-choice"
	ReasonHighConfidence       = "high-confidence"
	ReasonMediumConfidence     = "medium-confidence"
	ReasonNearTie              = "near-tie"
	ReasonForcedClarification  = "forced-clarification"
	ReasonDegraded             = "degraded"
	ReasonArbitration          = "arbitration"
	ReasonArbitrationFallback  = "arbitration-fallback"
	ReasonClarifyFallback      = "clarification-fallback"
	ReasonElaborationRequested = "elaboration-requested"
	ReasonSuperseded           = "superseded"
)

// Candidate is one category's best similarity match for a query. Transient,
// produced per turn.
type Candidate struct {
	Category    Category `json:"category"`
	Score       float64  `json:"score"`
	MatchedText string   `json:"matched_text"`
}

// Margin is the score gap between the two strongest candidates. A single
// candidate has maximal margin: there is nothing close to confuse it with.
func Margin(candidates []Candidate) float64 {
	if len(candidates) < 2 {
		return 1.0
	}
	return candidates[0].Score - candidates[1].Score
}

// ClarificationChoice is one labeled option of a clarifying question.
// Category is nil for the "none of the above" sentinel.
type ClarificationChoice struct {
	Id       string    `json:"id"`
	Label    string    `json:"label"`
	Category *Category `json:"category"`
}

// SentinelChoiceId identifies the "none of the above" option. The pipeline
// appends it itself so no generator output can omit or reword it.
const SentinelChoiceId = "none-of-the-above"

// SentinelChoice builds the fixed escape option.
func SentinelChoice() ClarificationChoice {
	return ClarificationChoice{
		Id:       SentinelChoiceId,
		Label:    "None of these - let me explain",
		Category: nil,
	}
}

// Clarification is the user-facing question with its bounded options,
// sentinel included.
type Clarification struct {
	Question string                `json:"question"`
	Choices  []ClarificationChoice `json:"choices"`
}

// RoutingDecision is the single output of one routing turn.
type RoutingDecision struct {
	Mode           Mode           `json:"mode"`
	Category       Category       `json:"category,omitempty"`
	ConfidenceTier ConfidenceTier `json:"confidence_tier"`
	Candidates     []Candidate    `json:"candidates"`
	Reason         string         `json:"reason"`
	Clarification  *Clarification `json:"clarification,omitempty"`
}

// DirectDecision builds a committed route.
func DirectDecision(category Category, tier ConfidenceTier, candidates []Candidate, reason string) RoutingDecision {
	return RoutingDecision{
		Mode:           ModeDirect,
		Category:       category,
		ConfidenceTier: tier,
		Candidates:     candidates,
		Reason:         reason,
	}
}

// ClarifyDecision builds a clarification turn.
func ClarifyDecision(clarification Clarification, candidates []Candidate, reason string) RoutingDecision {
	return RoutingDecision{
		Mode:           ModeClarify,
		ConfidenceTier: TierLow,
		Candidates:     candidates,
		Reason:         reason,
		Clarification:  &clarification,
	}
}
