// Package decision classifies a turn's evidence into one of the routing
// regimes. Decide is a pure function over the ranked candidates and the gate
// flags: no I/O, no clock, no state, which is what makes the thresholds
// sweepable offline against labeled query sets.
package decision

import (
	"fmt"

	"ai-deskmate-be/pkg/routing"
)

// Thresholds are the tunable confidence constants. Defaults are deliberately
// conservative: committing to a wrong route costs more than one clarifying
// question.
type Thresholds struct {
	HighScore     float64 `yaml:"high_score" json:"high_score"`
	HighMargin    float64 `yaml:"high_margin" json:"high_margin"`
	MediumScore   float64 `yaml:"medium_score" json:"medium_score"`
	MediumMargin  float64 `yaml:"medium_margin" json:"medium_margin"`
	NearTieMargin float64 `yaml:"near_tie_margin" json:"near_tie_margin"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		HighScore:     0.75,
		HighMargin:    0.20,
		MediumScore:   0.60,
		MediumMargin:  0.10,
		NearTieMargin: 0.05,
	}
}

// Validate enforces the ordering that keeps the regimes reachable. A config
// violating it is rejected at startup, never run with.
func (t Thresholds) Validate() error {
	for name, v := range map[string]float64{
		"high_score":    t.HighScore,
		"high_margin":   t.HighMargin,
		"medium_score":  t.MediumScore,
		"medium_margin": t.MediumMargin,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("threshold %s = %v, must be in (0,1]", name, v)
		}
	}
	if t.NearTieMargin < 0 || t.NearTieMargin > 1 {
		return fmt.Errorf("threshold near_tie_margin = %v, must be in [0,1]", t.NearTieMargin)
	}
	if t.HighScore < t.MediumScore {
		return fmt.Errorf("high_score %v below medium_score %v", t.HighScore, t.MediumScore)
	}
	if t.HighMargin < t.MediumMargin {
		return fmt.Errorf("high_margin %v below medium_margin %v", t.HighMargin, t.MediumMargin)
	}
	if t.MediumMargin <= t.NearTieMargin {
		return fmt.Errorf("medium_margin %v must exceed near_tie_margin %v", t.MediumMargin, t.NearTieMargin)
	}
	return nil
}

// Action is what the pipeline does after classification.
type Action string

const (
	ActionDirect    Action = "direct"
	ActionArbitrate Action = "arbitrate"
	ActionClarify   Action = "clarify"
)

// Flags carries the gate's verdict and the matcher's health into the
// classification.
type Flags struct {
	ForceArbitration bool
	Degraded         bool
}

// Outcome is the regime classification. Tier is meaningful only for
// ActionDirect; arbitration assigns its own tier when it resolves.
type Outcome struct {
	Action Action
	Tier   routing.ConfidenceTier
	Reason string
}

// Regime cause codes, recorded on the final decision for log analysis.
const (
	ReasonForceArbitration = "force-arbitration"
	ReasonDegraded         = "degraded"
	ReasonNoCandidates     = "no-candidates"
	ReasonSingleCandidate  = "single-candidate"
	ReasonHighConfidence   = "high-confidence"
	ReasonMediumConfidence = "medium-confidence"
	ReasonNearTie          = "near-tie"
	ReasonUncertain        = "uncertain"
)

// Decide applies the ordered regimes:
//
//  1. forced arbitration, degraded matcher, or fewer than two candidates
//     resolve without trusting scores;
//  2. strong score and clear margin commit directly at high confidence;
//  3. decent score and decent margin commit at medium confidence;
//  4. a near-tie always asks: clarifying is cheaper than guessing wrong,
//     no matter how high the absolute score is;
//  5. everything else goes to model arbitration.
func Decide(t Thresholds, candidates []routing.Candidate, flags Flags) Outcome {
	if flags.ForceArbitration {
		// Entry-ambiguous phrasing: ask the user, not the vectors.
		return Outcome{Action: ActionClarify, Tier: routing.TierLow, Reason: ReasonForceArbitration}
	}
	if flags.Degraded {
		if len(candidates) == 0 {
			return Outcome{Action: ActionClarify, Tier: routing.TierLow, Reason: ReasonDegraded}
		}
		return Outcome{Action: ActionArbitrate, Tier: routing.TierLow, Reason: ReasonDegraded}
	}
	if len(candidates) == 0 {
		return Outcome{Action: ActionClarify, Tier: routing.TierLow, Reason: ReasonNoCandidates}
	}
	if len(candidates) == 1 {
		return Outcome{Action: ActionArbitrate, Tier: routing.TierLow, Reason: ReasonSingleCandidate}
	}

	top := candidates[0].Score
	margin := routing.Margin(candidates)

	if top >= t.HighScore && margin >= t.HighMargin {
		return Outcome{Action: ActionDirect, Tier: routing.TierHigh, Reason: ReasonHighConfidence}
	}
	if top >= t.MediumScore && margin >= t.MediumMargin {
		return Outcome{Action: ActionDirect, Tier: routing.TierMedium, Reason: ReasonMediumConfidence}
	}
	if margin < t.NearTieMargin {
		return Outcome{Action: ActionClarify, Tier: routing.TierLow, Reason: ReasonNearTie}
	}
	return Outcome{Action: ActionArbitrate, Tier: routing.TierLow, Reason: ReasonUncertain}
}
