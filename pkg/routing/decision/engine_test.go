package decision

import (
	"testing"

	"ai-deskmate-be/pkg/routing"
)

func candidates(scores ...float64) []routing.Candidate {
	all := routing.AllCategories()
	out := make([]routing.Candidate, len(scores))
	for i, score := range scores {
		out[i] = routing.Candidate{Category: all[i%len(all)], Score: score}
	}
	return out
}

func TestDecideRegimes(t *testing.T) {
	thresholds := DefaultThresholds()

	tests := []struct {
		name       string
		candidates []routing.Candidate
		flags      Flags
		wantAction Action
		wantTier   routing.ConfidenceTier
		wantReason string
	}{
		{
			name:       "forced arbitration beats perfect scores",
			candidates: candidates(0.95, 0.10),
			flags:      Flags{ForceArbitration: true},
			wantAction: ActionClarify,
			wantTier:   routing.TierLow,
			wantReason: ReasonForceArbitration,
		},
		{
			name:       "degraded matcher with nothing to arbitrate",
			candidates: nil,
			flags:      Flags{Degraded: true},
			wantAction: ActionClarify,
			wantTier:   routing.TierLow,
			wantReason: ReasonDegraded,
		},
		{
			name:       "degraded matcher with partial evidence",
			candidates: candidates(0.80, 0.20),
			flags:      Flags{Degraded: true},
			wantAction: ActionArbitrate,
			wantTier:   routing.TierLow,
			wantReason: ReasonDegraded,
		},
		{
			name:       "no candidates",
			candidates: nil,
			wantAction: ActionClarify,
			wantTier:   routing.TierLow,
			wantReason: ReasonNoCandidates,
		},
		{
			name:       "single candidate goes to arbitration",
			candidates: candidates(0.85),
			wantAction: ActionArbitrate,
			wantTier:   routing.TierLow,
			wantReason: ReasonSingleCandidate,
		},
		{
			name:       "strong score and clear margin",
			candidates: candidates(0.89, 0.45),
			wantAction: ActionDirect,
			wantTier:   routing.TierHigh,
			wantReason: ReasonHighConfidence,
		},
		{
			name:       "exactly on the high score boundary",
			candidates: candidates(0.75, 0.50),
			wantAction: ActionDirect,
			wantTier:   routing.TierHigh,
			wantReason: ReasonHighConfidence,
		},
		{
			name:       "decent score and margin",
			candidates: candidates(0.70, 0.55),
			wantAction: ActionDirect,
			wantTier:   routing.TierMedium,
			wantReason: ReasonMediumConfidence,
		},
		{
			name:       "near tie overrides a high absolute score",
			candidates: candidates(0.90, 0.88),
			wantAction: ActionClarify,
			wantTier:   routing.TierLow,
			wantReason: ReasonNearTie,
		},
		{
			name:       "ambiguous middle ground arbitrates",
			candidates: candidates(0.65, 0.58),
			wantAction: ActionArbitrate,
			wantTier:   routing.TierLow,
			wantReason: ReasonUncertain,
		},
		{
			name:       "weak leader with wide margin still arbitrates",
			candidates: candidates(0.55, 0.30),
			wantAction: ActionArbitrate,
			wantTier:   routing.TierLow,
			wantReason: ReasonUncertain,
		},
		{
			name:       "three way near tie",
			candidates: candidates(0.74, 0.73, 0.70),
			wantAction: ActionClarify,
			wantTier:   routing.TierLow,
			wantReason: ReasonNearTie,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(thresholds, tt.candidates, tt.flags)
			if got.Action != tt.wantAction {
				t.Errorf("Action = %s, want %s", got.Action, tt.wantAction)
			}
			if got.Tier != tt.wantTier {
				t.Errorf("Tier = %s, want %s", got.Tier, tt.wantTier)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Reason = %s, want %s", got.Reason, tt.wantReason)
			}
		})
	}
}

func TestDecideNearTieAlwaysClarifies(t *testing.T) {
	// The invariant behind the near-tie regime: no absolute score may force
	// a direct route when the top two are inside the near-tie margin.
	thresholds := DefaultThresholds()
	for _, top := range []float64{0.99, 0.90, 0.80, 0.70, 0.60, 0.50} {
		got := Decide(thresholds, candidates(top, top-0.04), Flags{})
		if got.Action != ActionClarify {
			t.Errorf("top=%v: Action = %s, want clarify", top, got.Action)
		}
	}
}

func TestDecideHighConfidenceNeverClarifies(t *testing.T) {
	thresholds := DefaultThresholds()
	for _, tc := range [][2]float64{
		{0.75, 0.50},
		{0.80, 0.55},
		{0.95, 0.20},
		{0.89, 0.45},
	} {
		got := Decide(thresholds, candidates(tc[0], tc[1]), Flags{})
		if got.Action != ActionDirect || got.Tier != routing.TierHigh {
			t.Errorf("top=%v second=%v: got %s/%s, want direct/high", tc[0], tc[1], got.Action, got.Tier)
		}
	}
}

func TestDecideRespectsCustomThresholds(t *testing.T) {
	strict := Thresholds{
		HighScore:     0.90,
		HighMargin:    0.30,
		MediumScore:   0.80,
		MediumMargin:  0.20,
		NearTieMargin: 0.10,
	}
	if err := strict.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	// Direct/high under defaults, only arbitration under the strict set.
	if got := Decide(DefaultThresholds(), candidates(0.79, 0.55), Flags{}); got.Action != ActionDirect || got.Tier != routing.TierHigh {
		t.Fatalf("defaults: got %s/%s, want direct/high", got.Action, got.Tier)
	}
	got := Decide(strict, candidates(0.79, 0.55), Flags{})
	if got.Action != ActionArbitrate {
		t.Errorf("Action = %s, want arbitrate under strict thresholds", got.Action)
	}
}

func TestThresholdsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Thresholds)
		wantErr bool
	}{
		{"defaults are valid", func(t *Thresholds) {}, false},
		{"zero high score", func(t *Thresholds) { t.HighScore = 0 }, true},
		{"score above one", func(t *Thresholds) { t.MediumScore = 1.2 }, true},
		{"negative near tie", func(t *Thresholds) { t.NearTieMargin = -0.01 }, true},
		{"high below medium score", func(t *Thresholds) { t.HighScore = 0.5 }, true},
		{"high below medium margin", func(t *Thresholds) { t.HighMargin = 0.05 }, true},
		{"medium margin not above near tie", func(t *Thresholds) { t.MediumMargin = 0.05 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thresholds := DefaultThresholds()
			tt.mutate(&thresholds)
			err := thresholds.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
