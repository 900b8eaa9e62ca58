package gate

// DefaultRules is the built-in rule set, used when routing.yaml does not
// override the gate section. Order is priority: out-of-scope rejection, then
// domain fast paths, then guardrail vetoes, then ambiguity triggers.
//
// The ambiguity trigger exists because symptom words ("problem", "broken")
// overlap prototypes of several categories at once; a single literal keyword
// like "computer" must not let equipment-loan win over tech-support on
// lexical coincidence alone.
func DefaultRules() []RuleSpec {
	return []RuleSpec{
		{
			Name:     "campus-administrative",
			Effect:   EffectShortCircuit,
			Category: "human-handoff",
			AnyOf:    []string{"tuition", "financial aid", "parking ticket", "parking permit"},
		},
		{
			Name:     "opening-hours-fast-path",
			Effect:   EffectShortCircuit,
			Category: "opening-hours",
			AnyOf:    []string{"opening hours", "closing time", "open today", "close today"},
			Patterns: []string{`what time (do|does|are).*(open|close)`, `\bhours\b`},
		},
		{
			Name:     "room-booking-fast-path",
			Effect:   EffectShortCircuit,
			Category: "room-booking",
			AnyOf:    []string{"book a room", "book a study room", "reserve a room", "reserve a study room"},
		},
		{
			Name:       "borrow-intent",
			Effect:     EffectVeto,
			Categories: []string{"tech-support"},
			AnyOf:      []string{"borrow", "check out", "checkout"},
		},
		{
			Name:   "symptom-without-action",
			Effect: EffectForceArbitration,
			AnyOf: []string{
				"problem", "problems", "broken", "not working",
				"help with", "trouble", "issue", "crashed",
			},
			Unless: []string{
				"borrow", "book", "reserve", "find", "search",
				"renew", "return", "check out",
			},
		},
	}
}
