// Package gate is the first stage of the routing pipeline: an ordered list of
// small predicate->effect rules evaluated before any network call. A rule can
// short-circuit straight to a category, veto categories for this query, or
// force arbitration when the phrasing is known-ambiguous. Pure and
// deterministic; rules are compiled once and evaluation does regex matching
// only.
package gate

import (
	"fmt"
	"regexp"
	"strings"

	"ai-deskmate-be/pkg/routing"
)

// Effect tags what a matching rule does to the query.
type Effect string

const (
	// EffectShortCircuit routes immediately, skipping the matcher entirely.
	EffectShortCircuit Effect = "short-circuit"
	// EffectVeto removes categories from consideration for this query only.
	EffectVeto Effect = "veto"
	// EffectForceArbitration flags the query as entry-ambiguous regardless of
	// vector confidence.
	EffectForceArbitration Effect = "force-arbitration"
)

// RuleSpec is the declarative form of one rule, as written in routing.yaml.
// A rule matches when any keyword or pattern hits and no unless entry hits.
type RuleSpec struct {
	Name       string   `yaml:"name" json:"name"`
	Effect     Effect   `yaml:"effect" json:"effect"`
	Category   string   `yaml:"category,omitempty" json:"category,omitempty"`     // short-circuit target
	Categories []string `yaml:"categories,omitempty" json:"categories,omitempty"` // veto targets
	AnyOf      []string `yaml:"any_of,omitempty" json:"any_of,omitempty"`         // literal keywords/phrases
	Patterns   []string `yaml:"patterns,omitempty" json:"patterns,omitempty"`     // raw regular expressions
	Unless     []string `yaml:"unless,omitempty" json:"unless,omitempty"`         // suppressing keywords
}

type compiledRule struct {
	name         string
	effect       Effect
	shortCircuit routing.Category
	vetoes       []routing.Category
	match        []*regexp.Regexp
	unless       []*regexp.Regexp
}

func (r *compiledRule) matches(query string) bool {
	hit := false
	for _, re := range r.match {
		if re.MatchString(query) {
			hit = true
			break
		}
	}
	if !hit {
		return false
	}
	for _, re := range r.unless {
		if re.MatchString(query) {
			return false
		}
	}
	return true
}

// Result is the gate's verdict for one query.
type Result struct {
	ShortCircuit     routing.Category
	Vetoed           map[routing.Category]bool
	ForceArbitration bool
	Reason           string
}

// ShortCircuited reports whether the gate committed to a category by itself.
func (r Result) ShortCircuited() bool {
	return r.ShortCircuit != ""
}

// Gate evaluates its rules in declaration order; order is priority.
type Gate struct {
	rules []compiledRule
}

// Compile builds a Gate from rule specs. Any invalid spec is a configuration
// error: the caller treats it as fatal rather than running with a partial
// rule set.
func Compile(specs []RuleSpec) (*Gate, error) {
	rules := make([]compiledRule, 0, len(specs))
	for i, spec := range specs {
		rule, err := compileRule(spec)
		if err != nil {
			return nil, fmt.Errorf("gate rule %d (%s): %w", i, spec.Name, err)
		}
		rules = append(rules, rule)
	}
	return &Gate{rules: rules}, nil
}

func compileRule(spec RuleSpec) (compiledRule, error) {
	rule := compiledRule{name: spec.Name, effect: spec.Effect}

	if spec.Name == "" {
		return rule, fmt.Errorf("rule has no name")
	}
	if len(spec.AnyOf) == 0 && len(spec.Patterns) == 0 {
		return rule, fmt.Errorf("rule matches nothing: needs any_of or patterns")
	}

	switch spec.Effect {
	case EffectShortCircuit:
		category, err := routing.ParseCategory(spec.Category)
		if err != nil {
			return rule, fmt.Errorf("short-circuit target: %w", err)
		}
		rule.shortCircuit = category
	case EffectVeto:
		if len(spec.Categories) == 0 {
			return rule, fmt.Errorf("veto rule needs categories")
		}
		for _, id := range spec.Categories {
			category, err := routing.ParseCategory(id)
			if err != nil {
				return rule, fmt.Errorf("veto target: %w", err)
			}
			rule.vetoes = append(rule.vetoes, category)
		}
	case EffectForceArbitration:
		// No target; the flag is the effect.
	default:
		return rule, fmt.Errorf("unknown effect %q", spec.Effect)
	}

	var err error
	if rule.match, err = compileTerms(spec.AnyOf, spec.Patterns); err != nil {
		return rule, err
	}
	if rule.unless, err = compileTerms(spec.Unless, nil); err != nil {
		return rule, err
	}
	return rule, nil
}

// compileTerms turns literal keywords into case-insensitive word-boundary
// regexes and compiles raw patterns as-is.
func compileTerms(keywords, patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(keywords)+len(patterns))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("keyword %q: %w", kw, err)
		}
		compiled = append(compiled, re)
	}
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// Evaluate runs every rule in priority order against the raw query text.
// Veto and force-arbitration effects accumulate; the first short-circuit
// whose target has not already been vetoed wins immediately.
func (g *Gate) Evaluate(query string) Result {
	result := Result{Vetoed: make(map[routing.Category]bool)}
	var matched []string

	for i := range g.rules {
		rule := &g.rules[i]
		if !rule.matches(query) {
			continue
		}

		switch rule.effect {
		case EffectShortCircuit:
			if result.Vetoed[rule.shortCircuit] {
				// A higher-priority guardrail already removed this target.
				continue
			}
			result.ShortCircuit = rule.shortCircuit
			result.Reason = rule.name
			return result
		case EffectVeto:
			for _, category := range rule.vetoes {
				result.Vetoed[category] = true
			}
			matched = append(matched, rule.name)
		case EffectForceArbitration:
			result.ForceArbitration = true
			matched = append(matched, rule.name)
		}
	}

	result.Reason = strings.Join(matched, ";")
	return result
}

// Rules returns the number of compiled rules; used by startup logging.
func (g *Gate) Rules() int {
	return len(g.rules)
}
