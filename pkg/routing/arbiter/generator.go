// Package arbiter resolves the two uncertain regimes with one model call
// each: arbitration picks between close candidates without bothering the
// user, clarification generation writes the question we ask when guessing is
// not safe. The model is a fallible remote dependency, not an oracle: every
// call carries a hard timeout, output is schema-validated at this boundary,
// and both paths have deterministic fallbacks that need no network at all.
package arbiter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-deskmate-be/pkg/llm"
	"ai-deskmate-be/pkg/routing"
)

const (
	// DefaultArbitrationTimeout bounds the pick-one call.
	DefaultArbitrationTimeout = 8 * time.Second
	// DefaultClarifyTimeout bounds the question-writing call.
	DefaultClarifyTimeout = 10 * time.Second

	// maxPromptCandidates is how many candidates the model sees. More than
	// three close categories means the matcher told us nothing anyway.
	maxPromptCandidates = 3
	// maxSubstantiveChoices caps clarification options before the sentinel.
	maxSubstantiveChoices = 3
)

// Generator owns the model interaction for both uncertain regimes.
type Generator struct {
	provider           llm.LLMProvider
	arbitrationTimeout time.Duration
	clarifyTimeout     time.Duration
	model              string
}

// New builds a generator. model overrides the provider's default chat model
// for these calls; empty keeps the default.
func New(provider llm.LLMProvider, arbitrationTimeout, clarifyTimeout time.Duration, model string) *Generator {
	if arbitrationTimeout <= 0 {
		arbitrationTimeout = DefaultArbitrationTimeout
	}
	if clarifyTimeout <= 0 {
		clarifyTimeout = DefaultClarifyTimeout
	}
	return &Generator{
		provider:           provider,
		arbitrationTimeout: arbitrationTimeout,
		clarifyTimeout:     clarifyTimeout,
		model:              model,
	}
}

func (g *Generator) options(maxTokens int) []llm.Option {
	opts := []llm.Option{llm.WithTemperature(0.0), llm.WithMaxTokens(maxTokens)}
	if g.model != "" {
		opts = append(opts, llm.WithModel(g.model))
	}
	return opts
}

// ArbitrationResult is a committed category pick. Fallback marks that the
// model did not cooperate and top-1 was used instead.
type ArbitrationResult struct {
	Category      routing.Category
	Justification string
	Fallback      bool
}

// Arbitrate asks the model to pick the single best category, constrained to
// the supplied candidates. Any failure (transport, timeout, malformed JSON,
// category outside the set) falls back to top-1; the caller records the
// result as low confidence in that case.
func (g *Generator) Arbitrate(ctx context.Context, query string, candidates []routing.Candidate) ArbitrationResult {
	if len(candidates) == 0 {
		// Nothing to pick between; the escape category is the only safe exit.
		return ArbitrationResult{
			Category:      routing.CategoryHumanHandoff,
			Justification: "no candidates to arbitrate",
			Fallback:      true,
		}
	}

	shown := candidates
	if len(shown) > maxPromptCandidates {
		shown = shown[:maxPromptCandidates]
	}

	ctx, cancel := context.WithTimeout(ctx, g.arbitrationTimeout)
	defer cancel()

	response, err := g.provider.Generate(ctx, buildArbitrationPrompt(query, shown), g.options(200)...)
	if err != nil {
		return fallbackArbitration(candidates, fmt.Sprintf("model unavailable: %v", err))
	}

	pick, err := parseArbitration(response, shown)
	if err != nil {
		return fallbackArbitration(candidates, fmt.Sprintf("unusable model output: %v", err))
	}
	return pick
}

func fallbackArbitration(candidates []routing.Candidate, why string) ArbitrationResult {
	return ArbitrationResult{
		Category:      candidates[0].Category,
		Justification: why,
		Fallback:      true,
	}
}

// ClarifyResult carries the finished question. Fallback marks the
// deterministic template path.
type ClarifyResult struct {
	Clarification routing.Clarification
	Fallback      bool
}

// Clarify produces one clarifying question with 2-3 labeled choices drawn
// only from the supplied candidates, plus the "none of the above" sentinel.
// The sentinel is appended here, after validation, never requested from the
// model: no model output can omit or reword it. Fewer than two candidates
// leave the model nothing to choose between, so the question is built from
// the generic desk triage categories without any model call.
func (g *Generator) Clarify(ctx context.Context, query string, candidates []routing.Candidate) ClarifyResult {
	if len(candidates) < 2 {
		return ClarifyResult{Clarification: genericClarification(), Fallback: true}
	}

	shown := candidates
	if len(shown) > maxPromptCandidates {
		shown = shown[:maxPromptCandidates]
	}

	ctx, cancel := context.WithTimeout(ctx, g.clarifyTimeout)
	defer cancel()

	response, err := g.provider.Generate(ctx, buildClarifyPrompt(query, shown), g.options(400)...)
	if err != nil {
		return ClarifyResult{Clarification: templateClarification(shown), Fallback: true}
	}

	clarification, err := parseClarification(response, shown)
	if err != nil {
		return ClarifyResult{Clarification: templateClarification(shown), Fallback: true}
	}
	return ClarifyResult{Clarification: clarification}
}

// templateClarification builds the no-model fallback question from candidate
// labels.
func templateClarification(candidates []routing.Candidate) routing.Clarification {
	choices := make([]routing.ClarificationChoice, 0, maxSubstantiveChoices+1)
	for i, c := range candidates {
		if i == maxSubstantiveChoices {
			break
		}
		category := c.Category
		choices = append(choices, routing.ClarificationChoice{
			Id:       fmt.Sprintf("choice-%d", i+1),
			Label:    category.Label(),
			Category: &category,
		})
	}
	return routing.Clarification{
		Question: "I want to point you the right way. Which of these is closest to what you need?",
		Choices:  append(choices, routing.SentinelChoice()),
	}
}

// genericClarification is the zero-evidence fallback: standard desk triage.
func genericClarification() routing.Clarification {
	triage := []routing.Category{
		routing.CategoryDocumentSearch,
		routing.CategoryOpeningHours,
		routing.CategoryHumanHandoff,
	}
	choices := make([]routing.ClarificationChoice, 0, len(triage)+1)
	for i, category := range triage {
		category := category
		choices = append(choices, routing.ClarificationChoice{
			Id:       fmt.Sprintf("choice-%d", i+1),
			Label:    category.Label(),
			Category: &category,
		})
	}
	return routing.Clarification{
		Question: "I did not quite catch that. What do you need help with?",
		Choices:  append(choices, routing.SentinelChoice()),
	}
}

func buildArbitrationPrompt(query string, candidates []routing.Candidate) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You are a routing arbiter for a library front desk assistant.\n")
	prompt.WriteString("Pick the ONE category that best matches the patron's request.\n")
	prompt.WriteString("You MUST pick from the listed candidates. Do NOT invent categories.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("<query>\n")
	prompt.WriteString(query)
	prompt.WriteString("\n</query>\n\n")

	prompt.WriteString("<candidates>\n")
	for i, c := range candidates {
		prompt.WriteString(fmt.Sprintf("%d. id=%s score=%.2f example=%q\n", i+1, c.Category, c.Score, c.MatchedText))
	}
	prompt.WriteString("</candidates>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON:\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"category\": \"one of the candidate ids\",\n")
	prompt.WriteString("  \"justification\": \"one short sentence\"\n")
	prompt.WriteString("}\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

func buildClarifyPrompt(query string, candidates []routing.Candidate) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You write one short clarifying question for a library front desk assistant.\n")
	prompt.WriteString("The patron's request was ambiguous. Offer 2-3 labeled choices.\n")
	prompt.WriteString("Every choice MUST map to one of the listed candidate ids.\n")
	prompt.WriteString("Do NOT invent categories, services, or commitments. Do NOT add an escape option;\n")
	prompt.WriteString("the system appends its own.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("<query>\n")
	prompt.WriteString(query)
	prompt.WriteString("\n</query>\n\n")

	prompt.WriteString("<candidates>\n")
	for i, c := range candidates {
		prompt.WriteString(fmt.Sprintf("%d. id=%s example=%q\n", i+1, c.Category, c.MatchedText))
	}
	prompt.WriteString("</candidates>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON:\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"question\": \"one sentence addressed to the patron\",\n")
	prompt.WriteString("  \"options\": [\n")
	prompt.WriteString("    {\"label\": \"short button text\", \"category\": \"candidate id\"}\n")
	prompt.WriteString("  ]\n")
	prompt.WriteString("}\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}
