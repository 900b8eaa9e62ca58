package arbiter

import (
	"encoding/json"
	"fmt"
	"strings"

	"ai-deskmate-be/pkg/routing"
)

// extractJSON pulls the first JSON object out of a model response, tolerating
// markdown fences and chatter around it.
func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}
	return response[startIdx : endIdx+1]
}

func candidateSet(candidates []routing.Candidate) map[routing.Category]bool {
	set := make(map[routing.Category]bool, len(candidates))
	for _, c := range candidates {
		set[c.Category] = true
	}
	return set
}

type arbitrationPayload struct {
	Category      string `json:"category"`
	Justification string `json:"justification"`
}

// parseArbitration validates the pick against the candidate set, not just
// the category enum: the model choosing a real category we did not offer is
// as wrong as inventing one.
func parseArbitration(response string, candidates []routing.Candidate) (ArbitrationResult, error) {
	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return ArbitrationResult{}, fmt.Errorf("no JSON found in response")
	}

	var payload arbitrationPayload
	if err := json.Unmarshal([]byte(jsonContent), &payload); err != nil {
		return ArbitrationResult{}, fmt.Errorf("JSON unmarshal failed: %w", err)
	}

	category, err := routing.ParseCategory(strings.TrimSpace(payload.Category))
	if err != nil {
		return ArbitrationResult{}, err
	}
	if !candidateSet(candidates)[category] {
		return ArbitrationResult{}, fmt.Errorf("category %s is not among the candidates", category)
	}

	justification := strings.TrimSpace(payload.Justification)
	if justification == "" {
		justification = "model pick"
	}

	return ArbitrationResult{Category: category, Justification: justification}, nil
}

type clarifyPayload struct {
	Question string `json:"question"`
	Options  []struct {
		Label    string `json:"label"`
		Category string `json:"category"`
	} `json:"options"`
}

// parseClarification keeps only options that map cleanly onto the candidate
// set, caps them, and appends the sentinel. Fewer than two usable options
// means the output is not a real clarification and the caller falls back.
func parseClarification(response string, candidates []routing.Candidate) (routing.Clarification, error) {
	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return routing.Clarification{}, fmt.Errorf("no JSON found in response")
	}

	var payload clarifyPayload
	if err := json.Unmarshal([]byte(jsonContent), &payload); err != nil {
		return routing.Clarification{}, fmt.Errorf("JSON unmarshal failed: %w", err)
	}

	question := strings.TrimSpace(payload.Question)
	if question == "" {
		return routing.Clarification{}, fmt.Errorf("empty question")
	}

	allowed := candidateSet(candidates)
	seen := make(map[routing.Category]bool)
	choices := make([]routing.ClarificationChoice, 0, maxSubstantiveChoices+1)

	for _, opt := range payload.Options {
		category, err := routing.ParseCategory(strings.TrimSpace(opt.Category))
		if err != nil || !allowed[category] || seen[category] {
			// Invented, unoffered, or duplicated category: drop the option.
			continue
		}
		label := strings.TrimSpace(opt.Label)
		if label == "" {
			label = category.Label()
		}
		seen[category] = true
		choices = append(choices, routing.ClarificationChoice{
			Id:       fmt.Sprintf("choice-%d", len(choices)+1),
			Label:    label,
			Category: &category,
		})
		if len(choices) == maxSubstantiveChoices {
			break
		}
	}

	if len(choices) < 2 {
		return routing.Clarification{}, fmt.Errorf("only %d usable options", len(choices))
	}

	return routing.Clarification{
		Question: question,
		Choices:  append(choices, routing.SentinelChoice()),
	}, nil
}
