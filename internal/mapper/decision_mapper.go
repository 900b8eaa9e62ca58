package mapper

import (
	"encoding/json"

	"ai-deskmate-be/internal/entity"
	"ai-deskmate-be/internal/model"
	"ai-deskmate-be/pkg/routing"

	"gorm.io/datatypes"
)

type DecisionMapper struct{}

func NewDecisionMapper() *DecisionMapper {
	return &DecisionMapper{}
}

func (m *DecisionMapper) ToEntity(d *model.DecisionRecord) *entity.DecisionRecord {
	if d == nil {
		return nil
	}

	var candidates []routing.Candidate
	if len(d.Candidates) > 0 {
		// A row written by an older build may not parse; the audit record
		// is still useful without its candidate list.
		_ = json.Unmarshal(d.Candidates, &candidates)
	}

	return &entity.DecisionRecord{
		Id:             d.Id,
		ConversationId: d.ConversationId,
		Query:          d.Query,
		EffectiveQuery: d.EffectiveQuery,
		Mode:           d.Mode,
		Category:       d.Category,
		Tier:           d.Tier,
		Reason:         d.Reason,
		Candidates:     candidates,
		Question:       d.Question,
		GateEffects:    d.GateEffects,
		Degraded:       d.Degraded,
		LatencyMs:      d.LatencyMs,
		CreatedAt:      d.CreatedAt,
	}
}

func (m *DecisionMapper) ToModel(d *entity.DecisionRecord) *model.DecisionRecord {
	if d == nil {
		return nil
	}

	var candidates datatypes.JSON
	if len(d.Candidates) > 0 {
		if raw, err := json.Marshal(d.Candidates); err == nil {
			candidates = raw
		}
	}

	return &model.DecisionRecord{
		Id:             d.Id,
		ConversationId: d.ConversationId,
		Query:          d.Query,
		EffectiveQuery: d.EffectiveQuery,
		Mode:           d.Mode,
		Category:       d.Category,
		Tier:           d.Tier,
		Reason:         d.Reason,
		Candidates:     candidates,
		Question:       d.Question,
		GateEffects:    d.GateEffects,
		Degraded:       d.Degraded,
		LatencyMs:      d.LatencyMs,
		CreatedAt:      d.CreatedAt,
	}
}

func (m *DecisionMapper) ToEntities(records []*model.DecisionRecord) []*entity.DecisionRecord {
	entities := make([]*entity.DecisionRecord, len(records))
	for i, d := range records {
		entities[i] = m.ToEntity(d)
	}
	return entities
}
