package mapper

import (
	"ai-deskmate-be/internal/entity"
	"ai-deskmate-be/internal/model"
)

type RoutingSettingMapper struct{}

func NewRoutingSettingMapper() *RoutingSettingMapper {
	return &RoutingSettingMapper{}
}

func (m *RoutingSettingMapper) ToEntity(s *model.RoutingSetting) *entity.RoutingSetting {
	if s == nil {
		return nil
	}
	return &entity.RoutingSetting{
		Id:          s.Id,
		Key:         s.Key,
		Value:       s.Value,
		ValueType:   s.ValueType,
		Description: s.Description,
		UpdatedBy:   s.UpdatedBy,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func (m *RoutingSettingMapper) ToModel(s *entity.RoutingSetting) *model.RoutingSetting {
	if s == nil {
		return nil
	}
	return &model.RoutingSetting{
		Id:          s.Id,
		Key:         s.Key,
		Value:       s.Value,
		ValueType:   s.ValueType,
		Description: s.Description,
		UpdatedBy:   s.UpdatedBy,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func (m *RoutingSettingMapper) ToEntities(settings []*model.RoutingSetting) []*entity.RoutingSetting {
	entities := make([]*entity.RoutingSetting, len(settings))
	for i, s := range settings {
		entities[i] = m.ToEntity(s)
	}
	return entities
}
