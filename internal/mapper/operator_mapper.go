package mapper

import (
	"ai-deskmate-be/internal/entity"
	"ai-deskmate-be/internal/model"
)

type OperatorMapper struct{}

func NewOperatorMapper() *OperatorMapper {
	return &OperatorMapper{}
}

func (m *OperatorMapper) ToEntity(o *model.Operator) *entity.Operator {
	if o == nil {
		return nil
	}
	return &entity.Operator{
		Id:           o.Id,
		Email:        o.Email,
		PasswordHash: o.PasswordHash,
		FullName:     o.FullName,
		Role:         entity.OperatorRole(o.Role),
		Status:       entity.OperatorStatus(o.Status),
		LastLoginAt:  o.LastLoginAt,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

func (m *OperatorMapper) ToModel(o *entity.Operator) *model.Operator {
	if o == nil {
		return nil
	}
	return &model.Operator{
		Id:           o.Id,
		Email:        o.Email,
		PasswordHash: o.PasswordHash,
		FullName:     o.FullName,
		Role:         string(o.Role),
		Status:       string(o.Status),
		LastLoginAt:  o.LastLoginAt,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

func (m *OperatorMapper) ToEntities(operators []*model.Operator) []*entity.Operator {
	entities := make([]*entity.Operator, len(operators))
	for i, o := range operators {
		entities[i] = m.ToEntity(o)
	}
	return entities
}
