package mapper

import (
	"time"

	"ai-deskmate-be/internal/entity"
	"ai-deskmate-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type PrototypeMapper struct{}

func NewPrototypeMapper() *PrototypeMapper {
	return &PrototypeMapper{}
}

func (m *PrototypeMapper) ToEntity(p *model.PrototypeExample) *entity.PrototypeExample {
	if p == nil {
		return nil
	}

	var deletedAt *time.Time
	if p.DeletedAt.Valid {
		t := p.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		updatedAt = &t
	}

	var emb []float32
	if p.Embedding != nil {
		emb = p.Embedding.Slice()
	}

	return &entity.PrototypeExample{
		Id:        p.Id,
		Category:  p.Category,
		Text:      p.Text,
		Embedding: emb,
		Weight:    p.Weight,
		Active:    p.Active,
		CreatedAt: p.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
		IsDeleted: p.DeletedAt.Valid,
	}
}

func (m *PrototypeMapper) ToModel(p *entity.PrototypeExample) *model.PrototypeExample {
	if p == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if p.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *p.DeletedAt, Valid: true}
	} else if p.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if p.UpdatedAt != nil {
		updatedAt = *p.UpdatedAt
	}

	var emb *pgvector.Vector
	if len(p.Embedding) > 0 {
		v := pgvector.NewVector(p.Embedding)
		emb = &v
	}

	return &model.PrototypeExample{
		Id:        p.Id,
		Category:  p.Category,
		Text:      p.Text,
		Embedding: emb,
		Weight:    p.Weight,
		Active:    p.Active,
		CreatedAt: p.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
	}
}

func (m *PrototypeMapper) ToEntities(prototypes []*model.PrototypeExample) []*entity.PrototypeExample {
	entities := make([]*entity.PrototypeExample, len(prototypes))
	for i, p := range prototypes {
		entities[i] = m.ToEntity(p)
	}
	return entities
}

func (m *PrototypeMapper) ToModels(prototypes []*entity.PrototypeExample) []*model.PrototypeExample {
	models := make([]*model.PrototypeExample, len(prototypes))
	for i, p := range prototypes {
		models[i] = m.ToModel(p)
	}
	return models
}
