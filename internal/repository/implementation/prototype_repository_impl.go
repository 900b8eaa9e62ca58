package implementation

import (
	"context"
	"errors"

	"ai-deskmate-be/internal/entity"
	"ai-deskmate-be/internal/mapper"
	"ai-deskmate-be/internal/model"
	"ai-deskmate-be/internal/repository/contract"
	"ai-deskmate-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type PrototypeRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PrototypeMapper
}

func NewPrototypeRepository(db *gorm.DB) contract.PrototypeRepository {
	return &PrototypeRepositoryImpl{
		db:     db,
		mapper: mapper.NewPrototypeMapper(),
	}
}

func (r *PrototypeRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *PrototypeRepositoryImpl) Create(ctx context.Context, example *entity.PrototypeExample) error {
	m := r.mapper.ToModel(example)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*example = *r.mapper.ToEntity(m)
	return nil
}

func (r *PrototypeRepositoryImpl) CreateBulk(ctx context.Context, examples []*entity.PrototypeExample) error {
	if len(examples) == 0 {
		return nil
	}
	models := make([]*model.PrototypeExample, len(examples))
	for i, e := range examples {
		models[i] = r.mapper.ToModel(e)
	}

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	for i, m := range models {
		*examples[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *PrototypeRepositoryImpl) Update(ctx context.Context, example *entity.PrototypeExample) error {
	m := r.mapper.ToModel(example)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*example = *r.mapper.ToEntity(m)
	return nil
}

func (r *PrototypeRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.PrototypeExample{}, id).Error
}

func (r *PrototypeRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PrototypeExample, error) {
	var m model.PrototypeExample
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *PrototypeRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PrototypeExample, error) {
	var models []*model.PrototypeExample
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *PrototypeRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.PrototypeExample{}).Count(&count).Error
	return count, err
}

func (r *PrototypeRepositoryImpl) FindActive(ctx context.Context) ([]*entity.PrototypeExample, error) {
	var models []*model.PrototypeExample
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("category ASC, weight DESC, created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *PrototypeRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]*contract.ScoredPrototype, error) {
	if limit <= 0 {
		limit = 10
	}

	// Cosine distance in pgvector is 1 - cosine_similarity, so
	// 1 - (embedding <=> query_vector) recovers the similarity.
	type result struct {
		model.PrototypeExample
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("prototype_examples").
		Select("prototype_examples.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("active = ?", true).
		// Unembedded rows have no similarity and would sort first as NULL.
		Where("embedding IS NOT NULL").
		Where("deleted_at IS NULL").
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredPrototype, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredPrototype{
			Example:    r.mapper.ToEntity(&res.PrototypeExample),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
