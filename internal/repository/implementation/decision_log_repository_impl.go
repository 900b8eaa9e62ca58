package implementation

import (
	"context"
	"time"

	"ai-deskmate-be/internal/entity"
	"ai-deskmate-be/internal/mapper"
	"ai-deskmate-be/internal/model"
	"ai-deskmate-be/internal/repository/contract"
	"ai-deskmate-be/internal/repository/specification"

	"gorm.io/gorm"
)

type DecisionLogRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DecisionMapper
}

func NewDecisionLogRepository(db *gorm.DB) contract.DecisionLogRepository {
	return &DecisionLogRepositoryImpl{
		db:     db,
		mapper: mapper.NewDecisionMapper(),
	}
}

func (r *DecisionLogRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DecisionLogRepositoryImpl) Create(ctx context.Context, record *entity.DecisionRecord) error {
	m := r.mapper.ToModel(record)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*record = *r.mapper.ToEntity(m)
	return nil
}

func (r *DecisionLogRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DecisionRecord, error) {
	var models []*model.DecisionRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *DecisionLogRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.DecisionRecord{}).Count(&count).Error
	return count, err
}

func (r *DecisionLogRepositoryImpl) FindByConversation(ctx context.Context, conversationId string, limit int) ([]*entity.DecisionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var models []*model.DecisionRecord
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationId).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *DecisionLogRepositoryImpl) VolumeSince(ctx context.Context, since time.Time) ([]contract.CategoryVolume, error) {
	var rows []contract.CategoryVolume
	err := r.db.WithContext(ctx).
		Model(&model.DecisionRecord{}).
		Select("COALESCE(category, '') as category, mode, COUNT(*) as total").
		Where("created_at >= ?", since).
		Group("category, mode").
		Order("total DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
