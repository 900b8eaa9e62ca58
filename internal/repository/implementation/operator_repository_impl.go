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
	"gorm.io/gorm"
)

type OperatorRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.OperatorMapper
}

func NewOperatorRepository(db *gorm.DB) contract.OperatorRepository {
	return &OperatorRepositoryImpl{
		db:     db,
		mapper: mapper.NewOperatorMapper(),
	}
}

func (r *OperatorRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *OperatorRepositoryImpl) Create(ctx context.Context, operator *entity.Operator) error {
	m := r.mapper.ToModel(operator)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*operator = *r.mapper.ToEntity(m)
	return nil
}

func (r *OperatorRepositoryImpl) Update(ctx context.Context, operator *entity.Operator) error {
	m := r.mapper.ToModel(operator)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*operator = *r.mapper.ToEntity(m)
	return nil
}

func (r *OperatorRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Operator{}, id).Error
}

func (r *OperatorRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Operator, error) {
	var m model.Operator
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *OperatorRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Operator, error) {
	var models []*model.Operator
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *OperatorRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Operator{}).Count(&count).Error
	return count, err
}
