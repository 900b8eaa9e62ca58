package implementation

import (
	"context"
	"errors"
	"time"

	"ai-deskmate-be/internal/entity"
	"ai-deskmate-be/internal/mapper"
	"ai-deskmate-be/internal/model"
	"ai-deskmate-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoutingSettingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.RoutingSettingMapper
}

func NewRoutingSettingRepository(db *gorm.DB) contract.RoutingSettingRepository {
	return &RoutingSettingRepositoryImpl{
		db:     db,
		mapper: mapper.NewRoutingSettingMapper(),
	}
}

func (r *RoutingSettingRepositoryImpl) Upsert(ctx context.Context, setting *entity.RoutingSetting) error {
	existing, err := r.FindByKey(ctx, setting.Key)
	if err != nil {
		return err
	}
	if existing != nil {
		setting.Id = existing.Id
		setting.CreatedAt = existing.CreatedAt
		setting.UpdatedAt = time.Now()
		m := r.mapper.ToModel(setting)
		return r.db.WithContext(ctx).Save(m).Error
	}

	if setting.Id == uuid.Nil {
		setting.Id = uuid.New()
	}
	m := r.mapper.ToModel(setting)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*setting = *r.mapper.ToEntity(m)
	return nil
}

func (r *RoutingSettingRepositoryImpl) FindByKey(ctx context.Context, key string) (*entity.RoutingSetting, error) {
	var m model.RoutingSetting
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *RoutingSettingRepositoryImpl) FindAll(ctx context.Context) ([]*entity.RoutingSetting, error) {
	var models []*model.RoutingSetting
	if err := r.db.WithContext(ctx).Order("key ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *RoutingSettingRepositoryImpl) DeleteByKey(ctx context.Context, key string) error {
	// Hard delete: a soft-deleted row would keep holding the unique key and
	// block the next Upsert.
	return r.db.WithContext(ctx).Unscoped().Where("key = ?", key).Delete(&model.RoutingSetting{}).Error
}
