package contract

import (
	"context"

	"ai-deskmate-be/internal/entity"
)

type RoutingSettingRepository interface {
	// Upsert writes by key, creating the row on first use.
	Upsert(ctx context.Context, setting *entity.RoutingSetting) error
	FindByKey(ctx context.Context, key string) (*entity.RoutingSetting, error)
	FindAll(ctx context.Context) ([]*entity.RoutingSetting, error)
	DeleteByKey(ctx context.Context, key string) error
}
