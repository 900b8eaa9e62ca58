package contract

import (
	"context"

	"ai-deskmate-be/internal/entity"
	"ai-deskmate-be/internal/repository/specification"

	"github.com/google/uuid"
)

type OperatorRepository interface {
	Create(ctx context.Context, operator *entity.Operator) error
	Update(ctx context.Context, operator *entity.Operator) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Operator, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Operator, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
