package unitofwork

import (
	"context"

	"ai-deskmate-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	PrototypeRepository() contract.PrototypeRepository
	DecisionLogRepository() contract.DecisionLogRepository
	OperatorRepository() contract.OperatorRepository
	RoutingSettingRepository() contract.RoutingSettingRepository
}
