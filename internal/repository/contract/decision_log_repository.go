package contract

import (
	"context"
	"time"

	"ai-deskmate-be/internal/entity"
	"ai-deskmate-be/internal/repository/specification"
)

// CategoryVolume is one row of the per-category decision tally.
type CategoryVolume struct {
	Category string
	Mode     string
	Total    int64
}

type DecisionLogRepository interface {
	Create(ctx context.Context, record *entity.DecisionRecord) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DecisionRecord, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	FindByConversation(ctx context.Context, conversationId string, limit int) ([]*entity.DecisionRecord, error)
	// VolumeSince aggregates decisions per category and mode for dashboards.
	VolumeSince(ctx context.Context, since time.Time) ([]CategoryVolume, error)
}
