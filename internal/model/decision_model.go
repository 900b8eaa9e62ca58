package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DecisionRecord rows are append-only; there is no update or delete path.
type DecisionRecord struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationId string         `gorm:"type:varchar(100);not null;index"`
	Query          string         `gorm:"type:text;not null"`
	EffectiveQuery string         `gorm:"type:text"`
	Mode           string         `gorm:"type:varchar(20);not null;index"`
	Category       *string        `gorm:"type:varchar(50);index"`
	Tier           string         `gorm:"type:varchar(20)"`
	Reason         string         `gorm:"type:varchar(50);index"`
	Candidates     datatypes.JSON `gorm:"type:jsonb"`
	Question       *string        `gorm:"type:text"`
	GateEffects    string         `gorm:"type:varchar(255)"`
	Degraded       bool           `gorm:"default:false"`
	LatencyMs      int            `gorm:"default:0"`
	CreatedAt      time.Time      `gorm:"autoCreateTime;index"`
}

func (DecisionRecord) TableName() string {
	return "decision_logs"
}
