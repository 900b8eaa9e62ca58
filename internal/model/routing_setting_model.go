package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoutingSetting stores operator overrides of the file policy (key-value pairs)
type RoutingSetting struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Key         string         `gorm:"type:varchar(100);uniqueIndex;not null"`
	Value       string         `gorm:"type:text;not null"`
	ValueType   string         `gorm:"type:varchar(20);not null;default:'json'"`
	Description string         `gorm:"type:text"`
	UpdatedBy   *string        `gorm:"type:varchar(255)"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (RoutingSetting) TableName() string {
	return "routing_settings"
}
