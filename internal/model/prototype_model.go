package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type PrototypeExample struct {
	Id       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Category string    `gorm:"type:varchar(50);not null;index"`
	Text     string    `gorm:"type:text;not null"`
	// Pointer so freshly created rows insert as NULL; the refresh worker
	// fills the vector in before the row can enter a snapshot.
	Embedding *pgvector.Vector `gorm:"type:vector(768)"` // nomic-embed-text and text-embedding-004 both use 768 dimensions
	Weight    int              `gorm:"default:1"`
	Active    bool             `gorm:"default:true;index"`
	CreatedAt time.Time        `gorm:"autoCreateTime"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt   `gorm:"index"`
}

func (PrototypeExample) TableName() string {
	return "prototype_examples"
}
