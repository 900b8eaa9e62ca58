package specification

import (
	"time"

	"gorm.io/gorm"
)

type ByCategory struct {
	Category string
}

func (s ByCategory) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("category = ?", s.Category)
}

type ActiveOnly struct{}

func (s ActiveOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("active = ?", true)
}

type ByConversationId struct {
	ConversationId string
}

func (s ByConversationId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("conversation_id = ?", s.ConversationId)
}

type ByMode struct {
	Mode string
}

func (s ByMode) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("mode = ?", s.Mode)
}

type ByReason struct {
	Reason string
}

func (s ByReason) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("reason = ?", s.Reason)
}

type CreatedAfter struct {
	Time time.Time
}

func (s CreatedAfter) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("created_at >= ?", s.Time)
}

type ByEmail struct {
	Email string
}

func (s ByEmail) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("email = ?", s.Email)
}

// TextContains does a case-insensitive substring match on example text.
type TextContains struct {
	Needle string
}

func (s TextContains) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("text ILIKE ?", "%"+s.Needle+"%")
}
