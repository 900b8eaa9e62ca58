package entity

import (
	"time"

	"github.com/google/uuid"
)

// RoutingSetting stores operator overrides of the file policy (key-value,
// JSON-encoded). Present rows win over routing.yaml at startup.
type RoutingSetting struct {
	Id          uuid.UUID
	Key         string // e.g., "thresholds"
	Value       string // JSON-encoded value
	ValueType   string // "string", "number", "boolean", "json"
	Description string
	UpdatedBy   *string // operator email
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Setting keys
const (
	RoutingSettingKeyThresholds = "thresholds"
	RoutingSettingKeyGateRules  = "gate_rules"
)

// ValueType constants for RoutingSetting
const (
	RoutingSettingValueTypeString = "string"
	RoutingSettingValueTypeJSON   = "json"
)
