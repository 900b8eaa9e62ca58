// FILE: internal/entity/operator_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type OperatorRole string
type OperatorStatus string

const (
	// OperatorRoleAdmin can change prototypes, thresholds and operators.
	OperatorRoleAdmin OperatorRole = "admin"
	// OperatorRoleViewer gets read-only access to decisions and config.
	OperatorRoleViewer OperatorRole = "viewer"

	OperatorStatusActive   OperatorStatus = "active"
	OperatorStatusDisabled OperatorStatus = "disabled"
)

// Operator is a service-desk staff account for the admin dashboard. Patrons
// talking to the assistant are never operators; they are identified only by
// conversation id.
type Operator struct {
	Id           uuid.UUID
	Email        string
	PasswordHash *string
	FullName     string
	Role         OperatorRole
	Status       OperatorStatus
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
