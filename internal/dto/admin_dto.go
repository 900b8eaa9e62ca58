package dto

import (
	"time"

	"github.com/google/uuid"
)

// --- Auth ---

type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AdminLoginResponse struct {
	Token    string `json:"token"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// --- Operator Management ---

type OperatorResponse struct {
	Id          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

type CreateOperatorRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=admin viewer"`
}

type UpdateOperatorRequest struct {
	FullName string `json:"full_name"`
	Role     string `json:"role" validate:"omitempty,oneof=admin viewer"`
	Status   string `json:"status" validate:"omitempty,oneof=active disabled"`
}

// --- System Logs ---

// Log ids are content hashes from the file reader, not UUIDs.

type LogListRequest struct {
	Level  string `query:"level"`
	Limit  int    `query:"limit"`
	Offset int    `query:"offset"`
}
