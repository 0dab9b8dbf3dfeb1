package dto

import (
	"time"

	"medical-records/internal/domain/entity"
)

// Request DTOs

// AuditLogQuery is decoded from the query string of the audit log listing.
type AuditLogQuery struct {
	Action   string
	Entity   string
	EntityID string
	UserID   string `validate:"omitempty,uuid"`
	Page     int    `validate:"gte=0"`
	Limit    int    `validate:"gte=0,lte=200"`
}

// Response DTOs

type AuditLogResponse struct {
	ID        int64         `json:"id"`
	User      *UserResponse `json:"user,omitempty"`
	Action    string        `json:"action"`
	Entity    string        `json:"entity"`
	EntityID  string        `json:"entity_id"`
	Metadata  entity.JSON   `json:"metadata,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

type AuditLogListResponse struct {
	Logs  []AuditLogResponse `json:"logs"`
	Page  int                `json:"-"`
	Limit int                `json:"-"`
	Total int64              `json:"total"`
}
