package repository

import (
	"context"

	"medical-records/internal/domain/entity"

	"gorm.io/gorm"
)

type AuditLogRepository interface {
	Create(ctx context.Context, db *gorm.DB, log *entity.AuditLog) error
	// FindAll returns one page of matching entries, newest first, and the
	// total number of matches.
	FindAll(ctx context.Context, db *gorm.DB, filter *entity.AuditLogFilter, limit, offset int) ([]entity.AuditLog, int64, error)
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*entity.AuditLog, error)
}
