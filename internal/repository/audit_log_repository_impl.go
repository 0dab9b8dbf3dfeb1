package repository

import (
	"context"
	"errors"
	"strings"

	"medical-records/internal/domain/entity"
	domainRepo "medical-records/internal/domain/repository"

	"gorm.io/gorm"
)

type auditLogRepository struct{}

func NewAuditLogRepository() domainRepo.AuditLogRepository {
	return &auditLogRepository{}
}

func (r *auditLogRepository) Create(ctx context.Context, db *gorm.DB, log *entity.AuditLog) error {
	return db.WithContext(ctx).Omit("User").Create(log).Error
}

func (r *auditLogRepository) FindAll(ctx context.Context, db *gorm.DB, filter *entity.AuditLogFilter, limit, offset int) ([]entity.AuditLog, int64, error) {
	var total int64
	if err := db.WithContext(ctx).Model(&entity.AuditLog{}).Scopes(auditLogFilter(filter)).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []entity.AuditLog
	err := db.WithContext(ctx).
		Scopes(auditLogFilter(filter)).
		Preload("User.Role").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

func auditLogFilter(filter *entity.AuditLogFilter) func(*gorm.DB) *gorm.DB {
	return func(query *gorm.DB) *gorm.DB {
		if filter == nil {
			return query
		}
		if filter.Action != "" {
			if strings.HasSuffix(filter.Action, ".") {
				query = query.Where(`action LIKE ? ESCAPE '\'`, escapeLike(filter.Action)+"%")
			} else {
				query = query.Where("action = ?", filter.Action)
			}
		}
		if filter.Entity != "" {
			query = query.Where("entity = ?", filter.Entity)
		}
		if filter.EntityID != "" {
			query = query.Where("entity_id = ?", filter.EntityID)
		}
		if filter.UserID != "" {
			query = query.Where("user_id = ?", filter.UserID)
		}
		return query
	}
}

func (r *auditLogRepository) FindByID(ctx context.Context, db *gorm.DB, id int64) (*entity.AuditLog, error) {
	var log entity.AuditLog
	err := db.WithContext(ctx).Preload("User.Role").First(&log, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &log, nil
}
