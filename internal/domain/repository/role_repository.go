package repository

import (
	"context"

	"medical-records/internal/domain/entity"

	"gorm.io/gorm"
)

type RoleRepository interface {
	FindByName(ctx context.Context, db *gorm.DB, name string) (*entity.Role, error)
	EnsureDefaults(ctx context.Context, db *gorm.DB, roles []entity.Role) error
}
