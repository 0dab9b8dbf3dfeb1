package repository

import (
	"context"

	"medical-records/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, db *gorm.DB, user *entity.User) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.User, error)
	FindByUsername(ctx context.Context, db *gorm.DB, username string) (*entity.User, error)
	FindAll(ctx context.Context, db *gorm.DB) ([]entity.User, error)
	Count(ctx context.Context, db *gorm.DB) (int64, error)
	ExistsWithRole(ctx context.Context, db *gorm.DB, roleID int) (bool, error)
	Update(ctx context.Context, db *gorm.DB, user *entity.User) error
}
