package repository

import (
	"context"
	"errors"

	"medical-records/internal/domain/entity"
	domainRepo "medical-records/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type roleRepository struct{}

func NewRoleRepository() domainRepo.RoleRepository {
	return &roleRepository{}
}

func (r *roleRepository) FindByName(ctx context.Context, db *gorm.DB, name string) (*entity.Role, error) {
	var role entity.Role
	err := db.WithContext(ctx).Where("role_name = ?", name).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

// EnsureDefaults inserts the given roles, leaving existing rows untouched.
func (r *roleRepository) EnsureDefaults(ctx context.Context, db *gorm.DB, roles []entity.Role) error {
	if len(roles) == 0 {
		return nil
	}
	rows := make([]entity.Role, len(roles))
	copy(rows, roles)
	return db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}
