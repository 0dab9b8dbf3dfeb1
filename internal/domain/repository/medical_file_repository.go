package repository

import (
	"context"

	"medical-records/internal/domain/entity"

	"gorm.io/gorm"
)

type MedicalFileRepository interface {
	Create(ctx context.Context, db *gorm.DB, file *entity.MedicalFile) error
	FindByID(ctx context.Context, db *gorm.DB, id uint) (*entity.MedicalFile, error)
	FindByMemberID(ctx context.Context, db *gorm.DB, memberID uint) ([]entity.MedicalFile, error)
	Delete(ctx context.Context, db *gorm.DB, file *entity.MedicalFile) error
}
