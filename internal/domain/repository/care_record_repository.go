package repository

import (
	"context"

	"medical-records/internal/domain/entity"

	"gorm.io/gorm"
)

// CareRecordRepository persists one kind of care record; T is *entity.Doctor,
// *entity.Medication or *entity.Diagnosis. Finders return a nil T when no
// row matches.
type CareRecordRepository[T entity.CareRecord] interface {
	New(memberID uint, name string) T
	Create(ctx context.Context, db *gorm.DB, record T) error
	FindByID(ctx context.Context, db *gorm.DB, id uint) (T, error)
	FindByMemberAndName(ctx context.Context, db *gorm.DB, memberID uint, name string) (T, error)
	Update(ctx context.Context, db *gorm.DB, record T) error
	Delete(ctx context.Context, db *gorm.DB, record T) error
}
