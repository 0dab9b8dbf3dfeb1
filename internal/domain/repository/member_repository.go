package repository

import (
	"context"
	"time"

	"medical-records/internal/domain/entity"

	"gorm.io/gorm"
)

type MemberRepository interface {
	Create(ctx context.Context, db *gorm.DB, member *entity.Member) error
	FindByPublicID(ctx context.Context, db *gorm.DB, publicID string) (*entity.Member, error)
	// FindDetailByPublicID loads the member with every care record and file.
	FindDetailByPublicID(ctx context.Context, db *gorm.DB, publicID string) (*entity.Member, error)
	ExistsByPublicID(ctx context.Context, db *gorm.DB, publicID string) (bool, error)
	FindByNameAndDOB(ctx context.Context, db *gorm.DB, name string, dob time.Time) (*entity.Member, error)
	Update(ctx context.Context, db *gorm.DB, member *entity.Member) error
	Touch(ctx context.Context, db *gorm.DB, memberID uint) error
	Delete(ctx context.Context, db *gorm.DB, member *entity.Member) error
	Search(ctx context.Context, db *gorm.DB, query string) ([]entity.Member, error)
	Count(ctx context.Context, db *gorm.DB) (int64, error)
	CountCreatedSince(ctx context.Context, db *gorm.DB, since time.Time) (int64, error)
	FindRecent(ctx context.Context, db *gorm.DB, limit int) ([]entity.Member, error)
	FindAllWithRecords(ctx context.Context, db *gorm.DB) ([]entity.Member, error)
}
