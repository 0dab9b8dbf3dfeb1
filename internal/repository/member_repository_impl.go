package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"medical-records/internal/domain/entity"
	domainRepo "medical-records/internal/domain/repository"

	"gorm.io/gorm"
)

type memberRepository struct{}

func NewMemberRepository() domainRepo.MemberRepository {
	return &memberRepository{}
}

func (r *memberRepository) Create(ctx context.Context, db *gorm.DB, member *entity.Member) error {
	return db.WithContext(ctx).Omit("Doctors", "Medications", "Diagnoses", "MedicalFiles").Create(member).Error
}

func (r *memberRepository) FindByPublicID(ctx context.Context, db *gorm.DB, publicID string) (*entity.Member, error) {
	var member entity.Member
	err := db.WithContext(ctx).Where("member_id = ?", publicID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) FindDetailByPublicID(ctx context.Context, db *gorm.DB, publicID string) (*entity.Member, error) {
	var member entity.Member
	err := db.WithContext(ctx).
		Preload("Doctors", orderByID).
		Preload("Medications", orderByID).
		Preload("Diagnoses", orderByID).
		Preload("MedicalFiles", func(db *gorm.DB) *gorm.DB { return db.Order("uploaded_at DESC, id DESC") }).
		Where("member_id = ?", publicID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) ExistsByPublicID(ctx context.Context, db *gorm.DB, publicID string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&entity.Member{}).Where("member_id = ?", publicID).Count(&count).Error
	return count > 0, err
}

func (r *memberRepository) FindByNameAndDOB(ctx context.Context, db *gorm.DB, name string, dob time.Time) (*entity.Member, error) {
	var member entity.Member
	err := db.WithContext(ctx).Where("name = ? AND date_of_birth = ?", name, dob).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) Update(ctx context.Context, db *gorm.DB, member *entity.Member) error {
	return db.WithContext(ctx).Omit("Doctors", "Medications", "Diagnoses", "MedicalFiles").Save(member).Error
}

func (r *memberRepository) Touch(ctx context.Context, db *gorm.DB, memberID uint) error {
	return db.WithContext(ctx).Model(&entity.Member{}).Where("id = ?", memberID).Update("updated_at", time.Now()).Error
}

func (r *memberRepository) Delete(ctx context.Context, db *gorm.DB, member *entity.Member) error {
	return db.WithContext(ctx).Delete(&entity.Member{}, member.ID).Error
}

func (r *memberRepository) Search(ctx context.Context, db *gorm.DB, query string) ([]entity.Member, error) {
	namePattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	idPattern := "%" + escapeLike(strings.ToUpper(query)) + "%"

	var members []entity.Member
	err := db.WithContext(ctx).
		Where(`LOWER(name) LIKE ? ESCAPE '\' OR member_id LIKE ? ESCAPE '\'`, namePattern, idPattern).
		Order("name ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *memberRepository) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&entity.Member{}).Count(&count).Error
	return count, err
}

func (r *memberRepository) CountCreatedSince(ctx context.Context, db *gorm.DB, since time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&entity.Member{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}

func (r *memberRepository) FindRecent(ctx context.Context, db *gorm.DB, limit int) ([]entity.Member, error) {
	var members []entity.Member
	err := db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *memberRepository) FindAllWithRecords(ctx context.Context, db *gorm.DB) ([]entity.Member, error) {
	var members []entity.Member
	err := db.WithContext(ctx).
		Preload("Doctors", orderByID).
		Preload("Medications", orderByID).
		Preload("Diagnoses", orderByID).
		Order("id ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
