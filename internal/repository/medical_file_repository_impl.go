package repository

import (
	"context"
	"errors"

	"medical-records/internal/domain/entity"
	domainRepo "medical-records/internal/domain/repository"

	"gorm.io/gorm"
)

type medicalFileRepository struct{}

func NewMedicalFileRepository() domainRepo.MedicalFileRepository {
	return &medicalFileRepository{}
}

func (r *medicalFileRepository) Create(ctx context.Context, db *gorm.DB, file *entity.MedicalFile) error {
	return db.WithContext(ctx).Omit("Uploader").Create(file).Error
}

func (r *medicalFileRepository) FindByID(ctx context.Context, db *gorm.DB, id uint) (*entity.MedicalFile, error) {
	var file entity.MedicalFile
	err := db.WithContext(ctx).First(&file, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &file, nil
}

func (r *medicalFileRepository) FindByMemberID(ctx context.Context, db *gorm.DB, memberID uint) ([]entity.MedicalFile, error) {
	var files []entity.MedicalFile
	err := db.WithContext(ctx).Where("member_id = ?", memberID).Order("id ASC").Find(&files).Error
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (r *medicalFileRepository) Delete(ctx context.Context, db *gorm.DB, file *entity.MedicalFile) error {
	return db.WithContext(ctx).Delete(&entity.MedicalFile{}, file.ID).Error
}
