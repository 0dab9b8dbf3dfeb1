package repository

import (
	"context"
	"errors"

	"medical-records/internal/domain/entity"
	domainRepo "medical-records/internal/domain/repository"

	"gorm.io/gorm"
)

// careRecordPtr constrains PT to the pointer type of a care record struct.
type careRecordPtr[T any] interface {
	*T
	entity.CareRecord
}

type careRecordRepository[T any, PT careRecordPtr[T]] struct {
	build func(memberID uint, name string) PT
}

func NewDoctorRepository() domainRepo.CareRecordRepository[*entity.Doctor] {
	return &careRecordRepository[entity.Doctor, *entity.Doctor]{
		build: func(memberID uint, name string) *entity.Doctor {
			return &entity.Doctor{MemberID: memberID, Name: name}
		},
	}
}

func NewMedicationRepository() domainRepo.CareRecordRepository[*entity.Medication] {
	return &careRecordRepository[entity.Medication, *entity.Medication]{
		build: func(memberID uint, name string) *entity.Medication {
			return &entity.Medication{MemberID: memberID, Name: name}
		},
	}
}

func NewDiagnosisRepository() domainRepo.CareRecordRepository[*entity.Diagnosis] {
	return &careRecordRepository[entity.Diagnosis, *entity.Diagnosis]{
		build: func(memberID uint, name string) *entity.Diagnosis {
			return &entity.Diagnosis{MemberID: memberID, Name: name}
		},
	}
}

func (r *careRecordRepository[T, PT]) New(memberID uint, name string) PT {
	return r.build(memberID, name)
}

func (r *careRecordRepository[T, PT]) Create(ctx context.Context, db *gorm.DB, record PT) error {
	return db.WithContext(ctx).Create(record).Error
}

func (r *careRecordRepository[T, PT]) FindByID(ctx context.Context, db *gorm.DB, id uint) (PT, error) {
	var record T
	err := db.WithContext(ctx).First(&record, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return PT(&record), nil
}

func (r *careRecordRepository[T, PT]) FindByMemberAndName(ctx context.Context, db *gorm.DB, memberID uint, name string) (PT, error) {
	var record T
	err := db.WithContext(ctx).Where("member_id = ? AND name = ?", memberID, name).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return PT(&record), nil
}

func (r *careRecordRepository[T, PT]) Update(ctx context.Context, db *gorm.DB, record PT) error {
	return db.WithContext(ctx).Save(record).Error
}

func (r *careRecordRepository[T, PT]) Delete(ctx context.Context, db *gorm.DB, record PT) error {
	return db.WithContext(ctx).Delete(record).Error
}
