package usecase

import (
	"context"
	"errors"
	"strings"

	"medical-records/internal/converter"
	"medical-records/internal/delivery/dto"
	"medical-records/internal/domain/entity"
	"medical-records/internal/domain/repository"
	"medical-records/internal/service"
	"medical-records/pkg/jwt"
	"medical-records/pkg/memberid"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrInvalidCareKind         = errors.New("unknown record type")
	ErrCareRecordNameRequired  = errors.New("name is required")
	ErrCareRecordNotFound      = errors.New("record not found for this member")
	ErrCareRecordAlreadyExists = errors.New("record already exists for this member")
	ErrCareRecordNameConflict  = errors.New("another record with this name already exists for this member")
)

// CareRecordUsecase manages the doctors, medications and diagnoses of a
// member. Every change touches the member's updated_at in the same
// transaction.
type CareRecordUsecase interface {
	Add(ctx context.Context, actor jwt.Identity, publicID string, kind entity.CareKind, name string) (*dto.CareRecordResponse, error)
	Rename(ctx context.Context, actor jwt.Identity, publicID string, kind entity.CareKind, recordID uint, name string) (*dto.CareRecordResponse, error)
	Delete(ctx context.Context, actor jwt.Identity, publicID string, kind entity.CareKind, recordID uint) error
}

type careRecordUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	memberRepo   repository.MemberRepository
	stores       map[entity.CareKind]careRecordStore
	auditService service.AuditService
}

func NewCareRecordUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	memberRepo repository.MemberRepository,
	doctorRepo repository.CareRecordRepository[*entity.Doctor],
	medicationRepo repository.CareRecordRepository[*entity.Medication],
	diagnosisRepo repository.CareRecordRepository[*entity.Diagnosis],
	auditService service.AuditService,
) CareRecordUsecase {
	return &careRecordUsecase{
		db:         db,
		log:        log,
		memberRepo: memberRepo,
		stores: map[entity.CareKind]careRecordStore{
			entity.CareKindDoctor:     &typedCareRecordStore[*entity.Doctor]{repo: doctorRepo},
			entity.CareKindMedication: &typedCareRecordStore[*entity.Medication]{repo: medicationRepo},
			entity.CareKindDiagnosis:  &typedCareRecordStore[*entity.Diagnosis]{repo: diagnosisRepo},
		},
		auditService: auditService,
	}
}

// careRecordStore hides the record type behind entity.CareRecord so the
// usecase can dispatch on CareKind.
type careRecordStore interface {
	create(ctx context.Context, tx *gorm.DB, memberID uint, name string) (entity.CareRecord, error)
	find(ctx context.Context, tx *gorm.DB, id uint) (entity.CareRecord, error)
	findByName(ctx context.Context, tx *gorm.DB, memberID uint, name string) (entity.CareRecord, error)
	update(ctx context.Context, tx *gorm.DB, record entity.CareRecord) error
	remove(ctx context.Context, tx *gorm.DB, record entity.CareRecord) error
}

type typedCareRecordStore[T interface {
	comparable
	entity.CareRecord
}] struct {
	repo repository.CareRecordRepository[T]
}

func (s *typedCareRecordStore[T]) create(ctx context.Context, tx *gorm.DB, memberID uint, name string) (entity.CareRecord, error) {
	record := s.repo.New(memberID, name)
	if err := s.repo.Create(ctx, tx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *typedCareRecordStore[T]) find(ctx context.Context, tx *gorm.DB, id uint) (entity.CareRecord, error) {
	return s.wrap(s.repo.FindByID(ctx, tx, id))
}

func (s *typedCareRecordStore[T]) findByName(ctx context.Context, tx *gorm.DB, memberID uint, name string) (entity.CareRecord, error) {
	return s.wrap(s.repo.FindByMemberAndName(ctx, tx, memberID, name))
}

func (s *typedCareRecordStore[T]) update(ctx context.Context, tx *gorm.DB, record entity.CareRecord) error {
	return s.repo.Update(ctx, tx, record.(T))
}

func (s *typedCareRecordStore[T]) remove(ctx context.Context, tx *gorm.DB, record entity.CareRecord) error {
	return s.repo.Delete(ctx, tx, record.(T))
}

// wrap turns a typed nil pointer into an untyped nil interface.
func (s *typedCareRecordStore[T]) wrap(record T, err error) (entity.CareRecord, error) {
	var zero T
	if err != nil || record == zero {
		return nil, err
	}
	return record, nil
}

func (u *careRecordUsecase) store(kind entity.CareKind) (careRecordStore, error) {
	s, ok := u.stores[kind]
	if !ok {
		return nil, ErrInvalidCareKind
	}
	return s, nil
}

func (u *careRecordUsecase) findMember(ctx context.Context, tx *gorm.DB, publicID string) (*entity.Member, error) {
	member, err := u.memberRepo.FindByPublicID(ctx, tx, memberid.Normalize(publicID))
	if err != nil {
		u.log.Warnf("Failed to find member: %+v", err)
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	return member, nil
}

// findOwned loads a record and checks that it belongs to member.
func (u *careRecordUsecase) findOwned(ctx context.Context, tx *gorm.DB, s careRecordStore, member *entity.Member, recordID uint) (entity.CareRecord, error) {
	record, err := s.find(ctx, tx, recordID)
	if err != nil {
		u.log.Warnf("Failed to find record: %+v", err)
		return nil, err
	}
	if record == nil || record.GetMemberID() != member.ID {
		return nil, ErrCareRecordNotFound
	}
	return record, nil
}

func (u *careRecordUsecase) Add(ctx context.Context, actor jwt.Identity, publicID string, kind entity.CareKind, name string) (*dto.CareRecordResponse, error) {
	s, err := u.store(kind)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrCareRecordNameRequired
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	member, err := u.findMember(ctx, tx, publicID)
	if err != nil {
		return nil, err
	}

	existing, err := s.findByName(ctx, tx, member.ID, name)
	if err != nil {
		u.log.Warnf("Failed to check duplicate %s: %+v", kind, err)
		return nil, err
	}
	if existing != nil {
		return nil, ErrCareRecordAlreadyExists
	}

	record, err := s.create(ctx, tx, member.ID, name)
	if err != nil {
		if isDuplicateKeyError(err, kind.UniqueConstraint()) {
			return nil, ErrCareRecordAlreadyExists
		}
		u.log.Warnf("Failed to create %s: %+v", kind, err)
		return nil, err
	}

	if err := u.memberRepo.Touch(ctx, tx, member.ID); err != nil {
		u.log.Warnf("Failed to touch member: %+v", err)
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	_ = u.auditService.LogCreate(ctx, u.db, actorID(actor), entity.AuditActionCareRecordAdd, string(kind), member.MemberID, name)

	return converter.CareRecordToResponse(record), nil
}

func (u *careRecordUsecase) Rename(ctx context.Context, actor jwt.Identity, publicID string, kind entity.CareKind, recordID uint, name string) (*dto.CareRecordResponse, error) {
	s, err := u.store(kind)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrCareRecordNameRequired
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	member, err := u.findMember(ctx, tx, publicID)
	if err != nil {
		return nil, err
	}

	record, err := u.findOwned(ctx, tx, s, member, recordID)
	if err != nil {
		return nil, err
	}
	oldName := record.GetName()

	sibling, err := s.findByName(ctx, tx, member.ID, name)
	if err != nil {
		u.log.Warnf("Failed to check duplicate %s: %+v", kind, err)
		return nil, err
	}
	if sibling != nil && sibling.GetID() != record.GetID() {
		return nil, ErrCareRecordNameConflict
	}

	record.SetName(name)
	if err := s.update(ctx, tx, record); err != nil {
		if isDuplicateKeyError(err, kind.UniqueConstraint()) {
			return nil, ErrCareRecordNameConflict
		}
		u.log.Warnf("Failed to update %s: %+v", kind, err)
		return nil, err
	}

	if err := u.memberRepo.Touch(ctx, tx, member.ID); err != nil {
		u.log.Warnf("Failed to touch member: %+v", err)
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	_ = u.auditService.LogUpdate(ctx, u.db, actorID(actor), entity.AuditActionCareRecordEdit, string(kind), member.MemberID, oldName, name)

	return converter.CareRecordToResponse(record), nil
}

func (u *careRecordUsecase) Delete(ctx context.Context, actor jwt.Identity, publicID string, kind entity.CareKind, recordID uint) error {
	s, err := u.store(kind)
	if err != nil {
		return err
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	member, err := u.findMember(ctx, tx, publicID)
	if err != nil {
		return err
	}

	record, err := u.findOwned(ctx, tx, s, member, recordID)
	if err != nil {
		return err
	}

	if err := s.remove(ctx, tx, record); err != nil {
		u.log.Warnf("Failed to delete %s: %+v", kind, err)
		return err
	}

	if err := u.memberRepo.Touch(ctx, tx, member.ID); err != nil {
		u.log.Warnf("Failed to touch member: %+v", err)
		return err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return err
	}

	_ = u.auditService.LogDelete(ctx, u.db, actorID(actor), entity.AuditActionCareRecordDel, string(kind), member.MemberID, record.GetName())

	return nil
}
