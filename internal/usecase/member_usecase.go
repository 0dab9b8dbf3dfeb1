package usecase

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"medical-records/internal/converter"
	"medical-records/internal/delivery/dto"
	"medical-records/internal/domain/entity"
	"medical-records/internal/domain/repository"
	"medical-records/internal/service"
	"medical-records/pkg/jwt"
	"medical-records/pkg/memberid"
	"medical-records/pkg/textlist"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrMemberNotFound      = errors.New("member not found")
	ErrMemberAlreadyExists = errors.New("a member with this name and date of birth already exists")
	ErrEmptySearchQuery    = errors.New("search query is required")
	ErrMemberNameRequired  = errors.New("name is required")
	ErrMemberGenderMissing = errors.New("gender is required")
	ErrInvalidMemberID     = errors.New("invalid member id")

	errPublicIDTaken = errors.New("member id already taken")
)

const (
	dashboardRecentLimit = 6
	dashboardWindow      = 30 * 24 * time.Hour
	publicIDRetries      = 3
)

var exportHeader = []string{"Name", "Member ID", "Date of Birth", "Gender", "Underlying", "Drug Allergy"}

type MemberUsecase interface {
	CreateMember(ctx context.Context, actor jwt.Identity, req *dto.CreateMemberRequest) (*dto.MemberResponse, error)
	GetMember(ctx context.Context, publicID string) (*dto.MemberResponse, error)
	GetMemberRecord(ctx context.Context, publicID string) (*dto.MemberRecord, error)
	UpdateBasicInfo(ctx context.Context, actor jwt.Identity, publicID string, req *dto.UpdateMemberRequest) (*dto.MemberResponse, error)
	DeleteMember(ctx context.Context, actor jwt.Identity, publicID string) (*dto.MutationResult, error)
	SearchMembers(ctx context.Context, query string) (*dto.MemberSearchResponse, error)
	Dashboard(ctx context.Context) (*dto.DashboardResponse, error)
	Backup(ctx context.Context) (*dto.BackupDocument, error)
	ExportCSV(ctx context.Context, w io.Writer) error
	ImportMembers(ctx context.Context, actor jwt.Identity, records []dto.MemberRecord) (*dto.ImportResult, error)
}

type memberUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	memberRepo      repository.MemberRepository
	doctorRepo      repository.CareRecordRepository[*entity.Doctor]
	medicationRepo  repository.CareRecordRepository[*entity.Medication]
	diagnosisRepo   repository.CareRecordRepository[*entity.Diagnosis]
	medicalFileRepo repository.MedicalFileRepository
	idGenerator     *memberid.Generator
	storage         service.StorageGateway
	auditService    service.AuditService
	now             func() time.Time
}

func NewMemberUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	memberRepo repository.MemberRepository,
	doctorRepo repository.CareRecordRepository[*entity.Doctor],
	medicationRepo repository.CareRecordRepository[*entity.Medication],
	diagnosisRepo repository.CareRecordRepository[*entity.Diagnosis],
	medicalFileRepo repository.MedicalFileRepository,
	idGenerator *memberid.Generator,
	storage service.StorageGateway,
	auditService service.AuditService,
) MemberUsecase {
	return &memberUsecase{
		db:              db,
		log:             log,
		memberRepo:      memberRepo,
		doctorRepo:      doctorRepo,
		medicationRepo:  medicationRepo,
		diagnosisRepo:   diagnosisRepo,
		medicalFileRepo: medicalFileRepo,
		idGenerator:     idGenerator,
		storage:         storage,
		auditService:    auditService,
		now:             time.Now,
	}
}

// memberInput is a validated create request shared by the add form and the
// import.
type memberInput struct {
	publicID    string
	name        string
	dob         time.Time
	gender      string
	underlying  string
	drugAllergy string
	doctors     []string
	medications []string
	diagnoses   []string
}

func newMemberInput(name, dob, gender, underlying, drugAllergy string, doctors, medications, diagnoses []string) (*memberInput, error) {
	in := &memberInput{
		name:        normalizeName(name),
		gender:      strings.TrimSpace(gender),
		underlying:  strings.TrimSpace(underlying),
		drugAllergy: strings.TrimSpace(drugAllergy),
		doctors:     textlist.Unique(doctors...),
		medications: textlist.Unique(medications...),
		diagnoses:   textlist.Unique(diagnoses...),
	}
	if in.name == "" {
		return nil, ErrMemberNameRequired
	}
	if in.gender == "" {
		return nil, ErrMemberGenderMissing
	}

	parsed, err := parseDate(dob)
	if err != nil {
		return nil, err
	}
	in.dob = parsed
	return in, nil
}

func (u *memberUsecase) CreateMember(ctx context.Context, actor jwt.Identity, req *dto.CreateMemberRequest) (*dto.MemberResponse, error) {
	in, err := newMemberInput(req.Name, req.DateOfBirth, req.Gender, req.Underlying, req.DrugAllergy, req.Doctors, req.Medications, req.Diagnoses)
	if err != nil {
		return nil, err
	}

	var member *entity.Member
	for attempt := 1; attempt <= publicIDRetries; attempt++ {
		member, err = u.createMember(ctx, actor, in)
		if !errors.Is(err, errPublicIDTaken) {
			break
		}
		u.log.WithField("attempt", attempt).Warn("Generated member id collided, retrying")
	}
	if err != nil {
		return nil, err
	}

	_ = u.auditService.LogCreate(ctx, u.db, actorID(actor), entity.AuditActionMemberCreate, "member", member.MemberID, converter.MemberToRecord(member, false))

	return converter.MemberToResponse(member), nil
}

func (u *memberUsecase) createMember(ctx context.Context, actor jwt.Identity, in *memberInput) (*entity.Member, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	existing, err := u.memberRepo.FindByNameAndDOB(ctx, tx, in.name, in.dob)
	if err != nil {
		u.log.Warnf("Failed to check duplicate member: %+v", err)
		return nil, err
	}
	if existing != nil {
		return nil, ErrMemberAlreadyExists
	}

	publicID := in.publicID
	if publicID == "" {
		publicID = u.idGenerator.Generate(ctx, func(ctx context.Context, id string) (bool, error) {
			return u.memberRepo.ExistsByPublicID(ctx, tx, id)
		})
	}

	member := &entity.Member{
		MemberID:    publicID,
		Name:        in.name,
		DateOfBirth: in.dob,
		Age:         entity.AgeOn(in.dob, u.now()),
		Gender:      in.gender,
		Underlying:  in.underlying,
		DrugAllergy: in.drugAllergy,
		CreatedBy:   actorID(actor),
	}

	if err := u.memberRepo.Create(ctx, tx, member); err != nil {
		if isDuplicateKeyError(err, entity.ConstraintMemberNameDOB) {
			return nil, ErrMemberAlreadyExists
		}
		if isDuplicateKeyError(err, entity.ConstraintMemberPublicID) {
			return nil, errPublicIDTaken
		}
		u.log.Warnf("Failed to create member: %+v", err)
		return nil, err
	}

	if err := createCareRecords(ctx, tx, u.doctorRepo, member.ID, in.doctors); err != nil {
		u.log.Warnf("Failed to create doctors: %+v", err)
		return nil, err
	}
	if err := createCareRecords(ctx, tx, u.medicationRepo, member.ID, in.medications); err != nil {
		u.log.Warnf("Failed to create medications: %+v", err)
		return nil, err
	}
	if err := createCareRecords(ctx, tx, u.diagnosisRepo, member.ID, in.diagnoses); err != nil {
		u.log.Warnf("Failed to create diagnoses: %+v", err)
		return nil, err
	}

	created, err := u.memberRepo.FindDetailByPublicID(ctx, tx, member.MemberID)
	if err != nil {
		u.log.Warnf("Failed to reload member: %+v", err)
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return created, nil
}

func createCareRecords[T entity.CareRecord](ctx context.Context, tx *gorm.DB, repo repository.CareRecordRepository[T], memberID uint, names []string) error {
	for _, name := range names {
		if err := repo.Create(ctx, tx, repo.New(memberID, name)); err != nil {
			return err
		}
	}
	return nil
}

func (u *memberUsecase) GetMember(ctx context.Context, publicID string) (*dto.MemberResponse, error) {
	member, err := u.memberRepo.FindDetailByPublicID(ctx, u.db, memberid.Normalize(publicID))
	if err != nil {
		u.log.Warnf("Failed to find member: %+v", err)
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}

	return converter.MemberToResponse(member), nil
}

func (u *memberUsecase) GetMemberRecord(ctx context.Context, publicID string) (*dto.MemberRecord, error) {
	member, err := u.memberRepo.FindDetailByPublicID(ctx, u.db, memberid.Normalize(publicID))
	if err != nil {
		u.log.Warnf("Failed to find member: %+v", err)
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}

	record := converter.MemberToRecord(member, true)
	return &record, nil
}

func (u *memberUsecase) UpdateBasicInfo(ctx context.Context, actor jwt.Identity, publicID string, req *dto.UpdateMemberRequest) (*dto.MemberResponse, error) {
	in, err := newMemberInput(req.Name, req.DateOfBirth, req.Gender, req.Underlying, req.DrugAllergy, nil, nil, nil)
	if err != nil {
		return nil, err
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	member, err := u.memberRepo.FindByPublicID(ctx, tx, memberid.Normalize(publicID))
	if err != nil {
		u.log.Warnf("Failed to find member: %+v", err)
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	before := converter.MemberToRecord(member, false)

	existing, err := u.memberRepo.FindByNameAndDOB(ctx, tx, in.name, in.dob)
	if err != nil {
		u.log.Warnf("Failed to check duplicate member: %+v", err)
		return nil, err
	}
	if existing != nil && existing.ID != member.ID {
		return nil, ErrMemberAlreadyExists
	}

	member.Name = in.name
	member.DateOfBirth = in.dob
	member.Age = entity.AgeOn(in.dob, u.now())
	member.Gender = in.gender
	member.Underlying = in.underlying
	member.DrugAllergy = in.drugAllergy

	if err := u.memberRepo.Update(ctx, tx, member); err != nil {
		if isDuplicateKeyError(err, entity.ConstraintMemberNameDOB) {
			return nil, ErrMemberAlreadyExists
		}
		u.log.Warnf("Failed to update member: %+v", err)
		return nil, err
	}

	updated, err := u.memberRepo.FindDetailByPublicID(ctx, tx, member.MemberID)
	if err != nil {
		u.log.Warnf("Failed to reload member: %+v", err)
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	_ = u.auditService.LogUpdate(ctx, u.db, actorID(actor), entity.AuditActionMemberUpdate, "member", member.MemberID, before, converter.MemberToRecord(member, false))

	return converter.MemberToResponse(updated), nil
}

// DeleteMember removes the member row, which cascades to care records and
// file rows, then deletes the stored file bytes. Storage failures are
// reported as warnings after the record is already gone.
func (u *memberUsecase) DeleteMember(ctx context.Context, actor jwt.Identity, publicID string) (*dto.MutationResult, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	member, err := u.memberRepo.FindByPublicID(ctx, tx, memberid.Normalize(publicID))
	if err != nil {
		u.log.Warnf("Failed to find member: %+v", err)
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}

	files, err := u.medicalFileRepo.FindByMemberID(ctx, tx, member.ID)
	if err != nil {
		u.log.Warnf("Failed to find member files: %+v", err)
		return nil, err
	}

	if err := u.memberRepo.Delete(ctx, tx, member); err != nil {
		u.log.Warnf("Failed to delete member: %+v", err)
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	locators := make([]entity.StorageLocator, len(files))
	for i, f := range files {
		locators[i] = f.Locator
	}
	warnings := u.storage.DeleteAll(ctx, locators)

	_ = u.auditService.LogDelete(ctx, u.db, actorID(actor), entity.AuditActionMemberDelete, "member", member.MemberID, map[string]interface{}{
		"name":  member.Name,
		"files": len(files),
	})

	return &dto.MutationResult{Warnings: warnings}, nil
}

func (u *memberUsecase) SearchMembers(ctx context.Context, query string) (*dto.MemberSearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptySearchQuery
	}

	members, err := u.memberRepo.Search(ctx, u.db, query)
	if err != nil {
		u.log.Warnf("Failed to search members: %+v", err)
		return nil, err
	}

	return &dto.MemberSearchResponse{
		Query:   query,
		Members: converter.MembersToSummaries(members),
		Total:   len(members),
	}, nil
}

func (u *memberUsecase) Dashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	total, err := u.memberRepo.Count(ctx, u.db)
	if err != nil {
		u.log.Warnf("Failed to count members: %+v", err)
		return nil, err
	}

	recent, err := u.memberRepo.FindRecent(ctx, u.db, dashboardRecentLimit)
	if err != nil {
		u.log.Warnf("Failed to find recent members: %+v", err)
		return nil, err
	}

	additions, err := u.memberRepo.CountCreatedSince(ctx, u.db, u.now().Add(-dashboardWindow))
	if err != nil {
		u.log.Warnf("Failed to count recent members: %+v", err)
		return nil, err
	}

	return &dto.DashboardResponse{
		TotalMembers:    total,
		RecentMembers:   converter.MembersToSummaries(recent),
		RecentAdditions: additions,
	}, nil
}

func (u *memberUsecase) Backup(ctx context.Context) (*dto.BackupDocument, error) {
	members, err := u.memberRepo.FindAllWithRecords(ctx, u.db)
	if err != nil {
		u.log.Warnf("Failed to load members for backup: %+v", err)
		return nil, err
	}

	records := make([]dto.MemberRecord, len(members))
	for i := range members {
		records[i] = converter.MemberToRecord(&members[i], false)
	}

	return &dto.BackupDocument{
		GeneratedAt: u.now().UTC(),
		Total:       len(records),
		Members:     records,
	}, nil
}

// ExportCSV writes one row per member. Members are loaded before anything
// is written so a failed query produces no partial output.
func (u *memberUsecase) ExportCSV(ctx context.Context, w io.Writer) error {
	members, err := u.memberRepo.FindAllWithRecords(ctx, u.db)
	if err != nil {
		u.log.Warnf("Failed to load members for export: %+v", err)
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, m := range members {
		row := []string{
			m.Name,
			m.MemberID,
			m.DateOfBirth.Format("2006-01-02"),
			m.Gender,
			m.Underlying,
			m.DrugAllergy,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ImportMembers restores records in their own transactions. Records whose
// member id or name and date of birth already exist are skipped.
func (u *memberUsecase) ImportMembers(ctx context.Context, actor jwt.Identity, records []dto.MemberRecord) (*dto.ImportResult, error) {
	result := &dto.ImportResult{}

	for i, record := range records {
		err := u.importMember(ctx, actor, record)
		switch {
		case err == nil:
			result.Imported++
		case errors.Is(err, errPublicIDTaken), errors.Is(err, ErrMemberAlreadyExists):
			result.Skipped++
		default:
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("record %d (%s): %s", i+1, record.Name, importErrorMessage(err)))
		}
	}

	_ = u.auditService.LogCreate(ctx, u.db, actorID(actor), entity.AuditActionMemberImport, "member", "", result)

	return result, nil
}

func (u *memberUsecase) importMember(ctx context.Context, actor jwt.Identity, record dto.MemberRecord) error {
	in, err := newMemberInput(record.Name, record.DateOfBirth, record.Gender, record.Underlying, record.DrugAllergy, record.Doctors, record.Medications, record.Diagnoses)
	if err != nil {
		return err
	}

	if record.MemberID != "" {
		in.publicID = memberid.Normalize(record.MemberID)
		if !memberid.Valid(in.publicID) {
			return ErrInvalidMemberID
		}

		exists, err := u.memberRepo.ExistsByPublicID(ctx, u.db, in.publicID)
		if err != nil {
			u.log.Warnf("Failed to check member id: %+v", err)
			return err
		}
		if exists {
			return errPublicIDTaken
		}
	}

	_, err = u.createMember(ctx, actor, in)
	return err
}

func importErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrMemberNameRequired),
		errors.Is(err, ErrMemberGenderMissing),
		errors.Is(err, ErrInvalidDateFormat),
		errors.Is(err, ErrInvalidMemberID):
		return err.Error()
	}
	return "could not be saved"
}
