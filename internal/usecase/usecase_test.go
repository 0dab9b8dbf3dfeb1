package usecase

import (
	"context"
	"io"
	"testing"
	"time"

	"medical-records/internal/domain/entity"
	"medical-records/internal/infrastructure/storage"
	"medical-records/internal/repository"
	"medical-records/internal/service"
	"medical-records/internal/testutil"
	"medical-records/pkg/jwt"
	"medical-records/pkg/memberid"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const testMaxUpload = 1 << 20

// failingObjectStore rejects every write, standing in for an unreachable
// bucket.
type failingObjectStore struct{}

func (failingObjectStore) Put(_ context.Context, _ string, body io.Reader, _ int64, _ string) error {
	io.Copy(io.Discard, body)
	return storage.ErrStoreUnavailable
}

func (failingObjectStore) Delete(context.Context, string) error {
	return storage.ErrStoreUnavailable
}

func (failingObjectStore) PresignGet(context.Context, string, string, time.Duration) (string, error) {
	return "", storage.ErrStoreUnavailable
}

type fixture struct {
	db      *gorm.DB
	members MemberUsecase
	records CareRecordUsecase
	files   MedicalFileUsecase
	local   *storage.LocalStore
}

func newFixture(t *testing.T, remote storage.ObjectStore) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	log := testutil.Logger()

	if err := repository.NewRoleRepository().EnsureDefaults(context.Background(), db, entity.DefaultRoles); err != nil {
		t.Fatalf("seed roles: %v", err)
	}

	local, err := storage.NewLocalStore(t.TempDir(), log)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	gateway := service.NewStorageGateway(log, remote, local)

	memberRepo := repository.NewMemberRepository()
	doctorRepo := repository.NewDoctorRepository()
	medicationRepo := repository.NewMedicationRepository()
	diagnosisRepo := repository.NewDiagnosisRepository()
	fileRepo := repository.NewMedicalFileRepository()
	audit := service.NewAuditService(log, repository.NewAuditLogRepository())

	return &fixture{
		db:      db,
		members: NewMemberUsecase(db, log, memberRepo, doctorRepo, medicationRepo, diagnosisRepo, fileRepo, memberid.NewGenerator(log), gateway, audit),
		records: NewCareRecordUsecase(db, log, memberRepo, doctorRepo, medicationRepo, diagnosisRepo, audit),
		files:   NewMedicalFileUsecase(db, log, memberRepo, fileRepo, gateway, audit, testMaxUpload),
		local:   local,
	}
}

// seedUser inserts an active user with the given role and returns its
// identity.
func seedUser(t *testing.T, db *gorm.DB, username string, roleID int) jwt.Identity {
	t.Helper()

	user := &entity.User{
		ID:       uuid.New(),
		RoleID:   roleID,
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
		IsActive: true,
	}
	if err := db.Omit("Role").Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return jwt.Identity{UserID: user.ID, Username: user.Username, RoleID: roleID}
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()

	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestIsDuplicateKeyError_MatchesConstraint(t *testing.T) {
	db := testutil.NewDB(t)
	if err := repository.NewRoleRepository().EnsureDefaults(context.Background(), db, entity.DefaultRoles); err != nil {
		t.Fatalf("seed roles: %v", err)
	}
	seedUser(t, db, "alice", entity.RoleIDUser)

	sameName := &entity.User{ID: uuid.New(), RoleID: entity.RoleIDUser, Username: "alice", Email: "new@example.com", Password: "x"}
	err := db.Omit("Role").Create(sameName).Error
	if !isDuplicateKeyError(err, entity.ConstraintUserUsername) {
		t.Errorf("username clash not matched on %s: %v", entity.ConstraintUserUsername, err)
	}
	if isDuplicateKeyError(err, entity.ConstraintUserEmail) {
		t.Errorf("username clash matched on %s", entity.ConstraintUserEmail)
	}

	sameEmail := &entity.User{ID: uuid.New(), RoleID: entity.RoleIDUser, Username: "bob", Email: "alice@example.com", Password: "x"}
	err = db.Omit("Role").Create(sameEmail).Error
	if !isDuplicateKeyError(err, entity.ConstraintUserEmail) {
		t.Errorf("email clash not matched on %s: %v", entity.ConstraintUserEmail, err)
	}
	if isDuplicateKeyError(err, entity.ConstraintUserUsername) {
		t.Errorf("email clash matched on %s", entity.ConstraintUserUsername)
	}

	badRole := &entity.User{ID: uuid.New(), RoleID: 99, Username: "carol", Email: "carol@example.com", Password: "x"}
	err = db.Omit("Role").Create(badRole).Error
	if !isForeignKeyError(err, "role") {
		t.Errorf("missing role not reported as a foreign key error: %v", err)
	}
	if isDuplicateKeyError(err, entity.ConstraintUserUsername) {
		t.Error("foreign key error matched as duplicate")
	}
}
