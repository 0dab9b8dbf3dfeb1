package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"medical-records/internal/delivery/http/middleware"
	"medical-records/internal/domain/entity"
	"medical-records/internal/infrastructure/storage"
	"medical-records/internal/repository"
	"medical-records/internal/service"
	"medical-records/internal/testutil"
	"medical-records/internal/usecase"
	"medical-records/pkg/jwt"
	"medical-records/pkg/memberid"
	"medical-records/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Warning json.RawMessage `json:"warning"`
}

func newTestMemberHandler(t *testing.T) (*MemberHandler, jwt.Identity) {
	t.Helper()

	db := testutil.NewDB(t)
	log := testutil.Logger()

	if err := repository.NewRoleRepository().EnsureDefaults(context.Background(), db, entity.DefaultRoles); err != nil {
		t.Fatalf("seed roles: %v", err)
	}
	doctor := &entity.User{ID: uuid.New(), RoleID: entity.RoleIDDoctor, Username: "drwho", Email: "drwho@example.com", Password: "x", IsActive: true}
	if err := db.Omit("Role").Create(doctor).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	local, err := storage.NewLocalStore(t.TempDir(), log)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	gateway := service.NewStorageGateway(log, nil, local)
	audit := service.NewAuditService(log, repository.NewAuditLogRepository())

	memberRepo := repository.NewMemberRepository()
	doctorRepo := repository.NewDoctorRepository()
	medicationRepo := repository.NewMedicationRepository()
	diagnosisRepo := repository.NewDiagnosisRepository()

	members := usecase.NewMemberUsecase(db, log, memberRepo, doctorRepo, medicationRepo, diagnosisRepo, repository.NewMedicalFileRepository(), memberid.NewGenerator(log), gateway, audit)
	records := usecase.NewCareRecordUsecase(db, log, memberRepo, doctorRepo, medicationRepo, diagnosisRepo, audit)

	return NewMemberHandler(members, records, validator.NewValidator()),
		jwt.Identity{UserID: doctor.ID, Username: doctor.Username, RoleID: doctor.RoleID}
}

func serve(t *testing.T, h http.HandlerFunc, actor jwt.Identity, method, target, body string, vars map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.ContextWithIdentity(req.Context(), actor))
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}

	rec := httptest.NewRecorder()
	h(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, env
}

const janeJSON = `{"name":"Jane Doe","date_of_birth":"1990-04-12","gender":"Female","doctors":"Dr. Smith"}`

func createJane(t *testing.T, h *MemberHandler, actor jwt.Identity) string {
	t.Helper()

	rec, env := serve(t, h.CreateMember, actor, http.MethodPost, "/add-member", janeJSON, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("CreateMember status = %d, body %s", rec.Code, rec.Body.String())
	}

	var member struct {
		MemberID string `json:"member_id"`
	}
	if err := json.Unmarshal(env.Data, &member); err != nil {
		t.Fatalf("decode member: %v", err)
	}
	return member.MemberID
}

func TestCreateMember_Conflict(t *testing.T) {
	h, actor := newTestMemberHandler(t)
	createJane(t, h, actor)

	rec, env := serve(t, h.CreateMember, actor, http.MethodPost, "/add-member", janeJSON, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if env.Success {
		t.Error("success = true on conflict")
	}
}

func TestCreateMember_Validation(t *testing.T) {
	h, actor := newTestMemberHandler(t)

	tests := map[string]string{
		"blank name":   `{"name":"  ","date_of_birth":"1990-04-12","gender":"Female"}`,
		"bad date":     `{"name":"Jane","date_of_birth":"12/04/1990","gender":"Female"}`,
		"no gender":    `{"name":"Jane","date_of_birth":"1990-04-12"}`,
		"invalid json": `{"name":`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec, _ := serve(t, h.CreateMember, actor, http.MethodPost, "/add-member", body, nil)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestUpdateMember_DuplicateCareRecordWarns(t *testing.T) {
	h, actor := newTestMemberHandler(t)
	publicID := createJane(t, h, actor)
	vars := map[string]string{"public_id": publicID}

	rec, env := serve(t, h.UpdateMember, actor, http.MethodPost, "/update-member/"+publicID, `{"action":"add_doctor","name":"Dr. Smith"}`, vars)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !env.Success || len(env.Warning) == 0 {
		t.Errorf("response = %s, want success with warning", rec.Body.String())
	}

	rec, _ = serve(t, h.UpdateMember, actor, http.MethodPost, "/update-member/"+publicID, `{"action":"add_diagnosis","name":"Asthma"}`, vars)
	if rec.Code != http.StatusCreated {
		t.Errorf("add_diagnosis status = %d, want 201", rec.Code)
	}
}

func TestUpdateMember_Dispatch(t *testing.T) {
	h, actor := newTestMemberHandler(t)
	publicID := createJane(t, h, actor)
	vars := map[string]string{"public_id": publicID}

	tests := []struct {
		name string
		body string
		want int
	}{
		{"unknown verb", `{"action":"merge_doctor"}`, http.StatusBadRequest},
		{"unknown kind", `{"action":"add_allergy","name":"Pollen"}`, http.StatusBadRequest},
		{"missing action", `{}`, http.StatusBadRequest},
		{"missing record", `{"action":"delete_doctor","record_id":9999}`, http.StatusNotFound},
		{"update basic", `{"action":"update_basic","name":"Jane Roe","date_of_birth":"1990-04-12","gender":"Female"}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := serve(t, h.UpdateMember, actor, http.MethodPost, "/update-member/"+publicID, tt.body, vars)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	rec, _ := serve(t, h.UpdateMember, actor, http.MethodPost, "/update-member/ZZZZZZ", `{"action":"add_doctor","name":"Dr. X"}`, map[string]string{"public_id": "ZZZZZZ"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown member status = %d, want 404", rec.Code)
	}
}

func TestSearchMembers(t *testing.T) {
	h, actor := newTestMemberHandler(t)
	createJane(t, h, actor)

	rec, env := serve(t, h.SearchMembers, actor, http.MethodGet, "/search?query=nobody", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var result struct {
		Total   int               `json:"total"`
		Members []json.RawMessage `json:"members"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Total != 0 || len(result.Members) != 0 {
		t.Errorf("result = %+v, want empty", result)
	}

	rec, _ = serve(t, h.SearchMembers, actor, http.MethodGet, "/search?query=jane", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "jane doe") {
		t.Errorf("search jane = %d %s", rec.Code, rec.Body.String())
	}

	rec, _ = serve(t, h.SearchMembers, actor, http.MethodGet, "/search?query=+", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank query status = %d, want 400", rec.Code)
	}
}

func TestExportAndBackupAttachments(t *testing.T) {
	h, actor := newTestMemberHandler(t)
	createJane(t, h, actor)

	rec, _ := serve(t, h.ExportMembers, actor, http.MethodGet, "/export-members", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "members_export_") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.Contains(rec.Body.String(), "jane doe") {
		t.Errorf("csv = %q", rec.Body.String())
	}

	rec, _ = serve(t, h.Backup, actor, http.MethodGet, "/backup-data", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("backup status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "backup_") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestDecodeImport(t *testing.T) {
	array := `[{"name":"A","date_of_birth":"2000-01-01","gender":"M"}]`
	doc := `{"generated_at":"2024-01-01T00:00:00Z","total":2,"members":[{"name":"A"},{"name":"B"}]}`

	records, err := decodeImport([]byte(array))
	if err != nil || len(records) != 1 {
		t.Errorf("array: %d records, %v", len(records), err)
	}
	records, err = decodeImport([]byte("  " + doc))
	if err != nil || len(records) != 2 {
		t.Errorf("document: %d records, %v", len(records), err)
	}
	if _, err := decodeImport([]byte("not json")); err == nil {
		t.Error("expected an error for invalid input")
	}
}
