package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"medical-records/internal/delivery/dto"
	"medical-records/internal/delivery/http/middleware"
	"medical-records/internal/domain/entity"
	"medical-records/internal/usecase"
	"medical-records/pkg/response"
	"medical-records/pkg/validator"

	"github.com/gorilla/mux"
)

const (
	maxJSONBody   = 1 << 20
	maxImportBody = 32 << 20
)

type MemberHandler struct {
	memberUsecase     usecase.MemberUsecase
	careRecordUsecase usecase.CareRecordUsecase
	validator         *validator.CustomValidator
}

func NewMemberHandler(memberUsecase usecase.MemberUsecase, careRecordUsecase usecase.CareRecordUsecase, validator *validator.CustomValidator) *MemberHandler {
	return &MemberHandler{
		memberUsecase:     memberUsecase,
		careRecordUsecase: careRecordUsecase,
		validator:         validator,
	}
}

// Dashboard handles the landing page data
// @Summary Dashboard
// @Description Member totals and the most recently added members
// @Tags Members
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Router / [get]
func (h *MemberHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.memberUsecase.Dashboard(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to load dashboard")
		return
	}

	response.Success(w, http.StatusOK, "Dashboard retrieved successfully", dashboard)
}

// CreateMember handles member creation
// @Summary Add a member
// @Description Create a member with optional doctors, medications and diagnoses
// @Tags Members
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateMemberRequest true "Create Member Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /add-member [post]
func (h *MemberHandler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMemberRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	member, err := h.memberUsecase.CreateMember(r.Context(), middleware.IdentityFromContext(r.Context()), &req)
	if err != nil {
		h.writeMemberError(w, err, "Failed to add member")
		return
	}

	response.Success(w, http.StatusCreated, fmt.Sprintf("Member %s added successfully", member.MemberID), member)
}

func (h *MemberHandler) GetMember(w http.ResponseWriter, r *http.Request) {
	member, err := h.memberUsecase.GetMember(r.Context(), mux.Vars(r)["public_id"])
	if err != nil {
		h.writeMemberError(w, err, "Failed to get member")
		return
	}

	response.Success(w, http.StatusOK, "Member retrieved successfully", member)
}

// GetMemberRecord returns the flat JSON projection of a member.
func (h *MemberHandler) GetMemberRecord(w http.ResponseWriter, r *http.Request) {
	record, err := h.memberUsecase.GetMemberRecord(r.Context(), mux.Vars(r)["public_id"])
	if err != nil {
		h.writeMemberError(w, err, "Failed to get member")
		return
	}

	response.Success(w, http.StatusOK, "Member retrieved successfully", record)
}

// UpdateMember dispatches on the body's action field: update_basic, or
// add_, edit_ and delete_ followed by doctor, medication or diagnosis.
// @Summary Update a member
// @Tags Members
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param public_id path string true "Member ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /update-member/{public_id} [post]
func (h *MemberHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	var action dto.MemberActionRequest
	if err := json.Unmarshal(body, &action); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if err := h.validator.Validate(&action); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	publicID := mux.Vars(r)["public_id"]

	if action.Action == "update_basic" {
		h.updateBasicInfo(w, r, publicID, body)
		return
	}

	verb, kind, _ := strings.Cut(action.Action, "_")
	careKind := entity.CareKind(kind)
	if !careKind.Valid() {
		response.BadRequest(w, "Unknown action")
		return
	}

	switch verb {
	case "add":
		h.addCareRecord(w, r, publicID, careKind, body)
	case "edit":
		h.renameCareRecord(w, r, publicID, careKind, body)
	case "delete":
		h.deleteCareRecord(w, r, publicID, careKind, body)
	default:
		response.BadRequest(w, "Unknown action")
	}
}

func (h *MemberHandler) updateBasicInfo(w http.ResponseWriter, r *http.Request, publicID string, body []byte) {
	var req dto.UpdateMemberRequest
	if err := json.Unmarshal(body, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	member, err := h.memberUsecase.UpdateBasicInfo(r.Context(), middleware.IdentityFromContext(r.Context()), publicID, &req)
	if err != nil {
		h.writeMemberError(w, err, "Failed to update member")
		return
	}

	response.Success(w, http.StatusOK, "Member updated successfully", member)
}

func (h *MemberHandler) addCareRecord(w http.ResponseWriter, r *http.Request, publicID string, kind entity.CareKind, body []byte) {
	var req dto.AddCareRecordRequest
	if err := json.Unmarshal(body, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	record, err := h.careRecordUsecase.Add(r.Context(), middleware.IdentityFromContext(r.Context()), publicID, kind, req.Name)
	if err != nil {
		if err == usecase.ErrCareRecordAlreadyExists {
			response.SuccessWithWarning(w, http.StatusOK, "No changes made", nil, fmt.Sprintf("%s already exists for this member", capitalize(string(kind))))
			return
		}
		h.writeMemberError(w, err, "Failed to add "+string(kind))
		return
	}

	response.Success(w, http.StatusCreated, capitalize(string(kind))+" added successfully", record)
}

func (h *MemberHandler) renameCareRecord(w http.ResponseWriter, r *http.Request, publicID string, kind entity.CareKind, body []byte) {
	var req dto.EditCareRecordRequest
	if err := json.Unmarshal(body, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	record, err := h.careRecordUsecase.Rename(r.Context(), middleware.IdentityFromContext(r.Context()), publicID, kind, req.RecordID, req.Name)
	if err != nil {
		h.writeMemberError(w, err, "Failed to update "+string(kind))
		return
	}

	response.Success(w, http.StatusOK, capitalize(string(kind))+" updated successfully", record)
}

func (h *MemberHandler) deleteCareRecord(w http.ResponseWriter, r *http.Request, publicID string, kind entity.CareKind, body []byte) {
	var req dto.DeleteCareRecordRequest
	if err := json.Unmarshal(body, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	if err := h.careRecordUsecase.Delete(r.Context(), middleware.IdentityFromContext(r.Context()), publicID, kind, req.RecordID); err != nil {
		h.writeMemberError(w, err, "Failed to delete "+string(kind))
		return
	}

	response.Success(w, http.StatusOK, capitalize(string(kind))+" deleted successfully", nil)
}

func (h *MemberHandler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	result, err := h.memberUsecase.DeleteMember(r.Context(), middleware.IdentityFromContext(r.Context()), mux.Vars(r)["public_id"])
	if err != nil {
		h.writeMemberError(w, err, "Failed to delete member")
		return
	}

	if len(result.Warnings) > 0 {
		response.SuccessWithWarning(w, http.StatusOK, "Member deleted successfully", nil, result.Warnings)
		return
	}
	response.Success(w, http.StatusOK, "Member deleted successfully", nil)
}

// SearchMembers matches the query against names and member IDs.
func (h *MemberHandler) SearchMembers(w http.ResponseWriter, r *http.Request) {
	result, err := h.memberUsecase.SearchMembers(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		if err == usecase.ErrEmptySearchQuery {
			response.BadRequest(w, "Please enter a search term")
			return
		}
		response.InternalServerError(w, "Failed to search members")
		return
	}

	response.Success(w, http.StatusOK, fmt.Sprintf("Found %d member(s)", result.Total), result)
}

// Backup streams every member as a JSON attachment.
func (h *MemberHandler) Backup(w http.ResponseWriter, r *http.Request) {
	doc, err := h.memberUsecase.Backup(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to create backup")
		return
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		response.InternalServerError(w, "Failed to create backup")
		return
	}

	filename := fmt.Sprintf("backup_%s.json", doc.GeneratedAt.Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", contentDisposition("attachment", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// ImportMembers accepts a backup document or a bare array of member records.
func (h *MemberHandler) ImportMembers(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBody))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	records, err := decodeImport(body)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid backup file", nil)
		return
	}

	result, err := h.memberUsecase.ImportMembers(r.Context(), middleware.IdentityFromContext(r.Context()), records)
	if err != nil {
		response.InternalServerError(w, "Failed to import members")
		return
	}

	response.Success(w, http.StatusOK, fmt.Sprintf("Imported %d member(s)", result.Imported), result)
}

func decodeImport(body []byte) ([]dto.MemberRecord, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []dto.MemberRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, err
		}
		return records, nil
	}

	var doc dto.BackupDocument
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, err
	}
	return doc.Members, nil
}

// ExportMembers writes the member list as CSV.
func (h *MemberHandler) ExportMembers(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.memberUsecase.ExportCSV(r.Context(), &buf); err != nil {
		response.InternalServerError(w, "Failed to export members")
		return
	}

	filename := fmt.Sprintf("members_export_%s.csv", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", contentDisposition("attachment", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *MemberHandler) writeMemberError(w http.ResponseWriter, err error, fallback string) {
	switch err {
	case usecase.ErrMemberNotFound:
		response.NotFound(w, "Member not found")
	case usecase.ErrMemberAlreadyExists:
		response.Conflict(w, "A member with this name and date of birth already exists")
	case usecase.ErrInvalidDateFormat:
		response.ValidationError(w, map[string]string{"date_of_birth": err.Error()})
	case usecase.ErrMemberNameRequired:
		response.ValidationError(w, map[string]string{"name": err.Error()})
	case usecase.ErrMemberGenderMissing:
		response.ValidationError(w, map[string]string{"gender": err.Error()})
	case usecase.ErrCareRecordNameRequired:
		response.ValidationError(w, map[string]string{"name": err.Error()})
	case usecase.ErrInvalidCareKind:
		response.BadRequest(w, "Unknown action")
	case usecase.ErrCareRecordNotFound:
		response.NotFound(w, "Record not found for this member")
	case usecase.ErrCareRecordNameConflict:
		response.Conflict(w, "Another record with this name already exists for this member")
	default:
		response.InternalServerError(w, fallback)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
