package handler

import (
	"net/http"
	"strconv"

	"medical-records/internal/delivery/dto"
	"medical-records/internal/usecase"
	"medical-records/pkg/response"
	"medical-records/pkg/validator"

	"github.com/gorilla/mux"
)

type AuditLogHandler struct {
	auditLogUsecase usecase.AuditLogUsecase
	validator       *validator.CustomValidator
}

func NewAuditLogHandler(auditLogUsecase usecase.AuditLogUsecase, validator *validator.CustomValidator) *AuditLogHandler {
	return &AuditLogHandler{
		auditLogUsecase: auditLogUsecase,
		validator:       validator,
	}
}

func (h *AuditLogHandler) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	auditLogID, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid audit log ID")
		return
	}

	auditLog, err := h.auditLogUsecase.GetAuditLog(r.Context(), auditLogID)
	if err != nil {
		if err == usecase.ErrAuditLogNotFound {
			response.NotFound(w, "Audit log not found")
			return
		}
		response.InternalServerError(w, "Failed to get audit log")
		return
	}

	response.Success(w, http.StatusOK, "Audit log retrieved successfully", auditLog)
}

// GetAllAuditLogs lists audit entries, optionally filtered
// @Summary List audit logs
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param action query string false "Action, or a prefix ending in a dot"
// @Param entity query string false "Entity name"
// @Param entity_id query string false "Entity ID"
// @Param user_id query string false "Acting user ID"
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 200)"
// @Success 200 {object} response.Response
// @Router /admin/audit-logs [get]
func (h *AuditLogHandler) GetAllAuditLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	req := dto.AuditLogQuery{
		Action:   q.Get("action"),
		Entity:   q.Get("entity"),
		EntityID: q.Get("entity_id"),
		UserID:   q.Get("user_id"),
		Page:     page,
		Limit:    limit,
	}
	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	auditLogs, err := h.auditLogUsecase.GetAllAuditLogs(r.Context(), &req)
	if err != nil {
		response.InternalServerError(w, "Failed to get audit logs")
		return
	}

	response.SuccessWithMeta(w, http.StatusOK, "Audit logs retrieved successfully", auditLogs.Logs,
		response.NewMeta(auditLogs.Page, auditLogs.Limit, auditLogs.Total))
}

// GetMemberHistory lists the audit entries of one member.
func (h *AuditLogHandler) GetMemberHistory(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	history, err := h.auditLogUsecase.GetMemberHistory(r.Context(), mux.Vars(r)["public_id"], page, limit)
	if err != nil {
		if err == usecase.ErrMemberNotFound {
			response.NotFound(w, "Member not found")
			return
		}
		response.InternalServerError(w, "Failed to get member history")
		return
	}

	response.SuccessWithMeta(w, http.StatusOK, "Member history retrieved successfully", history.Logs,
		response.NewMeta(history.Page, history.Limit, history.Total))
}
