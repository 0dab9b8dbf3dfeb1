package handler

import (
	"net/http"

	"medical-records/internal/usecase"
	"medical-records/pkg/response"
)

type SystemHandler struct {
	systemUsecase usecase.SystemUsecase
}

func NewSystemHandler(systemUsecase usecase.SystemUsecase) *SystemHandler {
	return &SystemHandler{systemUsecase: systemUsecase}
}

func (h *SystemHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.systemUsecase.Status(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to get system status")
		return
	}

	response.Success(w, http.StatusOK, "System status retrieved successfully", status)
}

func (h *SystemHandler) InitDatabase(w http.ResponseWriter, r *http.Request) {
	status, err := h.systemUsecase.InitDatabase(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to initialize database")
		return
	}

	response.Success(w, http.StatusOK, "Database initialized successfully", status)
}
