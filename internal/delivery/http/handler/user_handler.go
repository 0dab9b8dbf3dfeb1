package handler

import (
	"encoding/json"
	"net/http"

	"medical-records/internal/delivery/dto"
	"medical-records/internal/delivery/http/middleware"
	"medical-records/internal/usecase"
	"medical-records/pkg/response"
	"medical-records/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// UserHandler serves the admin user management endpoints.
type UserHandler struct {
	authUsecase usecase.AuthUsecase
	validator   *validator.CustomValidator
}

func NewUserHandler(authUsecase usecase.AuthUsecase, validator *validator.CustomValidator) *UserHandler {
	return &UserHandler{
		authUsecase: authUsecase,
		validator:   validator,
	}
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authUsecase.ListUsers(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to get users")
		return
	}

	response.Success(w, http.StatusOK, "Users retrieved successfully", users)
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	user, err := h.authUsecase.CreateUser(r.Context(), middleware.IdentityFromContext(r.Context()), &req)
	if err != nil {
		switch err {
		case usecase.ErrUsernameAlreadyExists:
			response.Conflict(w, "Username already exists")
		case usecase.ErrEmailAlreadyExists:
			response.Conflict(w, "Email already exists")
		case usecase.ErrRoleNotFound:
			response.BadRequest(w, "Unknown role")
		default:
			response.InternalServerError(w, "Failed to create user")
		}
		return
	}

	response.Success(w, http.StatusCreated, "User created successfully", user)
}

func (h *UserHandler) ToggleUserActive(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	user, err := h.authUsecase.ToggleUserActive(r.Context(), middleware.IdentityFromContext(r.Context()), userID)
	if err != nil {
		switch err {
		case usecase.ErrUserNotFound:
			response.NotFound(w, "User not found")
		case usecase.ErrCannotToggleSelf:
			response.BadRequest(w, "You cannot change your own account status")
		default:
			response.InternalServerError(w, "Failed to update user")
		}
		return
	}

	message := "User deactivated successfully"
	if user.IsActive {
		message = "User activated successfully"
	}
	response.Success(w, http.StatusOK, message, user)
}
