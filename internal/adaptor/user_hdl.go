package adaptor

import (
	"encoding/json"
	"net/http"

	"superbuy/internal/dto/request"
	"superbuy/internal/usecase"
	"superbuy/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type UserHandler struct {
	service usecase.UserService
	log     *zap.Logger
}

func NewUserHandler(service usecase.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log,
	}
}

// CreateUser handles POST /api/v1/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req request.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if errs := utils.ValidateStruct(req); errs != nil {
		utils.ResponseBadRequest(w, utils.FormatValidationErrors(errs), errs)
		return
	}

	user, err := h.service.CreateUser(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err, "create user")
		return
	}

	utils.ResponseCreated(w, "User created successfully", user)
}

// GetAllUsers handles GET /api/v1/users
func (h *UserHandler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.GetAllUsers(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "list users")
		return
	}

	utils.ResponseSuccess(w, "Users retrieved successfully", users)
}

// GetUserByID handles GET /api/v1/users/{id}
func (h *UserHandler) GetUserByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.service.GetUserByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.log, err, "get user")
		return
	}
	if user == nil {
		utils.ResponseNotFound(w, "User not found")
		return
	}

	utils.ResponseSuccess(w, "User retrieved successfully", user)
}

// UpdateUser handles PATCH /api/v1/users/{id}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req request.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if errs := utils.ValidateStruct(req); errs != nil {
		utils.ResponseBadRequest(w, utils.FormatValidationErrors(errs), errs)
		return
	}

	user, err := h.service.UpdateUser(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, h.log, err, "update user")
		return
	}
	if user == nil {
		utils.ResponseNotFound(w, "User not found")
		return
	}

	utils.ResponseSuccess(w, "User updated successfully", user)
}

// DeleteUser handles DELETE /api/v1/users/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, err := h.service.DeleteUser(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.log, err, "delete user")
		return
	}
	if !deleted {
		utils.ResponseNotFound(w, "User not found")
		return
	}

	utils.ResponseSuccess(w, "User deleted successfully", nil)
}
