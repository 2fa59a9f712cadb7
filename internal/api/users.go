package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/assetledger/internal/model"
	"github.com/erazemk/assetledger/internal/store"
)

// UsersHandler handles user registry endpoints.
type UsersHandler struct {
	DB *sqlx.DB
}

type createUserRequest struct {
	PayrollNumber string `json:"payroll_number"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Role          string `json:"role"`
}

type updateUserRequest struct {
	Role string `json:"role"`
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list users", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	jsonResponse(w, http.StatusOK, users)
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.PayrollNumber = strings.TrimSpace(req.PayrollNumber)
	if req.PayrollNumber == "" || req.FirstName == "" || req.LastName == "" {
		jsonError(w, http.StatusBadRequest, "payroll_number, first_name and last_name required")
		return
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}
	if !model.ValidRole(req.Role) {
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	}

	existing, err := store.GetUser(r.Context(), h.DB, req.PayrollNumber)
	if err != nil {
		slog.Error("failed to check user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	if existing != nil {
		jsonError(w, http.StatusConflict, "payroll number already exists")
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.PayrollNumber, req.FirstName, req.LastName, req.Role)
	if err != nil {
		slog.Error("failed to create user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	slog.Info("user created", "admin", caller(r), "payroll_number", user.PayrollNumber, "role", user.Role)
	jsonResponse(w, http.StatusCreated, user)
}

// Get handles GET /api/users/{payroll}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookup(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// Update handles PUT /api/users/{payroll}.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !model.ValidRole(req.Role) {
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	}

	if err := store.UpdateUser(r.Context(), h.DB, user.PayrollNumber, req.Role); err != nil {
		slog.Error("failed to update user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	slog.Info("user role changed", "admin", caller(r), "payroll_number", user.PayrollNumber, "role", req.Role)
	user.Role = req.Role
	jsonResponse(w, http.StatusOK, user)
}

// Delete handles DELETE /api/users/{payroll}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if user.PayrollNumber == caller(r) {
		jsonError(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}

	if err := store.DeleteUser(r.Context(), h.DB, user.PayrollNumber); err != nil {
		slog.Error("failed to delete user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	slog.Info("user deleted", "admin", caller(r), "payroll_number", user.PayrollNumber)
	w.WriteHeader(http.StatusNoContent)
}

// lookup resolves the {payroll} path value to an active user, writing the
// error response itself when it cannot.
func (h *UsersHandler) lookup(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, err := store.GetUser(r.Context(), h.DB, r.PathValue("payroll"))
	if err != nil {
		slog.Error("failed to get user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get user")
		return nil, false
	}
	if user == nil || user.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return nil, false
	}
	return user, true
}
