package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/assetledger/internal/store"
)

// LocationsHandler handles location registry endpoints.
type LocationsHandler struct {
	DB *sqlx.DB
}

type createLocationRequest struct {
	RegionName     string `json:"region_name"`
	DepartmentName string `json:"department_name"`
}

// List handles GET /api/locations.
func (h *LocationsHandler) List(w http.ResponseWriter, r *http.Request) {
	locations, err := store.ListLocations(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list locations", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list locations")
		return
	}
	jsonResponse(w, http.StatusOK, locations)
}

// Create handles POST /api/locations.
func (h *LocationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createLocationRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.RegionName = strings.TrimSpace(req.RegionName)
	req.DepartmentName = strings.TrimSpace(req.DepartmentName)
	if req.RegionName == "" || req.DepartmentName == "" {
		jsonError(w, http.StatusBadRequest, "region_name and department_name required")
		return
	}

	loc, err := store.CreateLocation(r.Context(), h.DB, req.RegionName, req.DepartmentName)
	if err != nil {
		slog.Error("failed to create location", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create location")
		return
	}

	slog.Info("location created", "user", caller(r), "location", loc.DisplayName())
	jsonResponse(w, http.StatusCreated, loc)
}

// Get handles GET /api/locations/{id}.
func (h *LocationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid location id")
		return
	}

	loc, err := store.GetLocation(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get location", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get location")
		return
	}
	if loc == nil || loc.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "location not found")
		return
	}

	jsonResponse(w, http.StatusOK, loc)
}

// Delete handles DELETE /api/locations/{id}.
func (h *LocationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid location id")
		return
	}

	err := store.DeleteLocation(r.Context(), h.DB, id)
	if errors.Is(err, store.ErrLocationInUse) {
		jsonError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		slog.Error("failed to delete location", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete location")
		return
	}

	slog.Info("location deleted", "user", caller(r), "location_id", id)
	w.WriteHeader(http.StatusNoContent)
}
