package api

import (
	"net/http"

	"github.com/erazemk/assetledger/internal/ledger"
	"github.com/erazemk/assetledger/internal/model"
)

// AssignmentsHandler handles the assignment lifecycle endpoints.
type AssignmentsHandler struct {
	Ledger *ledger.Ledger
}

type createAssignmentRequest struct {
	AssetID         int64  `json:"asset_id"`
	AssignedTo      string `json:"assigned_to"`
	Quantity        int    `json:"quantity"`
	ConditionIssued string `json:"condition_issued"`
	Notes           string `json:"notes"`
	ForceLocationID *int64 `json:"force_location_id"`
}

type returnRequest struct {
	ConditionReturned string `json:"condition_returned"`
	Quantity          *int   `json:"quantity"`
	ReturnLocationID  *int64 `json:"return_location_id"`
	Notes             string `json:"notes"`
}

type deleteRequest struct {
	Reason string `json:"reason"`
}

type bulkDeleteRequest struct {
	IDs    []int64 `json:"ids"`
	Reason string  `json:"reason"`
}

// List handles GET /api/assignments.
// Filters: ?asset_id=, ?assigned_to=, ?status=, ?include_deleted=true.
func (h *AssignmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ledger.AssignmentFilter{
		AssignedTo:     q.Get("assigned_to"),
		Status:         q.Get("status"),
		IncludeDeleted: q.Get("include_deleted") == "true",
	}
	if v := q.Get("asset_id"); v != "" {
		id, ok := parseID(v)
		if !ok {
			jsonError(w, http.StatusBadRequest, "invalid asset_id")
			return
		}
		filter.AssetID = id
	}

	list, err := h.Ledger.ListAssignments(r.Context(), filter)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, list)
}

// Get handles GET /api/assignments/{id}.
func (h *AssignmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid assignment id")
		return
	}
	as, err := h.Ledger.GetAssignment(r.Context(), id)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, as)
}

// Create handles POST /api/assignments.
func (h *AssignmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAssignmentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	as, err := h.Ledger.Create(r.Context(), ledger.CreateRequest{
		AssetID:         req.AssetID,
		AssignedTo:      req.AssignedTo,
		AssignedBy:      caller(r),
		Quantity:        req.Quantity,
		ConditionIssued: req.ConditionIssued,
		Notes:           req.Notes,
		ForceLocationID: req.ForceLocationID,
	})
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, as)
}

// Return handles POST /api/assignments/{id}/return.
func (h *AssignmentsHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid assignment id")
		return
	}
	var req returnRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	as, err := h.Ledger.Return(r.Context(), ledger.ReturnRequest{
		AssignmentID:      id,
		ReturnedBy:        caller(r),
		ConditionReturned: req.ConditionReturned,
		Quantity:          req.Quantity,
		ReturnLocationID:  req.ReturnLocationID,
		Notes:             req.Notes,
	})
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, as)
}

// Delete handles DELETE /api/assignments/{id}. The body may carry a reason.
func (h *AssignmentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid assignment id")
		return
	}
	var req deleteRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	asset, err := h.Ledger.Delete(r.Context(), ledger.DeleteRequest{
		AssignmentID: id,
		DeletedBy:    caller(r),
		Reason:       req.Reason,
	})
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]*model.Asset{"restored_asset": asset})
}

// BulkDelete handles POST /api/assignments/bulk-delete. It answers 200 with
// per-id results even when some deletions fail.
func (h *AssignmentsHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Ledger.BulkDelete(r.Context(), req.IDs, caller(r), req.Reason)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, result)
}
