package api

import (
	"net/http"

	"github.com/erazemk/assetledger/internal/ledger"
	"github.com/erazemk/assetledger/internal/model"
)

// AssetsHandler handles asset, movement and stock endpoints.
type AssetsHandler struct {
	Ledger *ledger.Ledger
}

type createAssetRequest struct {
	Name          string `json:"name"`
	ModelNumber   string `json:"model_number"`
	LocationID    int64  `json:"location_id"`
	KeeperPayroll string `json:"keeper_payroll_number"`
	Notes         string `json:"notes"`
	IsBulk        bool   `json:"is_bulk"`

	SerialNumber     string `json:"serial_number"`
	IndividualStatus string `json:"individual_status"`

	CurrentStockLevel int `json:"current_stock_level"`
	MinimumThreshold  int `json:"minimum_threshold"`
}

func (req *createAssetRequest) variant() model.Variant {
	if req.IsBulk {
		return &model.Bulk{CurrentStockLevel: req.CurrentStockLevel, MinimumThreshold: req.MinimumThreshold}
	}
	return &model.Unique{SerialNumber: req.SerialNumber, IndividualStatus: req.IndividualStatus}
}

type moveRequest struct {
	ToLocationID int64  `json:"to_location_id"`
	Notes        string `json:"notes"`
}

type restockRequest struct {
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// List handles GET /api/assets. ?kind=unique|bulk filters by kind.
func (h *AssetsHandler) List(w http.ResponseWriter, r *http.Request) {
	assets, err := h.Ledger.ListAssets(r.Context(), r.URL.Query().Get("kind"))
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, assets)
}

// Get handles GET /api/assets/{id}.
func (h *AssetsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid asset id")
		return
	}
	asset, err := h.Ledger.GetAsset(r.Context(), id)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, asset)
}

// Create handles POST /api/assets.
func (h *AssetsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAssetRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	asset, err := h.Ledger.CreateAsset(r.Context(), ledger.CreateAssetRequest{
		Name:          req.Name,
		ModelNumber:   req.ModelNumber,
		LocationID:    req.LocationID,
		KeeperPayroll: req.KeeperPayroll,
		Notes:         req.Notes,
		CreatedBy:     caller(r),
		Variant:       req.variant(),
	})
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, asset)
}

// Move handles POST /api/assets/{id}/move.
func (h *AssetsHandler) Move(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid asset id")
		return
	}
	var req moveRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	movement, asset, err := h.Ledger.MoveAsset(r.Context(), ledger.MoveRequest{
		AssetID:      id,
		ToLocationID: req.ToLocationID,
		MovedBy:      caller(r),
		Notes:        req.Notes,
	})
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"movement": movement, "asset": asset})
}

// Relocate handles POST /api/assets/{id}/relocate for assets that are
// currently assigned.
func (h *AssetsHandler) Relocate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid asset id")
		return
	}
	var req moveRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Ledger.MoveAssignedAsset(r.Context(), ledger.MoveAssignedRequest{
		AssetID:      id,
		ToLocationID: req.ToLocationID,
		MovedBy:      caller(r),
		Notes:        req.Notes,
	})
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, result)
}

// History handles GET /api/assets/{id}/history.
func (h *AssetsHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid asset id")
		return
	}
	history, err := h.Ledger.History(r.Context(), id)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, history)
}

// Restock handles POST /api/assets/{id}/restock.
func (h *AssetsHandler) Restock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid asset id")
		return
	}
	var req restockRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	log, asset, err := h.Ledger.Restock(r.Context(), ledger.RestockRequest{
		AssetID:     id,
		Quantity:    req.Quantity,
		RestockedBy: caller(r),
		Notes:       req.Notes,
	})
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, map[string]any{"restock": log, "asset": asset})
}

// Stock handles GET /api/assets/{id}/stock.
func (h *AssetsHandler) Stock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid asset id")
		return
	}
	report, err := h.Ledger.Report(r.Context(), id)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, report)
}

// LowStock handles GET /api/stock/low.
func (h *AssetsHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	assets, err := h.Ledger.ListLowStock(r.Context())
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, assets)
}

// SetStatus handles PUT /api/assets/{id}/status.
func (h *AssetsHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid asset id")
		return
	}
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	asset, err := h.Ledger.SetAssetStatus(r.Context(), id, req.Status, caller(r))
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, asset)
}
