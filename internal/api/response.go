package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/assetledger/internal/ledger"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// errorBody is the failure shape of every endpoint.
type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, errorBody{Message: message})
}

// statusFor maps a ledger error kind to an HTTP status.
func statusFor(kind ledger.Kind) int {
	switch kind {
	case ledger.KindValidation, ledger.KindInvalidUser, ledger.KindTypeMismatch:
		return http.StatusBadRequest
	case ledger.KindNotFound, ledger.KindLocationNotFound:
		return http.StatusNotFound
	case ledger.KindAlreadyAssigned, ledger.KindInsufficientStock, ledger.KindSameLocation:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ledgerError writes err as a failure response. Internal failures are logged
// and reported without detail.
func ledgerError(w http.ResponseWriter, r *http.Request, err error) {
	kind := ledger.KindOf(err)
	if kind == ledger.KindInternal {
		slog.Error("ledger operation failed", "method", r.Method, "path", r.URL.Path,
			"request_id", requestID(r.Context()), "error", err)
	}
	jsonResponse(w, statusFor(kind), errorBody{Message: ledger.PublicMessage(err), Kind: string(kind)})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, bool) {
	return parseID(r.PathValue("id"))
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil && id > 0
}
