package api

import (
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/assetledger/internal/ledger"
	"github.com/erazemk/assetledger/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sqlx.DB, l *ledger.Ledger, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	assetsHandler := &AssetsHandler{Ledger: l}
	assignmentsHandler := &AssignmentsHandler{Ledger: l}
	locationsHandler := &LocationsHandler{DB: db}
	usersHandler := &UsersHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	// Public: liveness.
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			jsonError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Assets: read (all roles), write (manager+).
	mux.Handle("GET /api/assets", authMW(http.HandlerFunc(assetsHandler.List)))
	mux.Handle("POST /api/assets", authMW(requireManager(http.HandlerFunc(assetsHandler.Create))))
	mux.Handle("GET /api/assets/{id}", authMW(http.HandlerFunc(assetsHandler.Get)))
	mux.Handle("PUT /api/assets/{id}/status", authMW(requireManager(http.HandlerFunc(assetsHandler.SetStatus))))
	mux.Handle("POST /api/assets/{id}/move", authMW(requireManager(http.HandlerFunc(assetsHandler.Move))))
	mux.Handle("POST /api/assets/{id}/relocate", authMW(requireManager(http.HandlerFunc(assetsHandler.Relocate))))
	mux.Handle("GET /api/assets/{id}/history", authMW(http.HandlerFunc(assetsHandler.History)))

	// Stock: read (all roles), restock (manager+).
	mux.Handle("POST /api/assets/{id}/restock", authMW(requireManager(http.HandlerFunc(assetsHandler.Restock))))
	mux.Handle("GET /api/assets/{id}/stock", authMW(http.HandlerFunc(assetsHandler.Stock)))
	mux.Handle("GET /api/stock/low", authMW(http.HandlerFunc(assetsHandler.LowStock)))

	// Assignments: read (all roles), issue/return (manager+), delete (admin).
	mux.Handle("GET /api/assignments", authMW(http.HandlerFunc(assignmentsHandler.List)))
	mux.Handle("POST /api/assignments", authMW(requireManager(http.HandlerFunc(assignmentsHandler.Create))))
	mux.Handle("POST /api/assignments/bulk-delete", authMW(requireAdmin(http.HandlerFunc(assignmentsHandler.BulkDelete))))
	mux.Handle("GET /api/assignments/{id}", authMW(http.HandlerFunc(assignmentsHandler.Get)))
	mux.Handle("POST /api/assignments/{id}/return", authMW(requireManager(http.HandlerFunc(assignmentsHandler.Return))))
	mux.Handle("DELETE /api/assignments/{id}", authMW(requireAdmin(http.HandlerFunc(assignmentsHandler.Delete))))

	// Locations: read (all roles), write (manager+), delete (admin).
	mux.Handle("GET /api/locations", authMW(http.HandlerFunc(locationsHandler.List)))
	mux.Handle("POST /api/locations", authMW(requireManager(http.HandlerFunc(locationsHandler.Create))))
	mux.Handle("GET /api/locations/{id}", authMW(http.HandlerFunc(locationsHandler.Get)))
	mux.Handle("DELETE /api/locations/{id}", authMW(requireAdmin(http.HandlerFunc(locationsHandler.Delete))))

	// Users: read (all roles), write (admin).
	mux.Handle("GET /api/users", authMW(http.HandlerFunc(usersHandler.List)))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{payroll}", authMW(http.HandlerFunc(usersHandler.Get)))
	mux.Handle("PUT /api/users/{payroll}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("DELETE /api/users/{payroll}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	return mux
}
