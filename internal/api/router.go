package api

import (
	"database/sql"
	"net/http"

	"stockroom/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	inventoryHandler := &InventoryHandler{DB: db}
	requestsHandler := &RequestsHandler{DB: db}
	issuesHandler := &IssuesHandler{DB: db}
	maintenanceHandler := &MaintenanceHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireStoreManager := RequireRole(model.RoleStoreManager)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated session routes.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("GET /api/auth/profile", authMW(http.HandlerFunc(authHandler.Profile)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Users (store manager only).
	mux.Handle("GET /api/users", authMW(requireStoreManager(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireStoreManager(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireStoreManager(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireStoreManager(http.HandlerFunc(usersHandler.Delete))))

	// Inventories: read (all roles), write (store manager only).
	mux.Handle("GET /api/inventories", authMW(http.HandlerFunc(inventoryHandler.List)))
	mux.Handle("GET /api/inventories/{owner}", authMW(http.HandlerFunc(inventoryHandler.Get)))
	mux.Handle("GET /api/inventories/{owner}/history", authMW(http.HandlerFunc(inventoryHandler.GetHistory)))
	mux.Handle("POST /api/inventories/items", authMW(requireStoreManager(http.HandlerFunc(inventoryHandler.AddItem))))
	mux.Handle("PUT /api/inventories/items", authMW(requireStoreManager(http.HandlerFunc(inventoryHandler.UpdateItem))))

	// Transfer requests: approval is a store manager decision.
	mux.Handle("GET /api/requests", authMW(http.HandlerFunc(requestsHandler.List)))
	mux.Handle("POST /api/requests", authMW(http.HandlerFunc(requestsHandler.Create)))
	mux.Handle("PATCH /api/requests/{id}/status", authMW(requireStoreManager(http.HandlerFunc(requestsHandler.UpdateStatus))))
	mux.Handle("PATCH /api/requests/{id}/confirmation", authMW(http.HandlerFunc(requestsHandler.ConfirmReceipt)))

	// Issue tickets.
	mux.Handle("GET /api/issues", authMW(http.HandlerFunc(issuesHandler.List)))
	mux.Handle("POST /api/issues", authMW(http.HandlerFunc(issuesHandler.Create)))
	mux.Handle("PATCH /api/issues/{owner}/{id}", authMW(http.HandlerFunc(issuesHandler.Update)))
	mux.Handle("DELETE /api/issues/{owner}/{id}", authMW(http.HandlerFunc(issuesHandler.Delete)))
	mux.Handle("PUT /api/issues/{owner}/{id}/photo", authMW(http.HandlerFunc(issuesHandler.UploadPhoto)))
	mux.Handle("GET /api/issues/{owner}/{id}/photo", authMW(http.HandlerFunc(issuesHandler.GetPhoto)))

	// Maintenance requests: status changes are a store manager decision.
	mux.Handle("GET /api/maintenance", authMW(http.HandlerFunc(maintenanceHandler.List)))
	mux.Handle("POST /api/maintenance", authMW(http.HandlerFunc(maintenanceHandler.Create)))
	mux.Handle("PATCH /api/maintenance/{id}", authMW(requireStoreManager(http.HandlerFunc(maintenanceHandler.Update))))

	return mux
}
