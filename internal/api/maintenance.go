package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"stockroom/internal/model"
	"stockroom/internal/store"
)

// MaintenanceHandler handles maintenance request endpoints.
type MaintenanceHandler struct {
	DB *sql.DB
}

type createMaintenanceRequest struct {
	Title       string `json:"title"`
	ItemName    string `json:"item_name"`
	Quantity    int    `json:"quantity"`
	Priority    string `json:"priority"`
	Description string `json:"description"`
}

type updateMaintenanceRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// List handles GET /api/maintenance. Block managers see only their own
// tickets; store managers see everything, optionally filtered with
// ?submitted_by=.
func (h *MaintenanceHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	submittedBy := r.URL.Query().Get("submitted_by")
	if claims.Role != model.RoleStoreManager {
		submittedBy = claims.Username
	}

	list, err := store.ListMaintenance(r.Context(), h.DB, submittedBy)
	if err != nil {
		storeError(w, err, "failed to list maintenance requests")
		return
	}
	if list == nil {
		list = []model.MaintenanceRequest{}
	}
	jsonResponse(w, http.StatusOK, list)
}

// Create handles POST /api/maintenance. The submitter is the caller's unit.
func (h *MaintenanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req createMaintenanceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := store.CreateMaintenance(r.Context(), h.DB, req.Title, claims.Username,
		claims.DisplayName, req.ItemName, req.Quantity, model.Priority(req.Priority), req.Description)
	if err != nil {
		storeError(w, err, "failed to create maintenance request")
		return
	}

	slog.Info("maintenance request created", "unit", claims.Username,
		"title", req.Title, "item", req.ItemName)
	jsonResponse(w, http.StatusCreated, m)
}

// Update handles PATCH /api/maintenance/{id}.
func (h *MaintenanceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid maintenance request id")
		return
	}

	var req updateMaintenanceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := store.UpdateMaintenanceStatus(r.Context(), h.DB, id,
		model.MaintenanceStatus(req.Status), req.Notes)
	if err != nil {
		storeError(w, err, "failed to update maintenance request")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("maintenance request updated", "user", claims.Username,
		"request", id, "status", req.Status)
	jsonResponse(w, http.StatusOK, m)
}
