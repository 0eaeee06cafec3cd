package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"stockroom/internal/model"
	"stockroom/internal/store"
)

// InventoryHandler handles inventory and history endpoints.
type InventoryHandler struct {
	DB *sql.DB
}

type addItemRequest struct {
	Owner       string `json:"owner"`
	DisplayName string `json:"display_name"`
	ItemName    string `json:"item_name"`
	ItemCount   int    `json:"item_count"`
}

type updateItemRequest struct {
	Owner     string `json:"owner"`
	ItemName  string `json:"item_name"`
	ItemCount int    `json:"item_count"`
}

// List handles GET /api/inventories.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	inventories, err := store.ListInventories(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to list inventories")
		return
	}
	if inventories == nil {
		inventories = []model.Inventory{}
	}
	jsonResponse(w, http.StatusOK, inventories)
}

// Get handles GET /api/inventories/{owner}.
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	inv, err := store.GetInventory(r.Context(), h.DB, r.PathValue("owner"))
	if err != nil {
		storeError(w, err, "failed to get inventory")
		return
	}
	jsonResponse(w, http.StatusOK, inv)
}

// GetHistory handles GET /api/inventories/{owner}/history.
func (h *InventoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	history, err := store.GetHistory(r.Context(), h.DB, r.PathValue("owner"))
	if err != nil {
		storeError(w, err, "failed to get history")
		return
	}
	if history == nil {
		history = []model.HistoryEntry{}
	}
	jsonResponse(w, http.StatusOK, history)
}

// AddItem handles POST /api/inventories/items. The owner defaults to the
// central store; a missing inventory is created on first use.
func (h *InventoryHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Owner == "" {
		req.Owner = model.StoreOwner
	}

	inv, err := store.AddItem(r.Context(), h.DB, req.Owner, req.DisplayName, req.ItemName, req.ItemCount)
	if err != nil {
		storeError(w, err, "failed to add item")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("item added", "user", claims.Username, "owner", req.Owner,
		"item", req.ItemName, "count", req.ItemCount)
	jsonResponse(w, http.StatusCreated, inv)
}

// UpdateItem handles PUT /api/inventories/items.
func (h *InventoryHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Owner == "" {
		req.Owner = model.StoreOwner
	}

	inv, err := store.SetItemCount(r.Context(), h.DB, req.Owner, req.ItemName, req.ItemCount)
	if err != nil {
		storeError(w, err, "failed to update item")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("item count updated", "user", claims.Username, "owner", req.Owner,
		"item", req.ItemName, "count", req.ItemCount)
	jsonResponse(w, http.StatusOK, inv)
}
