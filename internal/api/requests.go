package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"stockroom/internal/model"
	"stockroom/internal/store"
)

// RequestsHandler handles transfer request endpoints.
type RequestsHandler struct {
	DB *sql.DB
}

type createRequestRequest struct {
	ItemName string `json:"item_name"`
	Quantity int    `json:"quantity"`
}

type updateRequestStatusRequest struct {
	Status string `json:"status"`
}

type confirmReceiptRequest struct {
	ConfirmationStatus string `json:"confirmation_status"`
}

// List handles GET /api/requests.
func (h *RequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	status := model.RequestStatus(r.URL.Query().Get("status"))
	requests, err := store.ListRequests(r.Context(), h.DB, status)
	if err != nil {
		storeError(w, err, "failed to list requests")
		return
	}
	if requests == nil {
		requests = []model.TransferRequest{}
	}
	jsonResponse(w, http.StatusOK, requests)
}

// Create handles POST /api/requests. The requesting unit is taken from the
// caller's token, never from the body.
func (h *RequestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req createRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	request, err := store.CreateRequest(r.Context(), h.DB, claims.Username, claims.DisplayName, req.ItemName, req.Quantity)
	if err != nil {
		storeError(w, err, "failed to create request")
		return
	}

	slog.Info("transfer request created", "unit", claims.Username,
		"item", req.ItemName, "quantity", req.Quantity)
	jsonResponse(w, http.StatusCreated, request)
}

// UpdateStatus handles PATCH /api/requests/{id}/status. Approval moves the
// stock; the store layer guarantees it happens at most once per request.
func (h *RequestsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	var req updateRequestStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	request, err := store.UpdateRequestStatus(r.Context(), h.DB, id, model.RequestStatus(req.Status))
	if err != nil {
		storeError(w, err, "failed to update request status")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("transfer request status updated", "user", claims.Username,
		"request", id, "status", req.Status)
	jsonResponse(w, http.StatusOK, request)
}

// ConfirmReceipt handles PATCH /api/requests/{id}/confirmation.
func (h *RequestsHandler) ConfirmReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	var req confirmReceiptRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	request, err := store.ConfirmReceipt(r.Context(), h.DB, id, model.ConfirmationStatus(req.ConfirmationStatus))
	if err != nil {
		storeError(w, err, "failed to confirm receipt")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("transfer receipt recorded", "unit", claims.Username,
		"request", id, "confirmation", req.ConfirmationStatus)
	jsonResponse(w, http.StatusOK, request)
}
