package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"stockroom/internal/imaging"
	"stockroom/internal/model"
	"stockroom/internal/store"
)

// IssuesHandler handles issue ticket endpoints.
type IssuesHandler struct {
	DB *sql.DB
}

type createIssueRequest struct {
	Owner       string `json:"owner"`
	ItemName    string `json:"item_name"`
	IssueType   string `json:"issue_type"`
	Quantity    int    `json:"quantity"`
	Description string `json:"description"`
}

type updateIssueRequest struct {
	Status     string `json:"status"`
	Resolution string `json:"resolution"`
}

// List handles GET /api/issues. Block managers see only their own tickets;
// store managers see everything, optionally filtered with ?owner=.
func (h *IssuesHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	owner := r.URL.Query().Get("owner")
	if claims.Role != model.RoleStoreManager {
		owner = claims.Username
	}

	issues, err := store.ListIssues(r.Context(), h.DB, owner)
	if err != nil {
		storeError(w, err, "failed to list issues")
		return
	}
	if issues == nil {
		issues = []model.IssueTicket{}
	}
	jsonResponse(w, http.StatusOK, issues)
}

// Create handles POST /api/issues. The owner defaults to the caller's unit;
// only store managers may file against another owner.
func (h *IssuesHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req createIssueRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Owner == "" {
		req.Owner = claims.Username
	}
	if req.Owner != claims.Username && claims.Role != model.RoleStoreManager {
		jsonError(w, http.StatusForbidden, "cannot file issues for another unit")
		return
	}

	action := model.Action(normalizeIssueType(req.IssueType))
	ticket, err := store.LogIssue(r.Context(), h.DB, req.Owner, req.ItemName, action, req.Quantity, req.Description)
	if err != nil {
		storeError(w, err, "failed to log issue")
		return
	}

	slog.Info("issue logged", "user", claims.Username, "owner", req.Owner,
		"item", req.ItemName, "type", string(action), "quantity", req.Quantity)
	jsonResponse(w, http.StatusCreated, ticket)
}

// Update handles PATCH /api/issues/{owner}/{id}.
func (h *IssuesHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner, entryID, ok := issuePath(w, r)
	if !ok {
		return
	}

	var req updateIssueRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ticket, err := store.UpdateIssueStatus(r.Context(), h.DB, owner, entryID,
		model.IssueStatus(req.Status), req.Resolution)
	if err != nil {
		storeError(w, err, "failed to update issue")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("issue updated", "user", claims.Username, "owner", owner,
		"entry", entryID, "status", req.Status)
	jsonResponse(w, http.StatusOK, ticket)
}

// Delete handles DELETE /api/issues/{owner}/{id}.
func (h *IssuesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, entryID, ok := issuePath(w, r)
	if !ok {
		return
	}

	if err := store.DeleteIssue(r.Context(), h.DB, owner, entryID); err != nil {
		storeError(w, err, "failed to delete issue")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("issue deleted", "user", claims.Username, "owner", owner, "entry", entryID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "issue deleted"})
}

// UploadPhoto handles PUT /api/issues/{owner}/{id}/photo.
func (h *IssuesHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	owner, entryID, ok := issuePath(w, r)
	if !ok {
		return
	}

	// Limit to 5 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	photo, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetIssuePhoto(r.Context(), h.DB, owner, entryID, photo.Data, photo.MIME); err != nil {
		storeError(w, err, "failed to save photo")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "photo uploaded"})
}

// GetPhoto handles GET /api/issues/{owner}/{id}/photo.
func (h *IssuesHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	owner, entryID, ok := issuePath(w, r)
	if !ok {
		return
	}

	data, mime, err := store.GetIssuePhoto(r.Context(), h.DB, owner, entryID)
	if err != nil {
		storeError(w, err, "failed to get photo")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// issuePath extracts the owner and entry ID path values, writing the error
// response itself when the ID does not parse.
func issuePath(w http.ResponseWriter, r *http.Request) (string, int64, bool) {
	entryID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid issue id")
		return "", 0, false
	}
	return r.PathValue("owner"), entryID, true
}

// normalizeIssueType lowercases the ticket-facing type names (Damaged,
// Expired, Returned) to their ledger actions.
func normalizeIssueType(issueType string) string {
	switch issueType {
	case "Damaged", "damaged":
		return "damaged"
	case "Expired", "expired":
		return "expired"
	case "Returned", "returned":
		return "returned"
	}
	return issueType
}
