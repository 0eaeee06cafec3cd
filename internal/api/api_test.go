package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"stockroom/internal/db"
	"stockroom/internal/model"
	"stockroom/internal/store"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) (*httptest.Server, *sql.DB, string) {
	t.Helper()
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	// Create the store manager account.
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	store.CreateUser(ctx, database, "keeper", "Store Keeper", string(hash), model.RoleStoreManager)

	return server, database, login(t, server, "keeper", "password")
}

func login(t *testing.T, server *httptest.Server, username, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	json.NewDecoder(resp.Body).Decode(&loginResp)
	if loginResp.Token == "" {
		t.Fatal("empty token from login")
	}
	return loginResp.Token
}

// createBlockManager registers a block manager account and returns its token.
func createBlockManager(t *testing.T, server *httptest.Server, database *sql.DB, username, displayName string) string {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if _, err := store.CreateUser(context.Background(), database, username, displayName, string(hash), model.RoleBlockManager); err != nil {
		t.Fatalf("creating block manager: %v", err)
	}
	return login(t, server, username, "password")
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func doRequest(t *testing.T, method, url, token string, body any, wantStatus int) *http.Response {
	t.Helper()
	req, err := authRequest(method, url, token, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: status %d, want %d", method, url, resp.StatusCode, wantStatus)
	}
	return resp
}

func TestLoginEndpoint(t *testing.T) {
	server, _, _ := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{"username": "keeper", "password": "wrong"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLogoutRevokesToken(t *testing.T) {
	server, _, token := setupTestServer(t)

	resp := doRequest(t, "POST", server.URL+"/api/auth/logout", token, nil, http.StatusOK)
	resp.Body.Close()

	// The revoked token no longer works.
	req, _ := authRequest("GET", server.URL+"/api/inventories", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for revoked token, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestInventoryAPIFlow(t *testing.T) {
	server, _, token := setupTestServer(t)

	// Stock the central store.
	resp := doRequest(t, "POST", server.URL+"/api/inventories/items", token, map[string]any{
		"item_name":    "Chair",
		"item_count":   10,
		"display_name": "Central Store",
	}, http.StatusCreated)
	resp.Body.Close()

	// Duplicate item conflicts.
	resp = doRequest(t, "POST", server.URL+"/api/inventories/items", token, map[string]any{
		"item_name":  "Chair",
		"item_count": 5,
	}, http.StatusConflict)
	resp.Body.Close()

	// Correct the count.
	resp = doRequest(t, "PUT", server.URL+"/api/inventories/items", token, map[string]any{
		"item_name":  "Chair",
		"item_count": 12,
	}, http.StatusOK)
	var inv model.Inventory
	json.NewDecoder(resp.Body).Decode(&inv)
	resp.Body.Close()
	if len(inv.Items) != 1 || inv.Items[0].ItemCount != 12 {
		t.Errorf("items = %v, want one Chair at 12", inv.Items)
	}

	// The ledger saw both mutations.
	resp = doRequest(t, "GET", server.URL+"/api/inventories/"+model.StoreOwner+"/history", token, nil, http.StatusOK)
	var history []model.HistoryEntry
	json.NewDecoder(resp.Body).Decode(&history)
	resp.Body.Close()
	if len(history) != 2 {
		t.Errorf("expected 2 history entries, got %d", len(history))
	}

	// Unknown owner is a 404.
	resp = doRequest(t, "GET", server.URL+"/api/inventories/nobody", token, nil, http.StatusNotFound)
	resp.Body.Close()
}

func TestTransferRequestAPIFlow(t *testing.T) {
	server, database, managerToken := setupTestServer(t)
	unitToken := createBlockManager(t, server, database, "block1", "Block 1")

	resp := doRequest(t, "POST", server.URL+"/api/inventories/items", managerToken, map[string]any{
		"item_name":  "Chair",
		"item_count": 10,
	}, http.StatusCreated)
	resp.Body.Close()

	// The unit requests stock.
	resp = doRequest(t, "POST", server.URL+"/api/requests", unitToken, map[string]any{
		"item_name": "Chair",
		"quantity":  4,
	}, http.StatusCreated)
	var req model.TransferRequest
	json.NewDecoder(resp.Body).Decode(&req)
	resp.Body.Close()
	if req.RequestingUnit != "block1" {
		t.Errorf("requesting unit = %q, want block1 from the token", req.RequestingUnit)
	}

	// Units cannot approve their own requests.
	resp = doRequest(t, "PATCH", server.URL+"/api/requests/1/status", unitToken,
		map[string]string{"status": "approved"}, http.StatusForbidden)
	resp.Body.Close()

	// The store manager approves; stock moves.
	resp = doRequest(t, "PATCH", server.URL+"/api/requests/1/status", managerToken,
		map[string]string{"status": "approved"}, http.StatusOK)
	var approved model.TransferRequest
	json.NewDecoder(resp.Body).Decode(&approved)
	resp.Body.Close()
	if approved.Status != model.RequestApproved || approved.ApprovedDate == nil {
		t.Errorf("approved request = %+v", approved)
	}

	resp = doRequest(t, "GET", server.URL+"/api/inventories/block1", unitToken, nil, http.StatusOK)
	var unitInv model.Inventory
	json.NewDecoder(resp.Body).Decode(&unitInv)
	resp.Body.Close()
	if len(unitInv.Items) != 1 || unitInv.Items[0].ItemCount != 4 {
		t.Errorf("unit items = %v, want one Chair at 4", unitInv.Items)
	}

	// The unit confirms receipt.
	resp = doRequest(t, "PATCH", server.URL+"/api/requests/1/confirmation", unitToken,
		map[string]string{"confirmation_status": "confirmed"}, http.StatusOK)
	resp.Body.Close()

	// Over-asking surfaces as a 400.
	resp = doRequest(t, "POST", server.URL+"/api/requests", unitToken, map[string]any{
		"item_name": "Chair",
		"quantity":  100,
	}, http.StatusCreated)
	resp.Body.Close()
	resp = doRequest(t, "PATCH", server.URL+"/api/requests/2/status", managerToken,
		map[string]string{"status": "approved"}, http.StatusBadRequest)
	resp.Body.Close()
}

func TestIssuesAPIFlow(t *testing.T) {
	server, database, managerToken := setupTestServer(t)
	unitToken := createBlockManager(t, server, database, "block1", "Block 1")

	// Give the unit some stock directly.
	store.AddItem(context.Background(), database, "block1", "Block 1", "Chair", 10)

	resp := doRequest(t, "POST", server.URL+"/api/issues", unitToken, map[string]any{
		"item_name":   "Chair",
		"issue_type":  "Damaged",
		"quantity":    3,
		"description": "leg broke off",
	}, http.StatusCreated)
	var ticket model.IssueTicket
	json.NewDecoder(resp.Body).Decode(&ticket)
	resp.Body.Close()
	if ticket.Owner != "block1" || ticket.Quantity != 3 || ticket.Status != model.IssuePending {
		t.Errorf("ticket = %+v", ticket)
	}

	// Units cannot file issues for other units.
	resp = doRequest(t, "POST", server.URL+"/api/issues", unitToken, map[string]any{
		"owner":      "block2",
		"item_name":  "Chair",
		"issue_type": "Damaged",
		"quantity":   1,
	}, http.StatusForbidden)
	resp.Body.Close()

	// The store manager sees the ticket in the global list.
	resp = doRequest(t, "GET", server.URL+"/api/issues", managerToken, nil, http.StatusOK)
	var tickets []model.IssueTicket
	json.NewDecoder(resp.Body).Decode(&tickets)
	resp.Body.Close()
	if len(tickets) != 1 {
		t.Fatalf("expected 1 ticket, got %d", len(tickets))
	}

	// Resolve it.
	url := server.URL + "/api/issues/block1/" + itoa(ticket.EntryID)
	resp = doRequest(t, "PATCH", url, managerToken, map[string]string{
		"status":     "resolved",
		"resolution": "replaced",
	}, http.StatusOK)
	var resolved model.IssueTicket
	json.NewDecoder(resp.Body).Decode(&resolved)
	resp.Body.Close()
	if resolved.Status != model.IssueResolved || resolved.ResolvedDate == nil {
		t.Errorf("resolved ticket = %+v", resolved)
	}

	// Delete it; the stock debit stays.
	resp = doRequest(t, "DELETE", url, managerToken, nil, http.StatusOK)
	resp.Body.Close()

	inv, _ := store.GetInventory(context.Background(), database, "block1")
	if inv.Items[0].ItemCount != 7 {
		t.Errorf("count = %d after ticket deletion, want 7", inv.Items[0].ItemCount)
	}
}

func TestMaintenanceAPIFlow(t *testing.T) {
	server, database, managerToken := setupTestServer(t)
	unitToken := createBlockManager(t, server, database, "block1", "Block 1")

	store.AddItem(context.Background(), database, "block1", "Block 1", "Projector", 2)

	resp := doRequest(t, "POST", server.URL+"/api/maintenance", unitToken, map[string]any{
		"title":       "Projector flickers",
		"item_name":   "Projector",
		"quantity":    1,
		"description": "image cuts out",
	}, http.StatusCreated)
	var m model.MaintenanceRequest
	json.NewDecoder(resp.Body).Decode(&m)
	resp.Body.Close()
	if m.SubmittedBy != "block1" || m.Priority != model.PriorityMedium {
		t.Errorf("request = %+v", m)
	}

	// Units cannot change status.
	resp = doRequest(t, "PATCH", server.URL+"/api/maintenance/"+itoa(m.ID), unitToken,
		map[string]string{"status": "completed"}, http.StatusForbidden)
	resp.Body.Close()

	// The store manager completes it.
	resp = doRequest(t, "PATCH", server.URL+"/api/maintenance/"+itoa(m.ID), managerToken,
		map[string]string{"status": "completed", "notes": "lamp replaced"}, http.StatusOK)
	var done model.MaintenanceRequest
	json.NewDecoder(resp.Body).Decode(&done)
	resp.Body.Close()
	if done.Status != model.MaintenanceCompleted || done.ResolvedDate == nil {
		t.Errorf("completed request = %+v", done)
	}
}

func TestUnauthenticatedAccess(t *testing.T) {
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	resp, _ := http.Get(server.URL + "/api/inventories")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRoleBasedAccess(t *testing.T) {
	server, database, _ := setupTestServer(t)
	unitToken := createBlockManager(t, server, database, "block1", "Block 1")

	// Block managers cannot stock the store.
	resp := doRequest(t, "POST", server.URL+"/api/inventories/items", unitToken, map[string]any{
		"item_name":  "Chair",
		"item_count": 5,
	}, http.StatusForbidden)
	resp.Body.Close()

	// Block managers cannot manage users.
	resp = doRequest(t, "GET", server.URL+"/api/users", unitToken, nil, http.StatusForbidden)
	resp.Body.Close()
}

func TestUserManagementAPI(t *testing.T) {
	server, _, token := setupTestServer(t)

	resp := doRequest(t, "POST", server.URL+"/api/users", token, map[string]string{
		"username":     "block1",
		"display_name": "Block 1",
		"password":     "longenough",
		"role":         model.RoleBlockManager,
	}, http.StatusCreated)
	var created model.User
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()

	// Short passwords are rejected.
	resp = doRequest(t, "POST", server.URL+"/api/users", token, map[string]string{
		"username": "block2",
		"password": "short",
		"role":     model.RoleBlockManager,
	}, http.StatusBadRequest)
	resp.Body.Close()

	// Duplicate usernames conflict.
	resp = doRequest(t, "POST", server.URL+"/api/users", token, map[string]string{
		"username": "block1",
		"password": "longenough",
		"role":     model.RoleBlockManager,
	}, http.StatusConflict)
	resp.Body.Close()

	resp = doRequest(t, "DELETE", server.URL+"/api/users/"+itoa(created.ID), token, nil, http.StatusOK)
	resp.Body.Close()

	// Self-deletion is refused.
	resp = doRequest(t, "DELETE", server.URL+"/api/users/1", token, nil, http.StatusBadRequest)
	resp.Body.Close()
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
