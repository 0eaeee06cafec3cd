package store

import (
	"context"
	"errors"
	"testing"

	"stockroom/internal/db"
	"stockroom/internal/model"
)

func TestCreateRequest(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	req, err := CreateRequest(ctx, database, "block1", "Block 1", "Chair", 4)
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if req.Status != model.RequestPending {
		t.Errorf("status = %q, want pending", req.Status)
	}
	if req.ConfirmationStatus != model.ConfirmationPending {
		t.Errorf("confirmation status = %q, want pending", req.ConfirmationStatus)
	}
	if req.ApprovedDate != nil {
		t.Errorf("approved date = %v, want nil before approval", req.ApprovedDate)
	}
}

func TestCreateRequestValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateRequest(ctx, database, "", "Block 1", "Chair", 1); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty unit: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := CreateRequest(ctx, database, "block1", "Block 1", "", 1); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty item: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := CreateRequest(ctx, database, "block1", "Block 1", "Chair", 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("zero quantity: expected ErrInvalidArgument, got %v", err)
	}
}

func TestApproveRequestNewUnit(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	AddItem(ctx, database, model.StoreOwner, "Central Store", "Chair", 10)
	req, _ := CreateRequest(ctx, database, "block1", "Block 1", "Chair", 4)

	updated, err := UpdateRequestStatus(ctx, database, req.ID, model.RequestApproved)
	if err != nil {
		t.Fatalf("approving request: %v", err)
	}
	if updated.Status != model.RequestApproved {
		t.Errorf("status = %q, want approved", updated.Status)
	}
	if updated.ApprovedDate == nil {
		t.Error("expected approved date to be stamped")
	}

	// Store debited.
	storeInv, _ := GetInventory(ctx, database, model.StoreOwner)
	if storeInv.Items[0].ItemCount != 6 {
		t.Errorf("store count = %d, want 6", storeInv.Items[0].ItemCount)
	}

	// Unit inventory created and credited.
	unitInv, err := GetInventory(ctx, database, "block1")
	if err != nil {
		t.Fatalf("unit inventory not created: %v", err)
	}
	if unitInv.DisplayName != "Block 1" {
		t.Errorf("unit display name = %q, want Block 1", unitInv.DisplayName)
	}
	if len(unitInv.Items) != 1 || unitInv.Items[0].ItemCount != 4 {
		t.Fatalf("unit items = %v, want one Chair at 4", unitInv.Items)
	}

	// Paired ledger entries: a sent debit on the store side and an added
	// credit with previous quantity 0 on the unit side.
	storeHistory, _ := GetHistory(ctx, database, model.StoreOwner)
	var sent *model.HistoryEntry
	for i := range storeHistory {
		if storeHistory[i].Action == model.ActionSent {
			sent = &storeHistory[i]
		}
	}
	if sent == nil {
		t.Fatal("expected a sent entry in the store ledger")
	}
	if sent.Quantity != 6 || sent.PreviousQuantity == nil || *sent.PreviousQuantity != 10 {
		t.Errorf("sent entry quantity = %d prev = %v, want 6 prev 10", sent.Quantity, sent.PreviousQuantity)
	}
	if sent.FromOwner != model.StoreOwner || sent.ToOwner != "block1" {
		t.Errorf("sent entry from/to = %q/%q", sent.FromOwner, sent.ToOwner)
	}

	unitHistory, _ := GetHistory(ctx, database, "block1")
	if len(unitHistory) != 1 {
		t.Fatalf("expected 1 unit ledger entry, got %d", len(unitHistory))
	}
	credit := unitHistory[0]
	if credit.Action != model.ActionAdded {
		t.Errorf("credit action = %q, want added", credit.Action)
	}
	if credit.Quantity != 4 || credit.PreviousQuantity == nil || *credit.PreviousQuantity != 0 {
		t.Errorf("credit quantity = %d prev = %v, want 4 prev 0", credit.Quantity, credit.PreviousQuantity)
	}
	if credit.FromOwner != model.StoreOwner || credit.ToOwner != "block1" {
		t.Errorf("credit entry from/to = %q/%q", credit.FromOwner, credit.ToOwner)
	}
}

func TestApproveRequestExistingItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	AddItem(ctx, database, model.StoreOwner, "Central Store", "Chair", 10)
	AddItem(ctx, database, "block1", "Block 1", "Chair", 2)
	req, _ := CreateRequest(ctx, database, "block1", "Block 1", "Chair", 3)

	if _, err := UpdateRequestStatus(ctx, database, req.ID, model.RequestApproved); err != nil {
		t.Fatalf("approving request: %v", err)
	}

	unitInv, _ := GetInventory(ctx, database, "block1")
	if unitInv.Items[0].ItemCount != 5 {
		t.Errorf("unit count = %d, want 5", unitInv.Items[0].ItemCount)
	}

	// The credit on an already-held item is an updated entry recording the
	// pre-transfer count.
	unitHistory, _ := GetHistory(ctx, database, "block1")
	var credit *model.HistoryEntry
	for i := range unitHistory {
		if unitHistory[i].Action == model.ActionUpdated {
			credit = &unitHistory[i]
		}
	}
	if credit == nil {
		t.Fatal("expected an updated entry in the unit ledger")
	}
	if credit.Quantity != 5 || credit.PreviousQuantity == nil || *credit.PreviousQuantity != 2 {
		t.Errorf("credit quantity = %d prev = %v, want 5 prev 2", credit.Quantity, credit.PreviousQuantity)
	}
}

func TestApproveRequestInsufficientStock(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	AddItem(ctx, database, model.StoreOwner, "Central Store", "Chair", 2)
	req, _ := CreateRequest(ctx, database, "block1", "Block 1", "Chair", 5)

	_, err := UpdateRequestStatus(ctx, database, req.ID, model.RequestApproved)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// Nothing moved: the debit failed, so the whole approval rolled back.
	storeInv, _ := GetInventory(ctx, database, model.StoreOwner)
	if storeInv.Items[0].ItemCount != 2 {
		t.Errorf("store count = %d, want 2", storeInv.Items[0].ItemCount)
	}
	if _, err := GetInventory(ctx, database, "block1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unit inventory should not exist, got %v", err)
	}
	got, _ := GetRequest(ctx, database, req.ID)
	if got.Status != model.RequestPending {
		t.Errorf("request status = %q, want still pending", got.Status)
	}
}

func TestApproveRequestMissingStoreItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	AddItem(ctx, database, model.StoreOwner, "Central Store", "Chair", 10)
	req, _ := CreateRequest(ctx, database, "block1", "Block 1", "Desk", 1)

	if _, err := UpdateRequestStatus(ctx, database, req.ID, model.RequestApproved); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing store item, got %v", err)
	}
}

func TestApproveRequestIdempotent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	AddItem(ctx, database, model.StoreOwner, "Central Store", "Chair", 10)
	req, _ := CreateRequest(ctx, database, "block1", "Block 1", "Chair", 4)

	UpdateRequestStatus(ctx, database, req.ID, model.RequestApproved)
	if _, err := UpdateRequestStatus(ctx, database, req.ID, model.RequestApproved); err != nil {
		t.Fatalf("re-approving: %v", err)
	}

	// The transfer must have applied exactly once.
	storeInv, _ := GetInventory(ctx, database, model.StoreOwner)
	if storeInv.Items[0].ItemCount != 6 {
		t.Errorf("store count = %d after double approve, want 6", storeInv.Items[0].ItemCount)
	}
	unitInv, _ := GetInventory(ctx, database, "block1")
	if unitInv.Items[0].ItemCount != 4 {
		t.Errorf("unit count = %d after double approve, want 4", unitInv.Items[0].ItemCount)
	}
}

func TestRejectThenApprove(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	AddItem(ctx, database, model.StoreOwner, "Central Store", "Chair", 10)
	req, _ := CreateRequest(ctx, database, "block1", "Block 1", "Chair", 4)

	rejected, err := UpdateRequestStatus(ctx, database, req.ID, model.RequestRejected)
	if err != nil {
		t.Fatalf("rejecting: %v", err)
	}
	if rejected.ApprovedDate != nil {
		t.Error("rejection must not carry an approval date")
	}

	// Rejection has no inventory effect.
	storeInv, _ := GetInventory(ctx, database, model.StoreOwner)
	if storeInv.Items[0].ItemCount != 10 {
		t.Errorf("store count = %d after reject, want 10", storeInv.Items[0].ItemCount)
	}

	// A rejected request can still be approved later, applying the transfer.
	approved, err := UpdateRequestStatus(ctx, database, req.ID, model.RequestApproved)
	if err != nil {
		t.Fatalf("approving after reject: %v", err)
	}
	if approved.ApprovedDate == nil {
		t.Error("expected approved date after approval")
	}
	storeInv, _ = GetInventory(ctx, database, model.StoreOwner)
	if storeInv.Items[0].ItemCount != 6 {
		t.Errorf("store count = %d, want 6", storeInv.Items[0].ItemCount)
	}
}

func TestUpdateRequestStatusInvalid(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := UpdateRequestStatus(ctx, database, 1, "bogus"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := UpdateRequestStatus(ctx, database, 99, model.RequestRejected); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListRequestsFilter(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	AddItem(ctx, database, model.StoreOwner, "Central Store", "Chair", 10)
	r1, _ := CreateRequest(ctx, database, "block1", "Block 1", "Chair", 1)
	CreateRequest(ctx, database, "block2", "Block 2", "Chair", 2)
	UpdateRequestStatus(ctx, database, r1.ID, model.RequestApproved)

	all, err := ListRequests(ctx, database, "")
	if err != nil {
		t.Fatalf("ListRequests: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(all))
	}

	pending, _ := ListRequests(ctx, database, model.RequestPending)
	if len(pending) != 1 || pending[0].RequestingUnit != "block2" {
		t.Errorf("pending filter returned %v", pending)
	}

	if _, err := ListRequests(ctx, database, "bogus"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for bad filter, got %v", err)
	}
}

func TestConfirmReceipt(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	AddItem(ctx, database, model.StoreOwner, "Central Store", "Chair", 10)
	req, _ := CreateRequest(ctx, database, "block1", "Block 1", "Chair", 4)
	UpdateRequestStatus(ctx, database, req.ID, model.RequestApproved)

	confirmed, err := ConfirmReceipt(ctx, database, req.ID, model.ConfirmationConfirmed)
	if err != nil {
		t.Fatalf("ConfirmReceipt: %v", err)
	}
	if confirmed.ConfirmationStatus != model.ConfirmationConfirmed {
		t.Errorf("confirmation = %q, want confirmed", confirmed.ConfirmationStatus)
	}

	// not_received is a status-only write: stock stays where it was sent.
	notReceived, err := ConfirmReceipt(ctx, database, req.ID, model.ConfirmationNotReceived)
	if err != nil {
		t.Fatalf("ConfirmReceipt not_received: %v", err)
	}
	if notReceived.ConfirmationStatus != model.ConfirmationNotReceived {
		t.Errorf("confirmation = %q, want not_received", notReceived.ConfirmationStatus)
	}
	unitInv, _ := GetInventory(ctx, database, "block1")
	if unitInv.Items[0].ItemCount != 4 {
		t.Errorf("unit count = %d, want 4 (no reversal)", unitInv.Items[0].ItemCount)
	}

	if _, err := ConfirmReceipt(ctx, database, req.ID, model.ConfirmationPending); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for pending, got %v", err)
	}
	if _, err := ConfirmReceipt(ctx, database, 99, model.ConfirmationConfirmed); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
