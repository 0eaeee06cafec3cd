package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"stockroom/internal/model"
)

// CreateRequest records a pending transfer request from a subordinate unit.
func CreateRequest(ctx context.Context, db *sql.DB, unit, displayName, itemName string, quantity int) (*model.TransferRequest, error) {
	if unit == "" || itemName == "" {
		return nil, fmt.Errorf("requesting unit and item name are required: %w", ErrInvalidArgument)
	}
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", ErrInvalidArgument)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO requests (requesting_unit, display_name, item_name, quantity)
		 VALUES (?, ?, ?, ?)`,
		unit, displayName, itemName, quantity,
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting request id: %w", err)
	}
	return GetRequest(ctx, db, id)
}

const requestColumns = `id, requesting_unit, display_name, item_name, quantity,
	requested_date, approved_date, status, confirmation_status, created_at, updated_at`

// GetRequest returns a transfer request by ID.
func GetRequest(ctx context.Context, db *sql.DB, id int64) (*model.TransferRequest, error) {
	return getRequest(ctx, db, id)
}

func getRequest(ctx context.Context, q querier, id int64) (*model.TransferRequest, error) {
	req := &model.TransferRequest{}
	var approved sql.NullTime
	err := q.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = ?`, id,
	).Scan(&req.ID, &req.RequestingUnit, &req.DisplayName, &req.ItemName,
		&req.Quantity, &req.RequestedDate, &approved, &req.Status,
		&req.ConfirmationStatus, &req.CreatedAt, &req.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("request %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting request: %w", err)
	}
	if approved.Valid {
		req.ApprovedDate = &approved.Time
	}
	return req, nil
}

// ListRequests returns transfer requests newest-first, optionally filtered
// by status.
func ListRequests(ctx context.Context, db *sql.DB, status model.RequestStatus) ([]model.TransferRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM requests`
	var args []any
	if status != "" {
		if !status.Valid() {
			return nil, fmt.Errorf("status %q: %w", status, ErrInvalidArgument)
		}
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY requested_date DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	defer rows.Close()

	var requests []model.TransferRequest
	for rows.Next() {
		var req model.TransferRequest
		var approved sql.NullTime
		if err := rows.Scan(&req.ID, &req.RequestingUnit, &req.DisplayName,
			&req.ItemName, &req.Quantity, &req.RequestedDate, &approved,
			&req.Status, &req.ConfirmationStatus, &req.CreatedAt, &req.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning request: %w", err)
		}
		if approved.Valid {
			req.ApprovedDate = &approved.Time
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// UpdateRequestStatus transitions a request's status. Approving a pending
// request moves stock from the central store to the requesting unit inside
// one transaction: the store is debited with a `sent` ledger entry, then
// the unit is credited with an `updated` entry (item already held) or an
// `added` entry with previous quantity 0 (first time), both annotated with
// the from/to owners. Re-approving an already-approved request only
// re-stamps the status; the stock movement is never applied twice.
// Non-approved transitions have no inventory effect and clear the
// approval date.
func UpdateRequestStatus(ctx context.Context, db *sql.DB, id int64, status model.RequestStatus) (*model.TransferRequest, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("status %q: %w", status, ErrInvalidArgument)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	req, err := getRequest(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if status == model.RequestApproved && req.Status != model.RequestApproved {
		if err := applyTransfer(ctx, tx, req); err != nil {
			return nil, err
		}
	}

	if status == model.RequestApproved {
		_, err = tx.ExecContext(ctx,
			`UPDATE requests SET status = ?, approved_date = CURRENT_TIMESTAMP,
			 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			string(status), id,
		)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE requests SET status = ?, approved_date = NULL,
			 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			string(status), id,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("updating request status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing request update: %w", err)
	}

	return GetRequest(ctx, db, id)
}

// applyTransfer debits the central store and credits the requesting unit.
// The debit runs strictly before the credit; both sides and their ledger
// entries commit or roll back together.
func applyTransfer(ctx context.Context, tx *sql.Tx, req *model.TransferRequest) error {
	storeID, err := findInventoryID(ctx, tx, model.StoreOwner)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("store inventory: %w", ErrNotFound)
		}
		return err
	}

	// Debit the store. adjustItem reports the missing item and the
	// insufficient-stock case.
	_, err = adjustItem(ctx, tx, storeID, req.ItemName, -req.Quantity, historyEntry{
		Action:    model.ActionSent,
		FromOwner: model.StoreOwner,
		ToOwner:   req.RequestingUnit,
	})
	if err != nil {
		return err
	}

	// Credit the requesting unit, creating its inventory on first transfer.
	unitID, err := findInventoryID(ctx, tx, req.RequestingUnit)
	switch {
	case errors.Is(err, ErrNotFound):
		displayName := req.DisplayName
		if displayName == "" {
			displayName = req.RequestingUnit
		}
		unitID, err = createInventory(ctx, tx, req.RequestingUnit, displayName)
		if err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		// Backfill the display name on legacy inventories created
		// without one.
		if req.DisplayName != "" {
			_, err = tx.ExecContext(ctx,
				`UPDATE inventories SET display_name = ?
				 WHERE id = ? AND display_name = ''`,
				req.DisplayName, unitID,
			)
			if err != nil {
				return fmt.Errorf("backfilling display name: %w", err)
			}
		}
	}

	_, held, err := getItemCount(ctx, tx, unitID, req.ItemName)
	if err != nil {
		return err
	}

	if held {
		_, err = adjustItem(ctx, tx, unitID, req.ItemName, req.Quantity, historyEntry{
			Action:    model.ActionUpdated,
			FromOwner: model.StoreOwner,
			ToOwner:   req.RequestingUnit,
		})
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO inventory_items (inventory_id, item_name, item_count)
		 VALUES (?, ?, ?)`,
		unitID, req.ItemName, req.Quantity,
	)
	if err != nil {
		return fmt.Errorf("crediting item: %w", err)
	}

	zero := 0
	_, err = appendHistory(ctx, tx, unitID, historyEntry{
		ItemName:         req.ItemName,
		Action:           model.ActionAdded,
		Quantity:         req.Quantity,
		PreviousQuantity: &zero,
		FromOwner:        model.StoreOwner,
		ToOwner:          req.RequestingUnit,
	})
	if err != nil {
		return err
	}
	return touchInventory(ctx, tx, unitID)
}

// ConfirmReceipt records whether the requesting unit received an approved
// transfer. It is a status-only write: not_received does not reverse the
// transfer.
func ConfirmReceipt(ctx context.Context, db *sql.DB, id int64, status model.ConfirmationStatus) (*model.TransferRequest, error) {
	if status != model.ConfirmationConfirmed && status != model.ConfirmationNotReceived {
		return nil, fmt.Errorf("confirmation status %q: %w", status, ErrInvalidArgument)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE requests SET confirmation_status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		string(status), id,
	)
	if err != nil {
		return nil, fmt.Errorf("confirming receipt: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking confirmed rows: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("request %d: %w", id, ErrNotFound)
	}

	return GetRequest(ctx, db, id)
}
