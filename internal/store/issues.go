package store

import (
	"context"
	"database/sql"
	"fmt"

	"stockroom/internal/model"
)

// ListIssues returns issue tickets derived from issue-classified ledger
// entries. With owner == "" it scans every inventory (the administrative
// view); otherwise only the given owner's ledger. Results are globally
// newest-first with same-instant entries in insertion order.
func ListIssues(ctx context.Context, db *sql.DB, owner string) ([]model.IssueTicket, error) {
	query := `SELECT inv.owner, inv.display_name,
		he.id, he.item_name, he.action, he.quantity, he.previous_quantity,
		he.from_owner, he.to_owner, he.description, he.status, he.resolution,
		he.resolved_date, he.entry_date
		FROM history_entries he
		JOIN inventories inv ON inv.id = he.inventory_id
		WHERE he.action IN ('damaged', 'expired', 'returned')`
	var args []any
	if owner != "" {
		query += ` AND inv.owner = ?`
		args = append(args, owner)
	}
	query += ` ORDER BY he.entry_date DESC, he.id ASC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}
	defer rows.Close()

	var tickets []model.IssueTicket
	for rows.Next() {
		var entryOwner, displayName string
		var e model.HistoryEntry
		var prev sql.NullInt64
		var status sql.NullString
		var resolved sql.NullTime
		if err := rows.Scan(&entryOwner, &displayName,
			&e.ID, &e.ItemName, &e.Action, &e.Quantity, &prev,
			&e.FromOwner, &e.ToOwner, &e.Description, &status, &e.Resolution,
			&resolved, &e.Date); err != nil {
			return nil, fmt.Errorf("scanning issue entry: %w", err)
		}
		if prev.Valid {
			p := int(prev.Int64)
			e.PreviousQuantity = &p
		}
		if status.Valid {
			e.Status = model.IssueStatus(status.String)
		}
		if resolved.Valid {
			e.ResolvedDate = &resolved.Time
		}
		tickets = append(tickets, model.IssueTicketFromEntry(entryOwner, displayName, &e))
	}
	return tickets, rows.Err()
}

// LogIssue records an issue (damaged, expired, or returned stock) against
// an owner's item: the affected quantity is debited from the item and one
// issue-classified ledger entry is appended with status pending. Returns
// the ticket view of the new entry.
func LogIssue(ctx context.Context, db *sql.DB, owner, itemName string, action model.Action, quantity int, description string) (*model.IssueTicket, error) {
	if !action.IsIssue() {
		return nil, fmt.Errorf("action %q is not an issue action: %w", action, ErrInvalidArgument)
	}
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", ErrInvalidArgument)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	inv, err := getInventory(ctx, tx, owner)
	if err != nil {
		return nil, err
	}

	entryID, err := adjustItem(ctx, tx, inv.ID, itemName, -quantity, historyEntry{
		Action:      action,
		Description: description,
		Status:      model.IssuePending,
	})
	if err != nil {
		return nil, err
	}

	entry, err := getHistoryEntry(ctx, tx, inv.ID, entryID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing issue: %w", err)
	}

	ticket := model.IssueTicketFromEntry(inv.Owner, inv.DisplayName, entry)
	return &ticket, nil
}

// findIssueEntry locates an issue-classified ledger entry by identity
// within an owner's inventory.
func findIssueEntry(ctx context.Context, q querier, owner string, entryID int64) (*model.Inventory, *model.HistoryEntry, error) {
	inv, err := getInventory(ctx, q, owner)
	if err != nil {
		return nil, nil, err
	}

	entry, err := getHistoryEntry(ctx, q, inv.ID, entryID)
	if err != nil {
		return nil, nil, err
	}
	if !entry.Action.IsIssue() {
		return nil, nil, fmt.Errorf("entry %d is not an issue: %w", entryID, ErrNotFound)
	}
	return inv, entry, nil
}

// UpdateIssueStatus mutates the status and/or resolution of the ledger
// entry behind a ticket. Resolving stamps the resolution date; resolving
// again simply re-stamps it.
func UpdateIssueStatus(ctx context.Context, db *sql.DB, owner string, entryID int64, status model.IssueStatus, resolution string) (*model.IssueTicket, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("issue status %q: %w", status, ErrInvalidArgument)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	inv, _, err := findIssueEntry(ctx, tx, owner, entryID)
	if err != nil {
		return nil, err
	}

	if status != "" {
		if status == model.IssueResolved {
			_, err = tx.ExecContext(ctx,
				`UPDATE history_entries SET status = ?, resolved_date = CURRENT_TIMESTAMP
				 WHERE id = ?`, string(status), entryID,
			)
		} else {
			_, err = tx.ExecContext(ctx,
				`UPDATE history_entries SET status = ? WHERE id = ?`,
				string(status), entryID,
			)
		}
		if err != nil {
			return nil, fmt.Errorf("updating issue status: %w", err)
		}
	}

	if resolution != "" {
		_, err = tx.ExecContext(ctx,
			`UPDATE history_entries SET resolution = ? WHERE id = ?`,
			resolution, entryID,
		)
		if err != nil {
			return nil, fmt.Errorf("updating issue resolution: %w", err)
		}
	}

	entry, err := getHistoryEntry(ctx, tx, inv.ID, entryID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing issue update: %w", err)
	}

	ticket := model.IssueTicketFromEntry(inv.Owner, inv.DisplayName, entry)
	return &ticket, nil
}

// DeleteIssue removes a ticket's ledger entry. The stock debit the entry
// recorded is not restored: this is an audit-trail edit, not a reversal.
func DeleteIssue(ctx context.Context, db *sql.DB, owner string, entryID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	inv, _, err := findIssueEntry(ctx, tx, owner, entryID)
	if err != nil {
		return err
	}

	if err := removeHistoryEntry(ctx, tx, inv.ID, entryID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing issue deletion: %w", err)
	}
	return nil
}

// SetIssuePhoto attaches evidence image data to an issue entry.
func SetIssuePhoto(ctx context.Context, db *sql.DB, owner string, entryID int64, photo []byte, mime string) error {
	inv, _, err := findIssueEntry(ctx, db, owner, entryID)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		`UPDATE history_entries SET photo = ?, photo_mime = ?
		 WHERE inventory_id = ? AND id = ?`,
		photo, mime, inv.ID, entryID,
	)
	if err != nil {
		return fmt.Errorf("setting issue photo: %w", err)
	}
	return nil
}

// GetIssuePhoto returns an issue entry's evidence image and MIME type.
// The photo slice is nil when no photo was uploaded.
func GetIssuePhoto(ctx context.Context, db *sql.DB, owner string, entryID int64) ([]byte, string, error) {
	inv, _, err := findIssueEntry(ctx, db, owner, entryID)
	if err != nil {
		return nil, "", err
	}

	var photo []byte
	var mime sql.NullString
	err = db.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM history_entries
		 WHERE inventory_id = ? AND id = ?`, inv.ID, entryID,
	).Scan(&photo, &mime)
	if err != nil {
		return nil, "", fmt.Errorf("getting issue photo: %w", err)
	}
	return photo, mime.String, nil
}
