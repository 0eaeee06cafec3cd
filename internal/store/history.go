package store

import (
	"context"
	"database/sql"
	"fmt"

	"stockroom/internal/model"
)

// historyEntry carries the fields of a ledger entry being appended.
// Quantity is the post-mutation count, PreviousQuantity the pre-mutation
// count (nil for a first-time addition).
type historyEntry struct {
	ItemName         string
	Action           model.Action
	Quantity         int
	PreviousQuantity *int
	FromOwner        string
	ToOwner          string
	Description      string
	Status           model.IssueStatus
}

const historyColumns = `id, item_name, action, quantity, previous_quantity,
	from_owner, to_owner, description, status, resolution, resolved_date, entry_date`

// appendHistory appends one entry to an inventory's ledger and returns its
// ID. This is the only way ledger rows are created: every item mutation
// goes through here in the same transaction, which is what makes the
// ledger a complete audit trail.
func appendHistory(ctx context.Context, q querier, inventoryID int64, e historyEntry) (int64, error) {
	var prev sql.NullInt64
	if e.PreviousQuantity != nil {
		prev = sql.NullInt64{Int64: int64(*e.PreviousQuantity), Valid: true}
	}
	var status sql.NullString
	if e.Status != "" {
		status = sql.NullString{String: string(e.Status), Valid: true}
	}

	result, err := q.ExecContext(ctx,
		`INSERT INTO history_entries
		 (inventory_id, item_name, action, quantity, previous_quantity,
		  from_owner, to_owner, description, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inventoryID, e.ItemName, string(e.Action), e.Quantity, prev,
		e.FromOwner, e.ToOwner, e.Description, status,
	)
	if err != nil {
		return 0, fmt.Errorf("appending history entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting history entry id: %w", err)
	}
	return id, nil
}

// GetHistory returns an owner's ledger newest-first. Entry dates have
// second resolution, so same-instant entries keep their insertion order
// (stable ordering by row ID).
func GetHistory(ctx context.Context, db *sql.DB, owner string) ([]model.HistoryEntry, error) {
	inventoryID, err := findInventoryID(ctx, db, owner)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+historyColumns+`
		 FROM history_entries
		 WHERE inventory_id = ?
		 ORDER BY entry_date DESC, id ASC`, inventoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting history: %w", err)
	}
	defer rows.Close()

	return scanHistoryEntries(rows)
}

func scanHistoryEntries(rows *sql.Rows) ([]model.HistoryEntry, error) {
	var entries []model.HistoryEntry
	for rows.Next() {
		entry, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHistoryEntry(row rowScanner) (*model.HistoryEntry, error) {
	var e model.HistoryEntry
	var prev sql.NullInt64
	var status sql.NullString
	var resolved sql.NullTime
	if err := row.Scan(&e.ID, &e.ItemName, &e.Action, &e.Quantity, &prev,
		&e.FromOwner, &e.ToOwner, &e.Description, &status, &e.Resolution,
		&resolved, &e.Date); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning history entry: %w", err)
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
	return &e, nil
}

// getHistoryEntry returns one ledger entry by identity within an inventory.
func getHistoryEntry(ctx context.Context, q querier, inventoryID, entryID int64) (*model.HistoryEntry, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+historyColumns+`
		 FROM history_entries
		 WHERE inventory_id = ? AND id = ?`, inventoryID, entryID,
	)
	entry, err := scanHistoryEntry(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("history entry %d: %w", entryID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// removeHistoryEntry removes exactly one ledger entry by identity. It does
// not touch item counts: removing an audit record never reverses the stock
// effect it recorded. Issue deletion is the only caller.
func removeHistoryEntry(ctx context.Context, q querier, inventoryID, entryID int64) error {
	result, err := q.ExecContext(ctx,
		`DELETE FROM history_entries WHERE inventory_id = ? AND id = ?`,
		inventoryID, entryID,
	)
	if err != nil {
		return fmt.Errorf("removing history entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking removed rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("history entry %d: %w", entryID, ErrNotFound)
	}
	return nil
}
