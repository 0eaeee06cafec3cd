package store

import (
	"context"
	"database/sql"
	"fmt"

	"stockroom/internal/model"
)

// CreateMaintenance files a maintenance ticket for items held by a unit.
// The submitter's inventory must hold the item with at least the requested
// quantity; the stock is reserved for repair, not deducted.
func CreateMaintenance(ctx context.Context, db *sql.DB, title, submittedBy, displayName, itemName string, quantity int, priority model.Priority, description string) (*model.MaintenanceRequest, error) {
	if title == "" || submittedBy == "" || itemName == "" || description == "" {
		return nil, fmt.Errorf("title, submitter, item name, and description are required: %w", ErrInvalidArgument)
	}
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", ErrInvalidArgument)
	}
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("priority %q: %w", priority, ErrInvalidArgument)
	}

	inventoryID, err := findInventoryID(ctx, db, submittedBy)
	if err != nil {
		return nil, err
	}

	count, found, err := getItemCount(ctx, db, inventoryID, itemName)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("item %q: %w", itemName, ErrNotFound)
	}
	if count < quantity {
		return nil, fmt.Errorf("have %d, need %d: %w", count, quantity, ErrInsufficientStock)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO maintenance_requests
		 (title, submitted_by, display_name, item_name, quantity, priority, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		title, submittedBy, displayName, itemName, quantity, string(priority), description,
	)
	if err != nil {
		return nil, fmt.Errorf("creating maintenance request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting maintenance request id: %w", err)
	}
	return GetMaintenance(ctx, db, id)
}

const maintenanceColumns = `id, title, submitted_by, display_name, item_name,
	quantity, priority, status, description, notes, resolved_date, created_at, updated_at`

// GetMaintenance returns a maintenance request by ID.
func GetMaintenance(ctx context.Context, db *sql.DB, id int64) (*model.MaintenanceRequest, error) {
	m := &model.MaintenanceRequest{}
	var resolved sql.NullTime
	err := db.QueryRowContext(ctx,
		`SELECT `+maintenanceColumns+` FROM maintenance_requests WHERE id = ?`, id,
	).Scan(&m.ID, &m.Title, &m.SubmittedBy, &m.DisplayName, &m.ItemName,
		&m.Quantity, &m.Priority, &m.Status, &m.Description, &m.Notes,
		&resolved, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("maintenance request %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting maintenance request: %w", err)
	}
	if resolved.Valid {
		m.ResolvedDate = &resolved.Time
	}
	return m, nil
}

// ListMaintenance returns maintenance requests newest-first, optionally
// filtered by the submitting unit.
func ListMaintenance(ctx context.Context, db *sql.DB, submittedBy string) ([]model.MaintenanceRequest, error) {
	query := `SELECT ` + maintenanceColumns + ` FROM maintenance_requests`
	var args []any
	if submittedBy != "" {
		query += ` WHERE submitted_by = ?`
		args = append(args, submittedBy)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing maintenance requests: %w", err)
	}
	defer rows.Close()

	var list []model.MaintenanceRequest
	for rows.Next() {
		var m model.MaintenanceRequest
		var resolved sql.NullTime
		if err := rows.Scan(&m.ID, &m.Title, &m.SubmittedBy, &m.DisplayName,
			&m.ItemName, &m.Quantity, &m.Priority, &m.Status, &m.Description,
			&m.Notes, &resolved, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning maintenance request: %w", err)
		}
		if resolved.Valid {
			m.ResolvedDate = &resolved.Time
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// UpdateMaintenanceStatus updates a ticket's status and/or notes.
// Completing stamps the resolution date once; later updates keep the
// original date.
func UpdateMaintenanceStatus(ctx context.Context, db *sql.DB, id int64, status model.MaintenanceStatus, notes string) (*model.MaintenanceRequest, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("maintenance status %q: %w", status, ErrInvalidArgument)
	}

	m, err := GetMaintenance(ctx, db, id)
	if err != nil {
		return nil, err
	}

	if status != "" {
		if status == model.MaintenanceCompleted && m.ResolvedDate == nil {
			_, err = db.ExecContext(ctx,
				`UPDATE maintenance_requests
				 SET status = ?, resolved_date = CURRENT_TIMESTAMP,
				     updated_at = CURRENT_TIMESTAMP
				 WHERE id = ?`, string(status), id,
			)
		} else {
			_, err = db.ExecContext(ctx,
				`UPDATE maintenance_requests
				 SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
				string(status), id,
			)
		}
		if err != nil {
			return nil, fmt.Errorf("updating maintenance status: %w", err)
		}
	}

	if notes != "" {
		_, err = db.ExecContext(ctx,
			`UPDATE maintenance_requests
			 SET notes = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			notes, id,
		)
		if err != nil {
			return nil, fmt.Errorf("updating maintenance notes: %w", err)
		}
	}

	return GetMaintenance(ctx, db, id)
}
