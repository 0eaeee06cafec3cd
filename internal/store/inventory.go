package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"stockroom/internal/model"
)

// GetInventory returns the inventory owned by the given unit, with its
// current item list.
func GetInventory(ctx context.Context, db *sql.DB, owner string) (*model.Inventory, error) {
	return getInventory(ctx, db, owner)
}

func getInventory(ctx context.Context, q querier, owner string) (*model.Inventory, error) {
	inv := &model.Inventory{}
	err := q.QueryRowContext(ctx,
		`SELECT id, owner, display_name, created_at, updated_at
		 FROM inventories WHERE owner = ?`, owner,
	).Scan(&inv.ID, &inv.Owner, &inv.DisplayName, &inv.CreatedAt, &inv.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("inventory for %q: %w", owner, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting inventory: %w", err)
	}

	items, err := loadItems(ctx, q, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return inv, nil
}

// ListInventories returns all inventories with their item lists.
func ListInventories(ctx context.Context, db *sql.DB) ([]model.Inventory, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, owner, display_name, created_at, updated_at
		 FROM inventories ORDER BY owner`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing inventories: %w", err)
	}
	defer rows.Close()

	var inventories []model.Inventory
	for rows.Next() {
		var inv model.Inventory
		if err := rows.Scan(&inv.ID, &inv.Owner, &inv.DisplayName, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning inventory: %w", err)
		}
		inventories = append(inventories, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range inventories {
		items, err := loadItems(ctx, db, inventories[i].ID)
		if err != nil {
			return nil, err
		}
		inventories[i].Items = items
	}
	return inventories, nil
}

// loadItems returns an inventory's items in insertion order.
func loadItems(ctx context.Context, q querier, inventoryID int64) ([]model.InventoryItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT item_name, item_count FROM inventory_items
		 WHERE inventory_id = ? ORDER BY rowid`, inventoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading items: %w", err)
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		var item model.InventoryItem
		if err := rows.Scan(&item.ItemName, &item.ItemCount); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// findInventoryID returns the row ID of an owner's inventory, or ErrNotFound.
func findInventoryID(ctx context.Context, q querier, owner string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`SELECT id FROM inventories WHERE owner = ?`, owner,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("inventory for %q: %w", owner, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("finding inventory: %w", err)
	}
	return id, nil
}

// createInventory inserts an empty inventory document for an owner.
func createInventory(ctx context.Context, q querier, owner, displayName string) (int64, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO inventories (owner, display_name) VALUES (?, ?)`,
		owner, displayName,
	)
	if err != nil {
		return 0, fmt.Errorf("creating inventory: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting inventory id: %w", err)
	}
	return id, nil
}

// getItemCount returns an item's current count within an inventory.
// found is false when the inventory has no record of the item.
func getItemCount(ctx context.Context, q querier, inventoryID int64, itemName string) (count int, found bool, err error) {
	err = q.QueryRowContext(ctx,
		`SELECT item_count FROM inventory_items
		 WHERE inventory_id = ? AND item_name = ?`,
		inventoryID, itemName,
	).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("getting item count: %w", err)
	}
	return count, true, nil
}

// touchInventory bumps an inventory's updated_at timestamp.
func touchInventory(ctx context.Context, q querier, inventoryID int64) error {
	_, err := q.ExecContext(ctx,
		`UPDATE inventories SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		inventoryID,
	)
	if err != nil {
		return fmt.Errorf("touching inventory: %w", err)
	}
	return nil
}

// AddItem adds a new item to an owner's inventory, creating the inventory
// document if the owner has none yet. Fails with ErrConflict when the item
// already exists (use SetItemCount instead) and ErrInvalidArgument for a
// negative count.
func AddItem(ctx context.Context, db *sql.DB, owner, displayName, itemName string, count int) (*model.Inventory, error) {
	if owner == "" || itemName == "" {
		return nil, fmt.Errorf("owner and item name are required: %w", ErrInvalidArgument)
	}
	if count < 0 {
		return nil, fmt.Errorf("item count cannot be negative: %w", ErrInvalidArgument)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	inventoryID, err := findInventoryID(ctx, tx, owner)
	switch {
	case err == nil:
		_, exists, err := getItemCount(ctx, tx, inventoryID, itemName)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("item %q: %w", itemName, ErrConflict)
		}
	case errors.Is(err, ErrNotFound):
		inventoryID, err = createInventory(ctx, tx, owner, displayName)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO inventory_items (inventory_id, item_name, item_count)
		 VALUES (?, ?, ?)`,
		inventoryID, itemName, count,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting item: %w", err)
	}

	// The initial addition has no previous quantity.
	_, err = appendHistory(ctx, tx, inventoryID, historyEntry{
		ItemName: itemName,
		Action:   model.ActionAdded,
		Quantity: count,
	})
	if err != nil {
		return nil, err
	}

	if err := touchInventory(ctx, tx, inventoryID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item addition: %w", err)
	}

	return GetInventory(ctx, db, owner)
}

// SetItemCount sets an existing item's count to an absolute value and
// records an `updated` ledger entry with the previous count.
func SetItemCount(ctx context.Context, db *sql.DB, owner, itemName string, newCount int) (*model.Inventory, error) {
	if newCount < 0 {
		return nil, fmt.Errorf("item count cannot be negative: %w", ErrInvalidArgument)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	inventoryID, err := findInventoryID(ctx, tx, owner)
	if err != nil {
		return nil, err
	}

	previous, found, err := getItemCount(ctx, tx, inventoryID, itemName)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("item %q: %w", itemName, ErrNotFound)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE inventory_items SET item_count = ?
		 WHERE inventory_id = ? AND item_name = ?`,
		newCount, inventoryID, itemName,
	)
	if err != nil {
		return nil, fmt.Errorf("updating item count: %w", err)
	}

	_, err = appendHistory(ctx, tx, inventoryID, historyEntry{
		ItemName:         itemName,
		Action:           model.ActionUpdated,
		Quantity:         newCount,
		PreviousQuantity: &previous,
	})
	if err != nil {
		return nil, err
	}

	if err := touchInventory(ctx, tx, inventoryID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item update: %w", err)
	}

	return GetInventory(ctx, db, owner)
}

// adjustItem is the internal mutation primitive shared by the transfer and
// issue flows: it applies a delta to an item's count and appends the paired
// ledger entry in the same transaction. Fails with ErrNotFound when the
// inventory has no record of the item and ErrInsufficientStock when the
// delta would drive the count negative.
func adjustItem(ctx context.Context, tx *sql.Tx, inventoryID int64, itemName string, delta int, entry historyEntry) (int64, error) {
	current, found, err := getItemCount(ctx, tx, inventoryID, itemName)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("item %q: %w", itemName, ErrNotFound)
	}

	newCount := current + delta
	if newCount < 0 {
		return 0, fmt.Errorf("have %d, need %d: %w", current, -delta, ErrInsufficientStock)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE inventory_items SET item_count = ?
		 WHERE inventory_id = ? AND item_name = ?`,
		newCount, inventoryID, itemName,
	)
	if err != nil {
		return 0, fmt.Errorf("adjusting item count: %w", err)
	}

	entry.ItemName = itemName
	entry.Quantity = newCount
	entry.PreviousQuantity = &current

	entryID, err := appendHistory(ctx, tx, inventoryID, entry)
	if err != nil {
		return 0, err
	}

	if err := touchInventory(ctx, tx, inventoryID); err != nil {
		return 0, err
	}
	return entryID, nil
}
