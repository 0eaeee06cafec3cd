package model

import "time"

// Inventory is the per-unit stock record: one document per owning unit,
// holding the current item list. Its movement history lives in the
// history ledger (see HistoryEntry).
type Inventory struct {
	ID          int64           `json:"id"`
	Owner       string          `json:"owner"`
	DisplayName string          `json:"display_name"`
	Items       []InventoryItem `json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// InventoryItem is one (name, count) pair within an inventory.
// Item names are unique within an inventory; counts never go negative.
type InventoryItem struct {
	ItemName  string `json:"item_name"`
	ItemCount int    `json:"item_count"`
}

// StoreOwner is the owner identifier of the central store inventory.
// Transfer approvals always debit this inventory.
const StoreOwner = "storeManager"

// TotalCount returns the sum of all item counts in the inventory.
func (inv *Inventory) TotalCount() int {
	total := 0
	for _, item := range inv.Items {
		total += item.ItemCount
	}
	return total
}

// FindItem returns the item with the given name, or nil.
func (inv *Inventory) FindItem(name string) *InventoryItem {
	for i := range inv.Items {
		if inv.Items[i].ItemName == name {
			return &inv.Items[i]
		}
	}
	return nil
}
