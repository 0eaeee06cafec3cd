package model

import "time"

// Action classifies a stock movement recorded in the history ledger.
type Action string

// Ledger actions. The damaged/expired/returned actions are issue-classified:
// entries carrying them surface as issue tickets.
const (
	ActionAdded    Action = "added"
	ActionUpdated  Action = "updated"
	ActionSent     Action = "sent"
	ActionReturned Action = "returned"
	ActionConsumed Action = "consumed"
	ActionDamaged  Action = "damaged"
	ActionExpired  Action = "expired"
)

// Valid reports whether a is a known ledger action.
func (a Action) Valid() bool {
	switch a {
	case ActionAdded, ActionUpdated, ActionSent, ActionReturned,
		ActionConsumed, ActionDamaged, ActionExpired:
		return true
	}
	return false
}

// IsIssue reports whether entries with this action surface as issue tickets.
func (a Action) IsIssue() bool {
	switch a {
	case ActionDamaged, ActionExpired, ActionReturned:
		return true
	}
	return false
}

// IssueStatus is the resolution state of an issue-classified ledger entry.
type IssueStatus string

// Issue statuses.
const (
	IssuePending  IssueStatus = "pending"
	IssueResolved IssueStatus = "resolved"
)

// Valid reports whether s is a known issue status.
func (s IssueStatus) Valid() bool {
	return s == IssuePending || s == IssueResolved
}

// HistoryEntry is one immutable audit record of a stock-quantity mutation.
// Entries are only ever created as a side effect of an inventory mutation.
// Issue-classified entries may later gain status/resolution/resolved_date;
// everything else never changes after append.
type HistoryEntry struct {
	ID               int64       `json:"id"`
	ItemName         string      `json:"item_name"`
	Action           Action      `json:"action"`
	Quantity         int         `json:"quantity"`
	PreviousQuantity *int        `json:"previous_quantity,omitempty"`
	FromOwner        string      `json:"from_owner,omitempty"`
	ToOwner          string      `json:"to_owner,omitempty"`
	Description      string      `json:"description,omitempty"`
	Status           IssueStatus `json:"status,omitempty"`
	Resolution       string      `json:"resolution,omitempty"`
	ResolvedDate     *time.Time  `json:"resolved_date,omitempty"`
	Date             time.Time   `json:"date"`
}

// AffectedQuantity returns the magnitude of the stock change the entry
// records: previous minus current for debits, current minus previous for
// credits. Zero when no previous quantity was recorded.
func (e *HistoryEntry) AffectedQuantity() int {
	if e.PreviousQuantity == nil {
		return 0
	}
	diff := *e.PreviousQuantity - e.Quantity
	if diff < 0 {
		return -diff
	}
	return diff
}
