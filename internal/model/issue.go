package model

import (
	"strings"
	"time"
)

// IssueTicket is the trackable view of an issue-classified history entry.
// It is derived, not separately persisted: mutating a ticket means locating
// and mutating the underlying ledger entry by its ID.
type IssueTicket struct {
	EntryID      int64       `json:"entry_id"`
	Owner        string      `json:"owner"`
	DisplayName  string      `json:"display_name,omitempty"`
	ItemName     string      `json:"item_name"`
	IssueType    string      `json:"issue_type"`
	Quantity     int         `json:"quantity"`
	Description  string      `json:"description,omitempty"`
	Status       IssueStatus `json:"status"`
	Resolution   string      `json:"resolution,omitempty"`
	ResolvedDate *time.Time  `json:"resolved_date,omitempty"`
	Date         time.Time   `json:"date"`
}

// IssueTicketFromEntry synthesizes the ticket view of a qualifying ledger
// entry. The ticket quantity is the affected amount (previous minus current
// count at the time the issue was logged).
func IssueTicketFromEntry(owner, displayName string, e *HistoryEntry) IssueTicket {
	return IssueTicket{
		EntryID:      e.ID,
		Owner:        owner,
		DisplayName:  displayName,
		ItemName:     e.ItemName,
		IssueType:    capitalize(string(e.Action)),
		Quantity:     e.AffectedQuantity(),
		Description:  e.Description,
		Status:       e.Status,
		Resolution:   e.Resolution,
		ResolvedDate: e.ResolvedDate,
		Date:         e.Date,
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
