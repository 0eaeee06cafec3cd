package model

import "time"

// RequestStatus is the lifecycle state of a transfer request.
// pending → approved is terminal and moves stock exactly once;
// pending → rejected is terminal with no stock movement.
type RequestStatus string

// Request statuses.
const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Valid reports whether s is a known request status.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestRejected:
		return true
	}
	return false
}

// ConfirmationStatus records whether the requesting unit confirmed receipt
// of an approved transfer. It is a status-only field: not_received does not
// reverse the transfer.
type ConfirmationStatus string

// Confirmation statuses.
const (
	ConfirmationPending     ConfirmationStatus = "pending"
	ConfirmationConfirmed   ConfirmationStatus = "confirmed"
	ConfirmationNotReceived ConfirmationStatus = "not_received"
)

// Valid reports whether s is a known confirmation status.
func (s ConfirmationStatus) Valid() bool {
	switch s {
	case ConfirmationPending, ConfirmationConfirmed, ConfirmationNotReceived:
		return true
	}
	return false
}

// TransferRequest is an ask from a subordinate unit for stock from the
// central store.
type TransferRequest struct {
	ID                 int64              `json:"id"`
	RequestingUnit     string             `json:"requesting_unit"`
	DisplayName        string             `json:"display_name"`
	ItemName           string             `json:"item_name"`
	Quantity           int                `json:"quantity"`
	RequestedDate      time.Time          `json:"requested_date"`
	ApprovedDate       *time.Time         `json:"approved_date,omitempty"`
	Status             RequestStatus      `json:"status"`
	ConfirmationStatus ConfirmationStatus `json:"confirmation_status"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}
