package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// Typed failures surfaced by the core operations. Callers match these with
// errors.Is; the HTTP layer maps them to status codes.
var (
	// ErrInvalidArgument is returned for malformed, missing, or negative input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when an inventory, item, request, or history
	// entry is absent.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when adding an item that already exists.
	ErrConflict = errors.New("already exists")

	// ErrInsufficientStock is returned when a debit exceeds the available
	// quantity. The operation leaves state unchanged.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// querier is satisfied by *sql.DB and *sql.Tx, so helpers can run both
// standalone and inside transactions.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// isUniqueViolation reports whether err is a SQLite unique-constraint error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
