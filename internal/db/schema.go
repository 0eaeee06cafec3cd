package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. Every statement is idempotent so
// EnsureSchema can run on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    display_name  TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'blockManager'
                  CHECK (role IN ('storeManager', 'blockManager')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS inventories (
    id           INTEGER PRIMARY KEY,
    owner        TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL DEFAULT '',
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS inventory_items (
    inventory_id INTEGER NOT NULL REFERENCES inventories(id),
    item_name    TEXT NOT NULL,
    item_count   INTEGER NOT NULL CHECK (item_count >= 0),
    PRIMARY KEY (inventory_id, item_name)
);

CREATE TABLE IF NOT EXISTS history_entries (
    id                INTEGER PRIMARY KEY,
    inventory_id      INTEGER NOT NULL REFERENCES inventories(id),
    item_name         TEXT NOT NULL,
    action            TEXT NOT NULL CHECK (action IN
                      ('added', 'updated', 'sent', 'returned',
                       'consumed', 'damaged', 'expired')),
    quantity          INTEGER NOT NULL,
    previous_quantity INTEGER,
    from_owner        TEXT NOT NULL DEFAULT '',
    to_owner          TEXT NOT NULL DEFAULT '',
    description       TEXT NOT NULL DEFAULT '',
    status            TEXT CHECK (status IN ('pending', 'resolved')),
    resolution        TEXT NOT NULL DEFAULT '',
    resolved_date     DATETIME,
    photo             BLOB,
    photo_mime        TEXT,
    entry_date        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_history_inventory
    ON history_entries(inventory_id);

CREATE INDEX IF NOT EXISTS idx_history_action
    ON history_entries(action);

CREATE TABLE IF NOT EXISTS requests (
    id                  INTEGER PRIMARY KEY,
    requesting_unit     TEXT NOT NULL,
    display_name        TEXT NOT NULL DEFAULT '',
    item_name           TEXT NOT NULL,
    quantity            INTEGER NOT NULL CHECK (quantity > 0),
    requested_date      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    approved_date       DATETIME,
    status              TEXT NOT NULL DEFAULT 'pending'
                        CHECK (status IN ('pending', 'approved', 'rejected')),
    confirmation_status TEXT NOT NULL DEFAULT 'pending'
                        CHECK (confirmation_status IN
                        ('pending', 'confirmed', 'not_received')),
    created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS maintenance_requests (
    id            INTEGER PRIMARY KEY,
    title         TEXT NOT NULL,
    submitted_by  TEXT NOT NULL,
    display_name  TEXT NOT NULL DEFAULT '',
    item_name     TEXT NOT NULL,
    quantity      INTEGER NOT NULL CHECK (quantity > 0),
    priority      TEXT NOT NULL DEFAULT 'medium'
                  CHECK (priority IN ('low', 'medium', 'high')),
    status        TEXT NOT NULL DEFAULT 'pending'
                  CHECK (status IN ('pending', 'in_progress', 'completed')),
    description   TEXT NOT NULL,
    notes         TEXT NOT NULL DEFAULT '',
    resolved_date DATETIME,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// EnsureSchema creates any missing tables and indexes.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
