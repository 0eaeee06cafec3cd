package db

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite"
)

// Open opens a SQLite database connection pool.
//
// Pragmas are passed in the DSN so they apply to every pooled connection,
// and _txlock=immediate makes write transactions take the write lock at
// BEGIN. Combined with busy_timeout this serializes concurrent mutations
// against the same database instead of failing them with SQLITE_BUSY.
func Open(path string) (*sql.DB, error) {
	dsn := "file:" + path + "?" + url.Values{
		"_txlock": {"immediate"},
		"_pragma": {
			"journal_mode(WAL)",
			"busy_timeout(5000)",
			"foreign_keys(1)",
			"synchronous(NORMAL)",
		},
	}.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return db, nil
}
