package engine

import (
	"database/sql"
	"strings"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

// Open opens a SQLite database using the modernc.org/sqlite driver, making
// sure the vector scalar functions are registered first.
//
// For file-based databases, pass a path like "./db.sqlite". For in-memory
// databases, pass ":memory:"; such handles are limited to one connection so
// that every statement observes the same database.
func Open(dsn string) (*sql.DB, error) {
	if err := RegisterVectorFunctions(); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if IsMemory(dsn) {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// IsMemory reports whether dsn refers to a private in-memory database.
func IsMemory(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}
