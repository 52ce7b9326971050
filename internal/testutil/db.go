// Package testutil provides an in-memory database carrying the service
// schema, so store, service, and handler tests run without Postgres.
// The production queries stick to the SQL subset SQLite understands.
package testutil

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE users (
    username      TEXT PRIMARY KEY,
    first_name    TEXT NOT NULL,
    last_name     TEXT NOT NULL,
    password_hash TEXT NOT NULL
);

CREATE TABLE classes (
    class_id INTEGER PRIMARY KEY AUTOINCREMENT,
    name     TEXT NOT NULL UNIQUE
);

CREATE TABLE images (
    image_id     INTEGER PRIMARY KEY AUTOINCREMENT,
    path         TEXT NOT NULL,
    contains_pii BOOLEAN NOT NULL DEFAULT 0,
    deleted      BOOLEAN NOT NULL DEFAULT 0
);

CREATE TABLE labels (
    label_id    INTEGER PRIMARY KEY AUTOINCREMENT,
    image_id    INTEGER NOT NULL REFERENCES images (image_id),
    labelled_by TEXT NOT NULL REFERENCES users (username),
    class_id    INTEGER NOT NULL REFERENCES classes (class_id),
    geometry    TEXT NOT NULL,
    deleted     BOOLEAN NOT NULL DEFAULT 0
);

CREATE TABLE logs (
    log_id      INTEGER PRIMARY KEY AUTOINCREMENT,
    object      TEXT NOT NULL CHECK (object IN ('Image', 'Label')),
    updated_by  TEXT NOT NULL REFERENCES users (username),
    method      TEXT NOT NULL CHECK (method IN ('INSERTION', 'UPDATE', 'DELETE')),
    image_id    INTEGER REFERENCES images (image_id),
    label_id    INTEGER REFERENCES labels (label_id),
    modified_at TIMESTAMP NOT NULL,
    CHECK ((image_id IS NULL) <> (label_id IS NULL))
);
`

// OpenDB opens a fresh in-memory database with the full schema applied.
// The pool is pinned to one connection so every statement sees the same
// memory database.
func OpenDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

// SeedUser inserts a user row with a pre-hashed password.
func SeedUser(t *testing.T, db *sql.DB, username, firstName, lastName, passwordHash string) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO users (username, first_name, last_name, password_hash) VALUES ($1, $2, $3, $4)`,
		username, firstName, lastName, passwordHash,
	)
	if err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
}

// SeedClass inserts a class row and returns its id.
func SeedClass(t *testing.T, db *sql.DB, name string) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(`INSERT INTO classes (name) VALUES ($1) RETURNING class_id`, name).Scan(&id)
	if err != nil {
		t.Fatalf("seed class %s: %v", name, err)
	}
	return id
}
