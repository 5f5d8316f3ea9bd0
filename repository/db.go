// Package repository owns row-level access to the sqlite database. Text
// columns marked encrypted in the schema hold ciphertext; the service layer
// encrypts on write and decrypts on read, repositories never see plaintext.
package repository

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Rows are soft-deleted: every read filters isDeleted = 0, so a deleted
// entity is reported as not found rather than resurfacing stale data.
const schema = `
CREATE TABLE IF NOT EXISTS user (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	userName     TEXT NOT NULL,
	firstName    TEXT NOT NULL,
	lastName     TEXT NOT NULL,
	email        TEXT NOT NULL,
	passwordHash TEXT NOT NULL,
	passwordSalt TEXT NOT NULL,
	isDeleted    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS conversation (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	name      TEXT NOT NULL,
	isDeleted INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS conversationUser (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	conversationId INTEGER NOT NULL,
	userId         INTEGER NOT NULL,
	isDeleted      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS message (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	conversationId INTEGER NOT NULL,
	userId         INTEGER NOT NULL,
	text           TEXT NOT NULL,
	isDeleted      INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_conversationUser_user ON conversationUser(userId);
CREATE INDEX IF NOT EXISTS idx_conversationUser_convo ON conversationUser(conversationId);
CREATE INDEX IF NOT EXISTS idx_message_convo ON message(conversationId);
`

// Open connects to the sqlite database at path and applies the schema.
func Open(path string) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return db, nil
}
