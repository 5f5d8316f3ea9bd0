package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// MessageRecord is a message row as stored; text holds ciphertext.
type MessageRecord struct {
	ID             int    `db:"id"`
	ConversationID int    `db:"conversationId"`
	UserID         int    `db:"userId"`
	Text           string `db:"text"`
	IsDeleted      int    `db:"isDeleted"`
}

type MessageRepository interface {
	Insert(ctx context.Context, conversationID, userID int, encText string) (int, error)
	// ListByConversationID returns messages in insertion order (id ascending).
	ListByConversationID(ctx context.Context, conversationID int) ([]MessageRecord, error)
}

type SQLMessageRepo struct {
	db *sqlx.DB
}

func NewSQLMessageRepo(db *sqlx.DB) *SQLMessageRepo {
	return &SQLMessageRepo{db: db}
}

func (r *SQLMessageRepo) Insert(ctx context.Context, conversationID, userID int, encText string) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO message (conversationId, userId, text) VALUES (?, ?, ?)`,
		conversationID, userID, encText)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

func (r *SQLMessageRepo) ListByConversationID(ctx context.Context, conversationID int) ([]MessageRecord, error) {
	var recs []MessageRecord
	err := r.db.SelectContext(ctx, &recs,
		`SELECT * FROM message WHERE isDeleted = 0 AND conversationId = ? ORDER BY id`,
		conversationID)
	if err != nil {
		return nil, err
	}
	return recs, nil
}
