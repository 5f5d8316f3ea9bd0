package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// ConversationRecord is a conversation row as stored; name holds ciphertext.
type ConversationRecord struct {
	ID        int    `db:"id"`
	Name      string `db:"name"`
	IsDeleted int    `db:"isDeleted"`
}

type ConversationRepository interface {
	Insert(ctx context.Context, encName string) (int, error)
	FindByID(ctx context.Context, id int) (*ConversationRecord, error)
	FindByUserID(ctx context.Context, userID int) ([]ConversationRecord, error)
	Update(ctx context.Context, id int, encName string) error
}

type SQLConversationRepo struct {
	db *sqlx.DB
}

func NewSQLConversationRepo(db *sqlx.DB) *SQLConversationRepo {
	return &SQLConversationRepo{db: db}
}

func (r *SQLConversationRepo) Insert(ctx context.Context, encName string) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO conversation (name) VALUES (?)`, encName)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

func (r *SQLConversationRepo) FindByID(ctx context.Context, id int) (*ConversationRecord, error) {
	var rec ConversationRecord
	err := r.db.GetContext(ctx, &rec,
		`SELECT * FROM conversation WHERE isDeleted = 0 AND id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *SQLConversationRepo) FindByUserID(ctx context.Context, userID int) ([]ConversationRecord, error) {
	var recs []ConversationRecord
	err := r.db.SelectContext(ctx, &recs,
		`SELECT * FROM conversation
		 WHERE isDeleted = 0 AND id IN (
			SELECT DISTINCT conversationId FROM conversationUser
			WHERE isDeleted = 0 AND userId = ?
		 )
		 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *SQLConversationRepo) Update(ctx context.Context, id int, encName string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE conversation SET name = ? WHERE isDeleted = 0 AND id = ?`, encName, id)
	return err
}
