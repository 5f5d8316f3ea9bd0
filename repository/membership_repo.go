package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// MembershipRepository tracks which users belong to which conversations.
// The (conversationId, userId) pair is kept unique by the service layer,
// which checks before inserting; there is no uniqueness constraint here.
type MembershipRepository interface {
	Insert(ctx context.Context, conversationID, userID int) error
	Remove(ctx context.Context, conversationID, userID int) error
	Exists(ctx context.Context, conversationID, userID int) (bool, error)
	// RemoveAllForUser bulk-deletes a user's memberships; invoked when the
	// user is deleted so no live room subscription has backing left.
	RemoveAllForUser(ctx context.Context, userID int) error
}

type SQLMembershipRepo struct {
	db *sqlx.DB
}

func NewSQLMembershipRepo(db *sqlx.DB) *SQLMembershipRepo {
	return &SQLMembershipRepo{db: db}
}

func (r *SQLMembershipRepo) Insert(ctx context.Context, conversationID, userID int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO conversationUser (conversationId, userId) VALUES (?, ?)`,
		conversationID, userID)
	return err
}

func (r *SQLMembershipRepo) Remove(ctx context.Context, conversationID, userID int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE conversationUser SET isDeleted = 1 WHERE conversationId = ? AND userId = ?`,
		conversationID, userID)
	return err
}

func (r *SQLMembershipRepo) Exists(ctx context.Context, conversationID, userID int) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(1) FROM conversationUser
		 WHERE isDeleted = 0 AND conversationId = ? AND userId = ?`,
		conversationID, userID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *SQLMembershipRepo) RemoveAllForUser(ctx context.Context, userID int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE conversationUser SET isDeleted = 1 WHERE userId = ?`, userID)
	return err
}
