package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
)

// UserRecord is a user row as stored: userName, firstName, lastName and
// email hold ciphertext.
type UserRecord struct {
	ID           int    `db:"id"`
	UserName     string `db:"userName"`
	FirstName    string `db:"firstName"`
	LastName     string `db:"lastName"`
	Email        string `db:"email"`
	PasswordHash string `db:"passwordHash"`
	PasswordSalt string `db:"passwordSalt"`
	IsDeleted    int    `db:"isDeleted"`
}

type UserRepository interface {
	Insert(ctx context.Context, rec *UserRecord) (int, error)
	FindByID(ctx context.Context, id int) (*UserRecord, error)
	// FindByUserName looks up by encrypted userName; encryption is
	// deterministic, so equality search works on ciphertext.
	FindByUserName(ctx context.Context, encUserName string) (*UserRecord, error)
	FindByConversationID(ctx context.Context, conversationID int) ([]UserRecord, error)
	UpdateProfile(ctx context.Context, id int, encFields map[string]string) error
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
	Delete(ctx context.Context, id int) error
}

type SQLUserRepo struct {
	db *sqlx.DB
}

func NewSQLUserRepo(db *sqlx.DB) *SQLUserRepo {
	return &SQLUserRepo{db: db}
}

func (r *SQLUserRepo) Insert(ctx context.Context, rec *UserRecord) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO user (userName, firstName, lastName, email, passwordHash, passwordSalt)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.UserName, rec.FirstName, rec.LastName, rec.Email, rec.PasswordHash, rec.PasswordSalt)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

func (r *SQLUserRepo) FindByID(ctx context.Context, id int) (*UserRecord, error) {
	var rec UserRecord
	err := r.db.GetContext(ctx, &rec,
		`SELECT * FROM user WHERE isDeleted = 0 AND id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *SQLUserRepo) FindByUserName(ctx context.Context, encUserName string) (*UserRecord, error) {
	var rec UserRecord
	err := r.db.GetContext(ctx, &rec,
		`SELECT * FROM user WHERE isDeleted = 0 AND userName = ?`, encUserName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *SQLUserRepo) FindByConversationID(ctx context.Context, conversationID int) ([]UserRecord, error) {
	var recs []UserRecord
	err := r.db.SelectContext(ctx, &recs,
		`SELECT * FROM user
		 WHERE isDeleted = 0 AND id IN (
			SELECT DISTINCT userId FROM conversationUser
			WHERE isDeleted = 0 AND conversationId = ?
		 )`, conversationID)
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// UpdateProfile writes a subset of the encrypted profile columns. Only keys
// in encFields are touched; valid keys are firstName, lastName and email.
func (r *SQLUserRepo) UpdateProfile(ctx context.Context, id int, encFields map[string]string) error {
	if len(encFields) == 0 {
		return nil
	}

	assignments := make([]string, 0, len(encFields))
	args := make([]any, 0, len(encFields)+1)
	for _, col := range []string{"firstName", "lastName", "email"} {
		if v, ok := encFields[col]; ok {
			assignments = append(assignments, col+" = ?")
			args = append(args, v)
		}
	}
	if len(assignments) == 0 {
		return nil
	}
	args = append(args, id)

	_, err := r.db.ExecContext(ctx,
		`UPDATE user SET `+strings.Join(assignments, ", ")+` WHERE isDeleted = 0 AND id = ?`, args...)
	return err
}

func (r *SQLUserRepo) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE user SET passwordHash = ? WHERE isDeleted = 0 AND id = ?`, passwordHash, id)
	return err
}

func (r *SQLUserRepo) Delete(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE user SET isDeleted = 1 WHERE id = ?`, id)
	return err
}
