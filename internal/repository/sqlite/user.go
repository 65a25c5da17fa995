package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/devconnector/internal/apperror"
	"github.com/sakif/devconnector/internal/model"
	"github.com/sakif/devconnector/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// CreateUser inserts a new user, filling in ID and CreatedAt.
//
// The email column is UNIQUE. When two registrations race for the same
// address the second INSERT fails with a constraint error, which we turn
// into apperror.Conflict. No "SELECT first, then INSERT" check is needed,
// and none would be safe without the constraint anyway.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, avatar, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Avatar,
		user.CreatedAt.UnixNano(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &apperror.AppError{
				Err:     apperror.ErrConflict,
				Message: "user already exists",
				Field:   "email",
			}
		}
		return apperror.Storage("inserting user", err)
	}

	return nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrUserNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := db.scanUser(ctx, `WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.UserNotFound(id)
	}
	return u, err
}

// GetUserByEmail looks a user up by the (already lowercased) email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := db.scanUser(ctx, `WHERE email = ?`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperror.AppError{
			Err:     apperror.ErrUserNotFound,
			Message: "user not found",
			Field:   "email",
		}
	}
	return u, err
}

// scanUser returns sql.ErrNoRows untouched so callers can pick their own
// not-found message.
func (db *DB) scanUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var (
		u       model.User
		created int64
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, avatar, created_at FROM users `+where,
		arg,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Avatar, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperror.Storage("getting user", err)
	}

	u.CreatedAt = time.Unix(0, created).UTC()
	return &u, nil
}

// DeleteAccount removes everything a user owns, then the user.
//
// The three deletes run in one transaction: a failure halfway never leaves
// posts behind for an account that no longer exists, or a user without the
// posts they thought they deleted. Comments and likes the user left on other
// people's posts live inside those posts' documents and are kept, as they
// still carry the author's name and avatar snapshot.
func (db *DB) DeleteAccount(ctx context.Context, userID string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return apperror.Storage("beginning account deletion", err)
	}
	// Rollback after Commit is a no-op, so this is safe on every path.
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE user_id = ?`, userID); err != nil {
		return apperror.Storage("deleting posts", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = ?`, userID); err != nil {
		return apperror.Storage("deleting profile", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return apperror.Storage("deleting user", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return apperror.Storage("checking rows affected", err)
	}
	if n == 0 {
		return apperror.UserNotFound(userID)
	}

	if err := tx.Commit(); err != nil {
		return apperror.Storage("committing account deletion", err)
	}
	return nil
}
