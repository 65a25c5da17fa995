package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/sakif/devconnector/internal/apperror"
	"github.com/sakif/devconnector/internal/model"
	"github.com/sakif/devconnector/internal/repository"
)

var _ repository.ProfileRepository = (*DB)(nil)

// profileSelect joins the owner so reads can embed {id, name, avatar}.
// LEFT JOIN: a profile whose user row is gone still loads, just without
// the summary.
const profileSelect = `
	SELECT p.doc, u.id, u.name, u.avatar
	FROM profiles p
	LEFT JOIN users u ON u.id = p.user_id`

// GetProfileByUserID returns the profile owned by userID.
// Returns apperror.ErrProfileNotFound if the user has none.
func (db *DB) GetProfileByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	row := db.conn.QueryRowContext(ctx, profileSelect+` WHERE p.user_id = ?`, userID)

	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ProfileNotFound(userID)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListProfiles returns every profile, oldest first.
func (db *DB) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	rows, err := db.conn.QueryContext(ctx, profileSelect+` ORDER BY p.created_at ASC, p.id ASC`)
	if err != nil {
		return nil, apperror.Storage("listing profiles", err)
	}
	defer rows.Close()

	// Non-nil so an empty result encodes as [] rather than null.
	profiles := []model.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Storage("iterating profiles", err)
	}

	return profiles, nil
}

// UpsertProfile creates or updates the user's single profile.
//
// The "does it exist?" branch is decided again on every attempt:
//   - no row: INSERT ... ON CONFLICT(user_id) DO NOTHING. If another request
//     created the profile first, nothing is inserted and we loop, this time
//     taking the update branch.
//   - a row: the usual version-checked UPDATE.
func (db *DB) UpsertProfile(ctx context.Context, userID string, upsert repository.ProfileUpserter) (*model.Profile, error) {
	for attempt := 0; attempt < repository.MaxUpdateAttempts; attempt++ {
		var (
			raw     string
			version int64
		)
		err := db.conn.QueryRowContext(ctx,
			`SELECT doc, version FROM profiles WHERE user_id = ?`, userID,
		).Scan(&raw, &version)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			next, err := upsert(nil)
			if err != nil {
				return nil, err
			}
			ok, err := db.insertProfile(ctx, next)
			if err != nil {
				return nil, err
			}
			if ok {
				return db.withOwner(ctx, next)
			}

		case err != nil:
			return nil, apperror.Storage("loading profiles", err)

		default:
			var current model.Profile
			if err := json.Unmarshal([]byte(raw), &current); err != nil {
				return nil, apperror.Storage("decoding profiles", err)
			}
			next, err := upsert(&current)
			if err != nil {
				return nil, err
			}
			ok, err := db.replaceProfile(ctx, next, version)
			if err != nil {
				return nil, err
			}
			if ok {
				return db.withOwner(ctx, next)
			}
		}
	}

	return nil, apperror.Storage("upserting profile", errVersionConflict)
}

// UpdateProfile applies mutate to an existing profile.
// Returns apperror.ErrProfileNotFound if the user has none.
func (db *DB) UpdateProfile(ctx context.Context, userID string, mutate repository.ProfileMutator) (*model.Profile, error) {
	next, err := updateDoc[model.Profile](ctx, db, "profiles", "user_id", userID,
		func() error { return apperror.ProfileNotFound(userID) },
		func(p model.Profile) (model.Profile, error) {
			next, err := mutate(p)
			next.User = nil
			return next, err
		},
	)
	if err != nil {
		return nil, err
	}
	return db.withOwner(ctx, *next)
}

func (db *DB) insertProfile(ctx context.Context, p model.Profile) (bool, error) {
	p.User = nil
	doc, err := json.Marshal(p)
	if err != nil {
		return false, apperror.Storage("encoding profiles", err)
	}

	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO profiles (id, user_id, doc, version, created_at)
		 VALUES (?, ?, ?, 1, ?)
		 ON CONFLICT(user_id) DO NOTHING`,
		p.ID, p.UserID, string(doc), created.UnixNano(),
	)
	if err != nil {
		return false, apperror.Storage("inserting profile", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, apperror.Storage("checking rows affected", err)
	}
	return n == 1, nil
}

func (db *DB) replaceProfile(ctx context.Context, p model.Profile, version int64) (bool, error) {
	p.User = nil
	doc, err := json.Marshal(p)
	if err != nil {
		return false, apperror.Storage("encoding profiles", err)
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE profiles SET doc = ?, version = version + 1 WHERE user_id = ? AND version = ?`,
		string(doc), p.UserID, version,
	)
	if err != nil {
		return false, apperror.Storage("updating profiles", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, apperror.Storage("checking rows affected", err)
	}
	return n == 1, nil
}

// withOwner attaches the owner's summary to a profile that was just written.
func (db *DB) withOwner(ctx context.Context, p model.Profile) (*model.Profile, error) {
	u, err := db.GetUserByID(ctx, p.UserID)
	if err != nil && !errors.Is(err, apperror.ErrUserNotFound) {
		return nil, err
	}
	if u != nil {
		p.User = u.Summary()
	}
	return &p, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*model.Profile, error) {
	var raw string
	var ownerID, name, avatar sql.NullString
	if err := row.Scan(&raw, &ownerID, &name, &avatar); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperror.Storage("reading profile", err)
	}

	var p model.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, apperror.Storage("decoding profiles", err)
	}
	if ownerID.Valid {
		p.User = &model.UserSummary{ID: ownerID.String, Name: name.String, Avatar: avatar.String}
	}
	return &p, nil
}
