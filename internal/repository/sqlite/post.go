package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/devconnector/internal/apperror"
	"github.com/sakif/devconnector/internal/model"
	"github.com/sakif/devconnector/internal/repository"
)

var _ repository.PostRepository = (*DB)(nil)

// CreatePost stores a new post, filling in ID and CreatedAt.
// Nil like/comment lists are stored as empty arrays.
func (db *DB) CreatePost(ctx context.Context, post *model.Post) error {
	post.ID = xid.New().String()
	post.CreatedAt = time.Now().UTC()
	if post.Likes == nil {
		post.Likes = []model.Like{}
	}
	if post.Comments == nil {
		post.Comments = []model.Comment{}
	}

	doc, err := json.Marshal(post)
	if err != nil {
		return apperror.Storage("encoding posts", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO posts (id, user_id, doc, version, created_at) VALUES (?, ?, ?, 1, ?)`,
		post.ID, post.UserID, string(doc), post.CreatedAt.UnixNano(),
	)
	if err != nil {
		return apperror.Storage("inserting post", err)
	}
	return nil
}

// GetPostByID retrieves a single post.
// Returns apperror.ErrPostNotFound if no post exists with that ID.
func (db *DB) GetPostByID(ctx context.Context, id string) (*model.Post, error) {
	var raw string
	err := db.conn.QueryRowContext(ctx, `SELECT doc FROM posts WHERE id = ?`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.PostNotFound(id)
		}
		return nil, apperror.Storage("getting post", err)
	}

	var p model.Post
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, apperror.Storage("decoding posts", err)
	}
	return &p, nil
}

// ListPosts returns posts newest first.
//
// Ties on created_at (possible at nanosecond resolution only in tests that
// insert in a tight loop) are broken by id. xids sort by creation time, so
// the order stays stable across pages.
func (db *DB) ListPosts(ctx context.Context, opts repository.ListOptions) ([]model.Post, error) {
	opts = opts.Normalize()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT doc FROM posts ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, apperror.Storage("listing posts", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, apperror.Storage("scanning post", err)
		}
		var p model.Post
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, apperror.Storage("decoding posts", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Storage("iterating posts", err)
	}

	return posts, nil
}

// UpdatePost applies mutate to the stored post under the version check.
func (db *DB) UpdatePost(ctx context.Context, id string, mutate repository.PostMutator) (*model.Post, error) {
	return updateDoc[model.Post](ctx, db, "posts", "id", id,
		func() error { return apperror.PostNotFound(id) },
		mutate,
	)
}

// DeletePost removes a post by ID.
// Returns apperror.ErrPostNotFound if nothing was deleted.
func (db *DB) DeletePost(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return apperror.Storage("deleting post", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return apperror.Storage("checking rows affected", err)
	}
	if n == 0 {
		return apperror.PostNotFound(id)
	}
	return nil
}
