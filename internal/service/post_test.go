package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/devconnector/internal/apperror"
	"github.com/sakif/devconnector/internal/repository"
)

func TestPostService_CreateAndGet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.register(t, "Ada", "ada@example.com")

	post, err := env.posts.Create(ctx, ada, "  hello world  ")
	require.NoError(t, err)
	assert.Equal(t, "hello world", post.Text)
	assert.Equal(t, "Ada", post.Name)
	assert.NotEmpty(t, post.Avatar)

	got, err := env.posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)

	list, err := env.posts.List(ctx, repository.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPostService_CreateUnknownAuthor(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.posts.Create(context.Background(), "ghost", "hi")
	assert.True(t, errors.Is(err, apperror.ErrUserNotFound))
}

func TestPostService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.register(t, "Ada", "ada@example.com")
	bob := env.register(t, "Bob", "bob@example.com")

	post, err := env.posts.Create(ctx, ada, "mine")
	require.NoError(t, err)

	err = env.posts.Delete(ctx, post.ID, bob)
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))

	_, err = env.posts.Get(ctx, post.ID)
	require.NoError(t, err, "a refused delete must leave the post in place")

	require.NoError(t, env.posts.Delete(ctx, post.ID, ada))

	_, err = env.posts.Get(ctx, post.ID)
	assert.True(t, errors.Is(err, apperror.ErrPostNotFound))

	err = env.posts.Delete(ctx, post.ID, ada)
	assert.True(t, errors.Is(err, apperror.ErrPostNotFound))
}

func TestPostService_LikeUnlike(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.register(t, "Ada", "ada@example.com")
	bob := env.register(t, "Bob", "bob@example.com")
	post, err := env.posts.Create(ctx, ada, "like me")
	require.NoError(t, err)

	likes, err := env.posts.Like(ctx, post.ID, bob)
	require.NoError(t, err)
	require.Len(t, likes, 1)
	assert.Equal(t, bob, likes[0].UserID)

	_, err = env.posts.Like(ctx, post.ID, bob)
	assert.True(t, errors.Is(err, apperror.ErrAlreadyLiked))

	likes, err = env.posts.Like(ctx, post.ID, ada)
	require.NoError(t, err)
	assert.Equal(t, ada, likes[0].UserID, "newest like first")

	likes, err = env.posts.Unlike(ctx, post.ID, bob)
	require.NoError(t, err)
	require.Len(t, likes, 1)
	assert.Equal(t, ada, likes[0].UserID)

	_, err = env.posts.Unlike(ctx, post.ID, bob)
	assert.True(t, errors.Is(err, apperror.ErrNotLiked))

	_, err = env.posts.Like(ctx, "missing", bob)
	assert.True(t, errors.Is(err, apperror.ErrPostNotFound))
}

func TestPostService_Comments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.register(t, "Ada", "ada@example.com")
	bob := env.register(t, "Bob", "bob@example.com")
	post, err := env.posts.Create(ctx, ada, "discuss")
	require.NoError(t, err)

	comments, err := env.posts.Comment(ctx, post.ID, bob, " first! ")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	c := comments[0]
	assert.Equal(t, "first!", c.Text)
	assert.Equal(t, "Bob", c.Name)
	assert.Equal(t, bob, c.UserID)
	assert.False(t, c.CreatedAt.IsZero())

	// The post author cannot remove someone else's comment.
	_, err = env.posts.Uncomment(ctx, post.ID, c.ID, ada)
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))

	_, err = env.posts.Uncomment(ctx, post.ID, "missing", bob)
	assert.True(t, errors.Is(err, apperror.ErrCommentNotFound))

	comments, err = env.posts.Uncomment(ctx, post.ID, c.ID, bob)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestPostService_StorageFailure(t *testing.T) {
	env := newTestEnv(t)
	logger, buf := bufferLogger()
	svc := NewPostService(brokenPosts{}, env.db, logger)

	_, err := svc.Like(context.Background(), "p1", "u1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrStorage))
	assert.Contains(t, buf.String(), "failed to like post")
}

func TestPostService_DomainErrorsAreNotLoggedAsFailures(t *testing.T) {
	env := newTestEnv(t)
	logger, buf := bufferLogger()
	svc := NewPostService(env.db, env.db, logger)

	_, err := svc.Like(context.Background(), "missing", "u1")
	require.Error(t, err)
	assert.NotContains(t, buf.String(), "level=ERROR")
}
