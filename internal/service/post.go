package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/devconnector/internal/aggregate"
	"github.com/sakif/devconnector/internal/model"
	"github.com/sakif/devconnector/internal/repository"
)

// PostService handles posts and their likes and comments.
type PostService struct {
	posts  repository.PostRepository
	users  repository.UserRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewPostService creates a new PostService.
func NewPostService(posts repository.PostRepository, users repository.UserRepository, logger *slog.Logger) *PostService {
	return &PostService{
		posts:  posts,
		users:  users,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create publishes a post. The author's current name and avatar are copied
// into it.
func (s *PostService) Create(ctx context.Context, userID, text string) (*model.Post, error) {
	author, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		logStorageFailure(s.logger, "failed to load post author", err, slog.String("userID", userID))
		return nil, fmt.Errorf("creating post: %w", err)
	}

	post := &model.Post{
		UserID: author.ID,
		Text:   strings.TrimSpace(text),
		Name:   author.Name,
		Avatar: author.Avatar,
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		logStorageFailure(s.logger, "failed to create post", err, slog.String("userID", userID))
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.String("postID", post.ID),
		slog.String("userID", userID),
	)
	return post, nil
}

// List returns a page of posts, newest first.
func (s *PostService) List(ctx context.Context, opts repository.ListOptions) ([]model.Post, error) {
	posts, err := s.posts.ListPosts(ctx, opts.Normalize())
	if err != nil {
		logStorageFailure(s.logger, "failed to list posts", err)
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return posts, nil
}

// Get returns a single post.
func (s *PostService) Get(ctx context.Context, postID string) (*model.Post, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		logStorageFailure(s.logger, "failed to get post", err, slog.String("postID", postID))
		return nil, fmt.Errorf("getting post: %w", err)
	}
	return post, nil
}

// Delete removes a post. Only its author may do so.
func (s *PostService) Delete(ctx context.Context, postID, actingUserID string) error {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		logStorageFailure(s.logger, "failed to get post", err, slog.String("postID", postID))
		return fmt.Errorf("deleting post: %w", err)
	}

	if err := aggregate.AssertOwner(post.UserID, actingUserID); err != nil {
		s.logger.Warn("post deletion refused",
			slog.String("postID", postID),
			slog.String("userID", actingUserID),
		)
		return err
	}

	if err := s.posts.DeletePost(ctx, postID); err != nil {
		logStorageFailure(s.logger, "failed to delete post", err, slog.String("postID", postID))
		return fmt.Errorf("deleting post: %w", err)
	}

	s.logger.Info("post deleted", slog.String("postID", postID))
	return nil
}

// Like adds the actor's like and returns the post's like list.
func (s *PostService) Like(ctx context.Context, postID, actingUserID string) ([]model.Like, error) {
	post, err := s.posts.UpdatePost(ctx, postID, func(p model.Post) (model.Post, error) {
		return aggregate.AddLike(p, actingUserID)
	})
	if err != nil {
		logStorageFailure(s.logger, "failed to like post", err, slog.String("postID", postID))
		return nil, fmt.Errorf("liking post: %w", err)
	}

	s.logger.Info("like added", slog.String("postID", postID), slog.String("userID", actingUserID))
	return post.Likes, nil
}

// Unlike removes the actor's like and returns the post's like list.
func (s *PostService) Unlike(ctx context.Context, postID, actingUserID string) ([]model.Like, error) {
	post, err := s.posts.UpdatePost(ctx, postID, func(p model.Post) (model.Post, error) {
		return aggregate.RemoveLike(p, actingUserID)
	})
	if err != nil {
		logStorageFailure(s.logger, "failed to unlike post", err, slog.String("postID", postID))
		return nil, fmt.Errorf("unliking post: %w", err)
	}

	s.logger.Info("like removed", slog.String("postID", postID), slog.String("userID", actingUserID))
	return post.Likes, nil
}

// Comment adds a comment by the actor and returns the post's comments.
func (s *PostService) Comment(ctx context.Context, postID, actingUserID, text string) ([]model.Comment, error) {
	commenter, err := s.users.GetUserByID(ctx, actingUserID)
	if err != nil {
		logStorageFailure(s.logger, "failed to load commenter", err, slog.String("userID", actingUserID))
		return nil, fmt.Errorf("commenting on post: %w", err)
	}

	author := aggregate.CommentAuthor{
		UserID: commenter.ID,
		Name:   commenter.Name,
		Avatar: commenter.Avatar,
	}
	text = strings.TrimSpace(text)
	now := s.now()

	post, err := s.posts.UpdatePost(ctx, postID, func(p model.Post) (model.Post, error) {
		return aggregate.AddComment(p, author, text, now), nil
	})
	if err != nil {
		logStorageFailure(s.logger, "failed to add comment", err, slog.String("postID", postID))
		return nil, fmt.Errorf("commenting on post: %w", err)
	}

	s.logger.Info("comment added", slog.String("postID", postID), slog.String("userID", actingUserID))
	return post.Comments, nil
}

// Uncomment deletes one of the actor's own comments and returns the
// remaining comments.
func (s *PostService) Uncomment(ctx context.Context, postID, commentID, actingUserID string) ([]model.Comment, error) {
	post, err := s.posts.UpdatePost(ctx, postID, func(p model.Post) (model.Post, error) {
		return aggregate.RemoveComment(p, commentID, actingUserID)
	})
	if err != nil {
		logStorageFailure(s.logger, "failed to remove comment", err, slog.String("postID", postID))
		return nil, fmt.Errorf("removing comment: %w", err)
	}

	s.logger.Info("comment removed",
		slog.String("postID", postID),
		slog.String("commentID", commentID),
	)
	return post.Comments, nil
}
