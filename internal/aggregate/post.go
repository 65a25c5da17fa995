package aggregate

import (
	"time"

	"github.com/sakif/devconnector/internal/apperror"
	"github.com/sakif/devconnector/internal/model"
)

// HasLiked reports whether userID has a like on the post.
func HasLiked(post model.Post, userID string) bool {
	for _, l := range post.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

// AddLike puts the actor's like at the head of the like list.
// A user may like a post only once; the store does not enforce uniqueness
// inside the document, so it is checked here.
func AddLike(post model.Post, actingUserID string) (model.Post, error) {
	if HasLiked(post, actingUserID) {
		return post, apperror.AlreadyLiked(post.ID)
	}
	post.Likes = prepend(post.Likes, model.Like{UserID: actingUserID})
	return post, nil
}

// RemoveLike drops the actor's like. Fails with NotLiked if there is none.
func RemoveLike(post model.Post, actingUserID string) (model.Post, error) {
	likes, removed := without(post.Likes, func(l model.Like) bool {
		return l.UserID == actingUserID
	})
	if !removed {
		return post, apperror.NotLiked(post.ID)
	}
	post.Likes = likes
	return post, nil
}

// CommentAuthor is the commenter snapshot copied into a new comment.
type CommentAuthor struct {
	UserID string
	Name   string
	Avatar string
}

// AddComment puts a new comment at the head of the comment list.
// There is no duplicate check: the same user may post the same text twice.
func AddComment(post model.Post, author CommentAuthor, text string, now time.Time) model.Post {
	post.Comments = prepend(post.Comments, model.Comment{
		ID:        newID(),
		UserID:    author.UserID,
		Text:      text,
		Name:      author.Name,
		Avatar:    author.Avatar,
		CreatedAt: now,
	})
	return post
}

// RemoveComment deletes a comment by id. Ownership is checked against the
// comment's author, not the post's: a post owner cannot remove other
// people's comments.
func RemoveComment(post model.Post, commentID, actingUserID string) (model.Post, error) {
	var found *model.Comment
	for i := range post.Comments {
		if post.Comments[i].ID == commentID {
			found = &post.Comments[i]
			break
		}
	}
	if found == nil {
		return post, apperror.CommentNotFound(commentID)
	}
	if err := AssertOwner(found.UserID, actingUserID); err != nil {
		return post, err
	}

	post.Comments, _ = without(post.Comments, func(c model.Comment) bool {
		return c.ID == commentID
	})
	return post, nil
}
