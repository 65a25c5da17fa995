package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrAlreadyLiked = errors.New("already liked")
	ErrNotLiked     = errors.New("not liked")
	ErrStorage      = errors.New("storage failure")
)

// The not-found family. Each one also matches ErrNotFound, so handlers can
// map the whole family to 404 with a single errors.Is check.
var (
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrProfileNotFound = fmt.Errorf("profile %w", ErrNotFound)
	ErrPostNotFound    = fmt.Errorf("post %w", ErrNotFound)
	ErrCommentNotFound = fmt.Errorf("comment %w", ErrNotFound)
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func UserNotFound(id string) *AppError {
	return &AppError{
		Err:     ErrUserNotFound,
		Message: fmt.Sprintf("user not found with id %s", id),
	}
}

// ProfileNotFound is keyed by the owning user, since profiles are looked up
// by user id everywhere.
func ProfileNotFound(userID string) *AppError {
	return &AppError{
		Err:     ErrProfileNotFound,
		Message: fmt.Sprintf("there is no profile for user %s", userID),
	}
}

func PostNotFound(id string) *AppError {
	return &AppError{
		Err:     ErrPostNotFound,
		Message: fmt.Sprintf("post not found with id %s", id),
	}
}

func CommentNotFound(id string) *AppError {
	return &AppError{
		Err:     ErrCommentNotFound,
		Message: fmt.Sprintf("comment not found with id %s", id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Unauthorized returns an AppError indicating the actor may not touch the
// resource. HTTP handlers map this to 401 Unauthorized.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

func AlreadyLiked(postID string) *AppError {
	return &AppError{
		Err:     ErrAlreadyLiked,
		Message: fmt.Sprintf("post %s already liked", postID),
	}
}

func NotLiked(postID string) *AppError {
	return &AppError{
		Err:     ErrNotLiked,
		Message: fmt.Sprintf("post %s has not been liked by you", postID),
	}
}

// Storage wraps a persistence failure. Both ErrStorage and the driver error
// stay reachable through errors.Is.
func Storage(op string, err error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %s: %w", ErrStorage, op, err),
		Message: "storage failure",
	}
}
