package repository

import (
	"context"

	"github.com/sakif/devconnector/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// Page sizes for ListPosts. A zero or negative Limit means DefaultListLimit.
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Normalize clamps Limit into [1, MaxListLimit] and Offset to >= 0.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// MaxUpdateAttempts bounds how many times an update re-applies a mutation
// after losing a version race to a concurrent writer.
const MaxUpdateAttempts = 10

// PostMutator turns the stored post into its next state. It may be called
// more than once, each time with a freshly loaded snapshot, so it must not
// have side effects beyond computing the result.
type PostMutator func(model.Post) (model.Post, error)

// ProfileMutator is the Profile counterpart of PostMutator.
type ProfileMutator func(model.Profile) (model.Profile, error)

// ProfileUpserter receives the stored profile, or nil when the user has none yet.
type ProfileUpserter func(existing *model.Profile) (model.Profile, error)

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// DeleteAccount removes the user's posts, profile and identity together.
	DeleteAccount(ctx context.Context, userID string) error
}

type ProfileRepository interface {
	GetProfileByUserID(ctx context.Context, userID string) (*model.Profile, error)
	ListProfiles(ctx context.Context) ([]model.Profile, error)
	UpsertProfile(ctx context.Context, userID string, upsert ProfileUpserter) (*model.Profile, error)
	UpdateProfile(ctx context.Context, userID string, mutate ProfileMutator) (*model.Profile, error)
}

type PostRepository interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPostByID(ctx context.Context, id string) (*model.Post, error)
	ListPosts(ctx context.Context, opts ListOptions) ([]model.Post, error)
	UpdatePost(ctx context.Context, id string, mutate PostMutator) (*model.Post, error)
	DeletePost(ctx context.Context, id string) error
}
