package service

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/devconnector/internal/apperror"
	"github.com/sakif/devconnector/internal/auth"
	"github.com/sakif/devconnector/internal/model"
	"github.com/sakif/devconnector/internal/repository"
	"github.com/sakif/devconnector/internal/repository/sqlite"
)

// =========================================================================
// TEST ENVIRONMENT
// =========================================================================
//
// Services are exercised against a real in-memory SQLite database rather than
// hand-written mocks: the interesting behaviour (version-checked updates,
// account deletion) lives in the repository contract, and a fake would
// have to reimplement it. Failure paths use the small stubs further down.

type testEnv struct {
	db       *sqlite.DB
	tokens   *auth.TokenService
	auth     *AuthService
	posts    *PostService
	profiles *ProfileService
	github   *stubRepoLister
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("sqlite.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("service-test-secret-0123456789", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	passwords, err := auth.NewPasswordService(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewPasswordService: %v", err)
	}

	logger := quietLogger()
	gh := &stubRepoLister{}

	return &testEnv{
		db:       db,
		tokens:   tokens,
		auth:     NewAuthService(db, tokens, passwords, logger),
		posts:    NewPostService(db, db, logger),
		profiles: NewProfileService(db, db, gh, logger),
		github:   gh,
	}
}

// register creates an account through AuthService and returns its user id.
func (e *testEnv) register(t *testing.T, name, email string) string {
	t.Helper()
	token, err := e.auth.Register(context.Background(), name, email, "secret123")
	if err != nil {
		t.Fatalf("Register(%q): %v", email, err)
	}
	userID, err := e.tokens.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return userID
}

// =========================================================================
// STUBS
// =========================================================================

type stubRepoLister struct {
	repos []auth.GitHubRepo
	err   error
	asked string
}

func (s *stubRepoLister) LatestRepos(_ context.Context, username string) ([]auth.GitHubRepo, error) {
	s.asked = username
	return s.repos, s.err
}

// brokenPosts fails every call with a storage error.
type brokenPosts struct{}

func (brokenPosts) fail() error { return apperror.Storage("posts", os.ErrClosed) }

func (b brokenPosts) CreatePost(context.Context, *model.Post) error { return b.fail() }
func (b brokenPosts) GetPostByID(context.Context, string) (*model.Post, error) {
	return nil, b.fail()
}
func (b brokenPosts) ListPosts(context.Context, repository.ListOptions) ([]model.Post, error) {
	return nil, b.fail()
}
func (b brokenPosts) UpdatePost(context.Context, string, repository.PostMutator) (*model.Post, error) {
	return nil, b.fail()
}
func (b brokenPosts) DeletePost(context.Context, string) error { return b.fail() }

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}
