// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// For posts and profiles the rules themselves live in internal/aggregate.
// A service method loads nothing by hand: it passes the aggregate rule to
// the repository's Update method as a closure, and the repository runs it
// under its version check. If a concurrent write wins, the repository
// reloads and runs the closure again on fresh data.
//
// DEPENDENCY INJECTION:
// Services take repository interfaces, NOT a *sqlite.DB. Tests can pass an
// in-memory SQLite database or a failing stub with equal ease.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/devconnector/internal/apperror"
	"github.com/sakif/devconnector/internal/auth"
	"github.com/sakif/devconnector/internal/avatar"
	"github.com/sakif/devconnector/internal/model"
	"github.com/sakif/devconnector/internal/repository"
)

// AuthService handles registration, login and token checks.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                               ↘ TokenService (JWT), PasswordService (bcrypt)
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// errInvalidCredentials is deliberately the same for an unknown email and a
// wrong password.
func errInvalidCredentials() error {
	return apperror.ValidationFailed("", "invalid credentials")
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and returns an access token for it.
//
// The avatar is the Gravatar image for the email. A taken email comes back
// as apperror.ErrConflict.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (string, error) {
	email = NormalizeEmail(email)

	hash, err := s.passwords.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return "", apperror.ValidationFailed("password", err.Error())
		}
		return "", fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Avatar:       avatar.Gravatar(email),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return "", err
		}
		logStorageFailure(s.logger, "failed to create user", err, slog.String("email", email))
		return "", fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID))

	return s.issue(user.ID)
}

// Login checks email and password and returns a fresh access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperror.ErrUserNotFound) {
			s.passwords.VerifyNothing(password)
			return "", errInvalidCredentials()
		}
		logStorageFailure(s.logger, "failed to look up user", err)
		return "", fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("login rejected", slog.String("userID", user.ID))
			return "", errInvalidCredentials()
		}
		return "", fmt.Errorf("service/auth: verifying password: %w", err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return s.issue(user.ID)
}

// CurrentUser returns the account behind an authenticated request.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		logStorageFailure(s.logger, "failed to load current user", err, slog.String("userID", userID))
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}
	return user, nil
}

func (s *AuthService) issue(userID string) (string, error) {
	token, err := s.tokens.Generate(userID)
	if err != nil {
		return "", fmt.Errorf("service/auth: generating token for user %s: %w", userID, err)
	}
	return token, nil
}

// logStorageFailure logs persistence failures at Error level. Domain errors
// (not found, already liked, ...) are ordinary outcomes and are not logged.
func logStorageFailure(logger *slog.Logger, msg string, err error, attrs ...any) {
	if errors.Is(err, apperror.ErrStorage) {
		logger.Error(msg, append(attrs, slog.String("error", err.Error()))...)
	}
}
