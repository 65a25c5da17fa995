package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/devconnector/internal/aggregate"
	"github.com/sakif/devconnector/internal/auth"
	"github.com/sakif/devconnector/internal/model"
	"github.com/sakif/devconnector/internal/repository"
)

// RepoLister fetches a GitHub user's recent repositories.
// *auth.GitHubClient implements it.
type RepoLister interface {
	LatestRepos(ctx context.Context, username string) ([]auth.GitHubRepo, error)
}

// ProfileService handles developer profiles and account deletion.
type ProfileService struct {
	profiles repository.ProfileRepository
	users    repository.UserRepository
	github   RepoLister
	logger   *slog.Logger
	now      func() time.Time
}

// NewProfileService creates a new ProfileService.
func NewProfileService(
	profiles repository.ProfileRepository,
	users repository.UserRepository,
	github RepoLister,
	logger *slog.Logger,
) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		users:    users,
		github:   github,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ForUser returns the profile owned by userID. It serves both "my profile"
// and the public by-user lookup.
func (s *ProfileService) ForUser(ctx context.Context, userID string) (*model.Profile, error) {
	p, err := s.profiles.GetProfileByUserID(ctx, userID)
	if err != nil {
		logStorageFailure(s.logger, "failed to get profile", err, slog.String("userID", userID))
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	return p, nil
}

// List returns every profile.
func (s *ProfileService) List(ctx context.Context) ([]model.Profile, error) {
	profiles, err := s.profiles.ListProfiles(ctx)
	if err != nil {
		logStorageFailure(s.logger, "failed to list profiles", err)
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	return profiles, nil
}

// Upsert creates the actor's profile or merges fields into it.
func (s *ProfileService) Upsert(ctx context.Context, userID string, fields aggregate.ProfileFields) (*model.Profile, error) {
	now := s.now()

	p, err := s.profiles.UpsertProfile(ctx, userID, func(existing *model.Profile) (model.Profile, error) {
		return aggregate.UpsertProfile(existing, userID, fields, now), nil
	})
	if err != nil {
		logStorageFailure(s.logger, "failed to upsert profile", err, slog.String("userID", userID))
		return nil, fmt.Errorf("saving profile: %w", err)
	}

	s.logger.Info("profile saved", slog.String("userID", userID), slog.String("profileID", p.ID))
	return p, nil
}

// AddExperience prepends an experience entry to the actor's profile.
func (s *ProfileService) AddExperience(ctx context.Context, userID string, entry model.ExperienceEntry) (*model.Profile, error) {
	return s.update(ctx, userID, "experience added", func(p model.Profile) model.Profile {
		return aggregate.AddExperience(p, entry)
	})
}

// RemoveExperience drops an experience entry. An unknown id leaves the
// profile as it was.
func (s *ProfileService) RemoveExperience(ctx context.Context, userID, entryID string) (*model.Profile, error) {
	return s.update(ctx, userID, "experience removed", func(p model.Profile) model.Profile {
		return aggregate.RemoveExperience(p, entryID)
	})
}

// AddEducation prepends an education entry to the actor's profile.
func (s *ProfileService) AddEducation(ctx context.Context, userID string, entry model.EducationEntry) (*model.Profile, error) {
	return s.update(ctx, userID, "education added", func(p model.Profile) model.Profile {
		return aggregate.AddEducation(p, entry)
	})
}

// RemoveEducation drops an education entry, silently ignoring unknown ids.
func (s *ProfileService) RemoveEducation(ctx context.Context, userID, entryID string) (*model.Profile, error) {
	return s.update(ctx, userID, "education removed", func(p model.Profile) model.Profile {
		return aggregate.RemoveEducation(p, entryID)
	})
}

func (s *ProfileService) update(ctx context.Context, userID, event string, rule func(model.Profile) model.Profile) (*model.Profile, error) {
	p, err := s.profiles.UpdateProfile(ctx, userID, func(p model.Profile) (model.Profile, error) {
		next := rule(p)
		next.UpdatedAt = s.now()
		return next, nil
	})
	if err != nil {
		logStorageFailure(s.logger, "failed to update profile", err, slog.String("userID", userID))
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	s.logger.Info(event, slog.String("userID", userID))
	return p, nil
}

// DeleteAccount removes the actor's posts, profile and user record.
func (s *ProfileService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.users.DeleteAccount(ctx, userID); err != nil {
		logStorageFailure(s.logger, "failed to delete account", err, slog.String("userID", userID))
		return fmt.Errorf("deleting account: %w", err)
	}

	s.logger.Info("account deleted", slog.String("userID", userID))
	return nil
}

// GitHubRepos lists the most recent public repositories of a GitHub user.
func (s *ProfileService) GitHubRepos(ctx context.Context, username string) ([]auth.GitHubRepo, error) {
	repos, err := s.github.LatestRepos(ctx, username)
	if err != nil {
		s.logger.Warn("github lookup failed",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("fetching github repos: %w", err)
	}
	return repos, nil
}
