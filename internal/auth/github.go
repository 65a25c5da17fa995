package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/sakif/devconnector/internal/apperror"
)

// GitHubRepo is the portion of a GitHub repository object shown on a
// profile page. GitHub returns a much larger object; we only unmarshal the
// fields we need.
//
// GitHub API docs: https://docs.github.com/en/rest/repos/repos#list-repositories-for-a-user
type GitHubRepo struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	HTMLURL     string    `json:"html_url"`
	Description string    `json:"description"`
	Language    string    `json:"language"`
	Stars       int       `json:"stargazers_count"`
	Watchers    int       `json:"watchers_count"`
	Forks       int       `json:"forks_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// DefaultGitHubAPI is the public GitHub REST endpoint.
const DefaultGitHubAPI = "https://api.github.com"

// GitHubClient lists a user's public repositories.
//
// RATE LIMITS:
// Anonymous calls to the GitHub API are limited to 60 per hour per IP. With
// a personal access token the limit is 5000. When a token is configured the
// client is built with oauth2.NewClient, whose transport adds
// "Authorization: Bearer <token>" to every request, so no call site has to
// remember the header.
type GitHubClient struct {
	http    *http.Client
	baseURL string
}

// NewGitHubClient creates a client for baseURL (DefaultGitHubAPI when
// empty). token may be empty for anonymous access.
func NewGitHubClient(baseURL, token string) *GitHubClient {
	if baseURL == "" {
		baseURL = DefaultGitHubAPI
	}

	client := &http.Client{}
	if token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		client = oauth2.NewClient(context.Background(), src)
	}
	client.Timeout = 10 * time.Second

	return &GitHubClient{http: client, baseURL: baseURL}
}

// LatestRepos returns up to five of username's public repositories, oldest
// creation date first, the way the profile page shows them.
//
// An unknown GitHub user comes back as apperror.ErrNotFound.
func (c *GitHubClient) LatestRepos(ctx context.Context, username string) ([]GitHubRepo, error) {
	endpoint := fmt.Sprintf("%s/users/%s/repos?per_page=5&sort=created:asc",
		c.baseURL, url.PathEscape(username))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building GitHub request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "devconnector")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: calling GitHub repos API: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: "no GitHub profile found",
			Field:   "username",
		}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("auth: GitHub repos API returned status %d", resp.StatusCode)
	}

	repos := []GitHubRepo{}
	if err := json.NewDecoder(resp.Body).Decode(&repos); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub repos response: %w", err)
	}

	return repos, nil
}
