// Package github is the client for the GitHub REST API, used to import a
// user's repositories as links. It performs I/O only in Client; the mapper
// (mapper.go) is a pure transform over fetched data.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/devlink/internal/apperror"
)

// DefaultBaseURL is the public GitHub REST API endpoint. Tests point the
// client at an httptest server instead.
const DefaultBaseURL = "https://api.github.com"

// Repo is the portion of a GitHub repository object we care about.
// GitHub returns a much larger object; we only unmarshal the fields we need.
//
// Description and Language are null for some repositories; encoding/json
// leaves the zero value in place for JSON null, which is exactly the
// "absent → empty string" behaviour the mapper wants.
type Repo struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	HTMLURL     string   `json:"html_url"`
	Description string   `json:"description"`
	Stargazers  int      `json:"stargazers_count"`
	Language    string   `json:"language"`
	Fork        bool     `json:"fork"`
	Topics      []string `json:"topics"`
}

// Client calls the GitHub REST API with a user's OAuth access token.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a Client. baseURL may be empty to use the real API.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// ListOwnedNonForkRepos fetches the authenticated user's repositories, most
// recently updated first, with forks filtered out.
//
// Error mapping:
//   - 401/403       → apperror.ErrUnauthorized (token expired or revoked; the
//     caller should prompt for re-authentication, not retry)
//   - other non-200 → apperror.ErrUpstream (retryable service failure)
func (c *Client) ListOwnedNonForkRepos(ctx context.Context, accessToken string) ([]Repo, error) {
	if accessToken == "" {
		return nil, apperror.Unauthorized("no GitHub access token on file")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/user/repos?sort=updated&per_page=30&type=owner", nil)
	if err != nil {
		return nil, fmt.Errorf("github: building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperror.Upstream("GitHub", "could not reach the GitHub API")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, apperror.Unauthorized("GitHub rejected the access token")
	case resp.StatusCode != http.StatusOK:
		c.logger.Warn("GitHub repo listing failed",
			slog.Int("status", resp.StatusCode),
		)
		return nil, apperror.Upstream("GitHub", fmt.Sprintf("repo listing returned status %d", resp.StatusCode))
	}

	var repos []Repo
	if err := json.NewDecoder(resp.Body).Decode(&repos); err != nil {
		return nil, apperror.Upstream("GitHub", "could not decode the repo listing response")
	}

	owned := make([]Repo, 0, len(repos))
	for _, r := range repos {
		if r.Fork {
			continue
		}
		owned = append(owned, r)
	}

	return owned, nil
}
