package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/devlink/internal/auth"
	"github.com/sakif/devlink/internal/model"
	"github.com/sakif/devlink/internal/repository"
)

// AuthService orchestrates the GitHub OAuth callback: upsert the profile,
// stash the access token for later repo imports, issue the session JWT.
// HTTP concerns (cookies, redirects) stay in the handler.
type AuthService struct {
	profiles repository.ProfileRepository
	tokens   *auth.TokenService
	logger   *slog.Logger
}

func NewAuthService(profiles repository.ProfileRepository, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{
		profiles: profiles,
		tokens:   tokens,
		logger:   logger,
	}
}

// AuthResult bundles the profile and the issued JWT so the handler can set
// the session cookie and respond in one step.
type AuthResult struct {
	Profile *model.Profile
	Token   string
}

// LoginOrRegisterGitHub completes a GitHub sign-in.
//
// GitHub's numeric user ID is stable and unique, so the upsert keys on it:
// first login creates the profile, later logins refresh the GitHub-sourced
// fields while the user's own edits (username, bio, theme) stay put. The
// OAuth access token is stored server-side so the repository importer can use
// it without another round through GitHub.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser, accessToken string) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	profile := &model.Profile{
		GitHubID:    ghUser.ID,
		Login:       ghUser.Login,
		DisplayName: ghUser.Name,
		Email:       ghUser.Email,
		PhotoURL:    ghUser.AvatarURL,
	}
	if profile.DisplayName == "" {
		profile.DisplayName = ghUser.Login
	}

	if err := s.profiles.UpsertByGitHubID(ctx, profile); err != nil {
		return nil, fmt.Errorf("service/auth: upserting profile (githubID=%d): %w", ghUser.ID, err)
	}

	if accessToken != "" {
		if err := s.profiles.SetGitHubToken(ctx, profile.ID, accessToken); err != nil {
			return nil, fmt.Errorf("service/auth: storing access token for profile %s: %w", profile.ID, err)
		}
	}

	s.logger.Info("profile authenticated via GitHub",
		slog.String("profile_id", profile.ID),
		slog.String("login", profile.Login),
	)

	token, err := s.tokens.Generate(profile.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for profile %s: %w", profile.ID, err)
	}

	return &AuthResult{
		Profile: profile,
		Token:   token,
	}, nil
}

// GetProfileByID returns the profile behind an authenticated session. Used by
// the /api/me handler after the middleware validates the JWT.
func (s *AuthService) GetProfileByID(ctx context.Context, id string) (*model.Profile, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: profile ID must not be empty")
	}

	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching profile %s: %w", id, err)
	}
	return profile, nil
}

// ValidateToken validates a JWT string and returns the profile ID it encodes.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	profileID, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}
	return profileID, nil
}
