// Package service contains the business logic layer: validation, ownership
// rules, and orchestration between the store, the GitHub client, and the
// session tokens. Services accept primitives and domain types, never HTTP
// types, and return apperror values for the handlers to translate.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sakif/devlink/internal/apperror"
	"github.com/sakif/devlink/internal/model"
	"github.com/sakif/devlink/internal/repository"
	"github.com/sakif/devlink/internal/stacks"
)

const (
	// MaxProfileTextLength bounds the free-text profile fields (bio, project
	// intro, display name).
	MaxProfileTextLength = 280

	// MaxUsernameLength bounds the public page slug.
	MaxUsernameLength = 39 // matches GitHub's own login limit
)

// usernamePattern is the full shape of a valid public username: letters,
// digits, underscore, hyphen. No dots or slashes, so a username can never
// escape its URL segment.
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ProfileService handles profile reads and edits, including the username
// claim flow.
type ProfileService struct {
	repo   repository.ProfileRepository
	logger *slog.Logger
}

func NewProfileService(repo repository.ProfileRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		repo:   repo,
		logger: logger,
	}
}

// GetByID retrieves a profile by its internal ID.
func (s *ProfileService) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "profile ID is required")
	}
	return s.repo.GetByID(ctx, id)
}

// GetByUsername resolves a public page by its username. Case-sensitive;
// returns ErrNotFound for unknown or unclaimed usernames.
func (s *ProfileService) GetByUsername(ctx context.Context, username string) (*model.Profile, error) {
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	return s.repo.GetByUsername(ctx, username)
}

// SetUsername claims a public username for the profile.
//
// Re-claiming one's own current username is a no-op success, which makes the
// operation idempotent for a client that retries. A username held by anyone
// else is a conflict. The check-then-write here is racy on its own; the
// store's unique index turns a lost race into the same ErrConflict.
func (s *ProfileService) SetUsername(ctx context.Context, profileID, username string) (*model.Profile, error) {
	username = strings.TrimSpace(username)

	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	if !usernamePattern.MatchString(username) {
		return nil, apperror.ValidationFailed("username",
			"username may only contain letters, digits, underscores and hyphens")
	}

	profile, err := s.repo.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if profile.Username == username {
		return profile, nil
	}

	existing, err := s.repo.GetByUsername(ctx, username)
	switch {
	case err == nil && existing.ID != profileID:
		return nil, apperror.Conflict("username", username)
	case err != nil && !errors.Is(err, apperror.ErrNotFound):
		return nil, err
	}

	profile.Username = username
	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}

	s.logger.Info("username claimed",
		slog.String("profile_id", profileID),
		slog.String("username", username),
	)
	return profile, nil
}

// ProfileUpdate carries the user-editable profile fields. Nil fields are left
// unchanged.
type ProfileUpdate struct {
	DisplayName  *string      `json:"displayName"`
	Bio          *string      `json:"bio"`
	ProjectIntro *string      `json:"projectIntro"`
	Stacks       *[]string    `json:"stacks"`
	Theme        *model.Theme `json:"theme"`
	Email        *string      `json:"email"`
	PhotoURL     *string      `json:"photoUrl"`
}

// Update applies a partial edit to the profile's presentation fields.
// Username changes go through SetUsername, not here.
func (s *ProfileService) Update(ctx context.Context, profileID string, update ProfileUpdate) (*model.Profile, error) {
	profile, err := s.repo.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}

	if update.DisplayName != nil {
		name := strings.TrimSpace(*update.DisplayName)
		if len(name) > MaxProfileTextLength {
			return nil, apperror.ValidationFailed("displayName",
				fmt.Sprintf("display name must be %d characters or less", MaxProfileTextLength))
		}
		profile.DisplayName = name
	}
	if update.Bio != nil {
		if len(*update.Bio) > MaxProfileTextLength {
			return nil, apperror.ValidationFailed("bio",
				fmt.Sprintf("bio must be %d characters or less", MaxProfileTextLength))
		}
		profile.Bio = strings.TrimSpace(*update.Bio)
	}
	if update.ProjectIntro != nil {
		if len(*update.ProjectIntro) > MaxProfileTextLength {
			return nil, apperror.ValidationFailed("projectIntro",
				fmt.Sprintf("project intro must be %d characters or less", MaxProfileTextLength))
		}
		profile.ProjectIntro = strings.TrimSpace(*update.ProjectIntro)
	}
	if update.Stacks != nil {
		profile.Stacks = dedupeStacks(*update.Stacks)
	}
	if update.Theme != nil {
		if !update.Theme.Valid() {
			return nil, apperror.ValidationFailed("theme",
				fmt.Sprintf("theme must be %q or %q", model.ThemeDark, model.ThemeLight))
		}
		profile.Theme = *update.Theme
	}
	if update.Email != nil {
		profile.Email = strings.TrimSpace(*update.Email)
	}
	if update.PhotoURL != nil {
		photoURL := strings.TrimSpace(*update.PhotoURL)
		if len(photoURL) > MaxLinkURLLength {
			return nil, apperror.ValidationFailed("photoUrl",
				fmt.Sprintf("photo URL must be %d characters or less", MaxLinkURLLength))
		}
		profile.PhotoURL = photoURL
	}

	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", slog.String("profile_id", profileID))
	return profile, nil
}

// dedupeStacks removes duplicates while preserving first-occurrence order.
// Unknown (non-catalog) values are kept; they render with the fallback badge.
func dedupeStacks(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}

// ResolvedStack is a catalog entry ready for rendering: display label, badge
// colour, and the shields.io badge URL.
type ResolvedStack struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Color    string `json:"color"`
	BadgeURL string `json:"badgeUrl"`
}

// ResolveStacks maps stored stack values to renderable entries. Total: unknown
// values get the neutral fallback entry rather than an error.
func ResolveStacks(values []string) []ResolvedStack {
	resolved := make([]ResolvedStack, 0, len(values))
	for _, v := range values {
		e := stacks.Resolve(v)
		resolved = append(resolved, ResolvedStack{
			Value:    e.Value,
			Label:    e.Label,
			Color:    e.Color,
			BadgeURL: stacks.BadgeURL(e),
		})
	}
	return resolved
}
