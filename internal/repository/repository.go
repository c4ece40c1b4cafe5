// Package repository defines the store-adapter contracts the services depend
// on. The concrete implementation lives in repository/sqlite; tests substitute
// in-memory mocks.
package repository

import (
	"context"

	"github.com/sakif/devlink/internal/model"
)

// LinkPatch is a partial update. Nil fields are left unchanged; in particular
// Order is untouched unless the patch explicitly carries it.
type LinkPatch struct {
	Title       *string
	URL         *string
	Description *string
	Stacks      *[]string
	Order       *int
}

// LinkOrder pairs a link ID with its new display position, for Reorder.
type LinkOrder struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

// ProfileRepository persists profiles and the per-profile GitHub credential.
type ProfileRepository interface {
	// UpsertByGitHubID creates the profile on first login or refreshes the
	// GitHub-sourced fields (login, display name, email, photo) on subsequent
	// logins, leaving user-edited fields untouched. Fills ID and timestamps.
	UpsertByGitHubID(ctx context.Context, profile *model.Profile) error

	GetByID(ctx context.Context, id string) (*model.Profile, error)

	// GetByUsername resolves the public routing key. Returns ErrNotFound when
	// no profile holds the username.
	GetByUsername(ctx context.Context, username string) (*model.Profile, error)

	// UpdateProfile writes the user-editable fields of an existing profile.
	// A username held by another profile surfaces as ErrConflict.
	UpdateProfile(ctx context.Context, profile *model.Profile) error

	// SetGitHubToken stores the OAuth access token used for repo imports.
	SetGitHubToken(ctx context.Context, profileID, token string) error

	// GitHubToken returns the stored token, or "" if none was saved.
	GitHubToken(ctx context.Context, profileID string) (string, error)
}

// LinkRepository persists one profile's ordered link collection and fans out
// collection snapshots to subscribers. Every operation is scoped by the owning
// profile ID; a link ID from another profile's collection is ErrNotFound.
type LinkRepository interface {
	CreateLink(ctx context.Context, link *model.Link) error
	GetLink(ctx context.Context, profileID, linkID string) (*model.Link, error)

	// ListLinks returns the collection ordered by Order ascending, ties
	// broken by insertion order.
	ListLinks(ctx context.Context, profileID string) ([]model.Link, error)

	CountLinks(ctx context.Context, profileID string) (int, error)
	UpdateLink(ctx context.Context, profileID, linkID string, patch LinkPatch) (*model.Link, error)
	DeleteLink(ctx context.Context, profileID, linkID string) error

	// ReorderLinks applies all position updates atomically: on any failure no
	// individual Order changes.
	ReorderLinks(ctx context.Context, profileID string, orders []LinkOrder) error

	// SubscribeLinks returns a channel of collection snapshots and a cancel
	// func releasing the subscription. The channel fires immediately with the
	// current state and then on every change. Callers must cancel when done;
	// an unreleased subscription is a standing resource leak.
	SubscribeLinks(profileID string) (<-chan []model.Link, func())
}
