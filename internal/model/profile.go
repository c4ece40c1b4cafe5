// Package model defines the data structures used throughout the application.
package model

import "time"

// Theme selects the colour scheme of a user's public page.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Valid reports whether t is one of the known themes.
func (t Theme) Valid() bool {
	return t == ThemeDark || t == ThemeLight
}

// Profile represents one user's public identity and settings.
//
// GitHub OAuth is the identity provider, so the stable external identifier is
// the GitHub user ID. We still generate our own internal string ID (xid) to
// avoid tying primary keys to a third party's numbering scheme.
//
// Username is the public routing key: the profile is reachable at /u/{username}.
// It starts empty (a fresh account has no page yet) and at most one profile may
// hold a given username at any time.
type Profile struct {
	ID           string    `json:"id"           db:"id"`
	GitHubID     int64     `json:"githubId"     db:"github_id"`     // GitHub's numeric user ID
	Login        string    `json:"login"        db:"login"`         // GitHub username, e.g. "sakif"
	Username     string    `json:"username"     db:"username"`      // Public page slug, unique when set
	DisplayName  string    `json:"displayName"  db:"display_name"`
	Bio          string    `json:"bio"          db:"bio"`
	ProjectIntro string    `json:"projectIntro" db:"project_intro"`
	Stacks       []string  `json:"stacks"       db:"stacks"` // Catalog stack values, deduplicated
	Theme        Theme     `json:"theme"        db:"theme"`
	Email        string    `json:"email"        db:"email"` // Primary public email (may be empty)
	PhotoURL     string    `json:"photoUrl"     db:"photo_url"`
	CreatedAt    time.Time `json:"createdAt"    db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"    db:"updated_at"`
}
