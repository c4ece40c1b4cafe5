package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/devlink/internal/apperror"
	"github.com/sakif/devlink/internal/model"
	"github.com/sakif/devlink/internal/repository"
)

// compile-time check that *DB implements repository.ProfileRepository
var _ repository.ProfileRepository = (*DB)(nil)

// UpsertByGitHubID inserts a profile on first login or refreshes the
// GitHub-sourced fields on subsequent logins.
//
// The lookup keys on github_id: GitHub guarantees it is stable and unique, so
// an existing row keeps its internal ID, its username, and every user-edited
// field; only login, display name, email and photo are refreshed, in case
// the user changed them on GitHub.
func (db *DB) UpsertByGitHubID(ctx context.Context, profile *model.Profile) error {
	var existingID string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id FROM profiles WHERE github_id = ?`, profile.GitHubID,
	).Scan(&existingID)

	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up profile by github_id %d: %w", profile.GitHubID, err)
	}

	if existingID != "" {
		profile.ID = existingID
		profile.UpdatedAt = time.Now()
		_, err = db.conn.ExecContext(ctx,
			`UPDATE profiles
			 SET login = ?, display_name = ?, email = ?, photo_url = ?, updated_at = ?
			 WHERE id = ?`,
			profile.Login,
			profile.DisplayName,
			profile.Email,
			profile.PhotoURL,
			profile.UpdatedAt,
			profile.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating profile %s: %w", profile.ID, err)
		}

		// Reload the user-edited fields so the caller holds the full record.
		current, err := db.GetByID(ctx, profile.ID)
		if err != nil {
			return err
		}
		*profile = *current
		return nil
	}

	now := time.Now()
	profile.ID = xid.New().String()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	if profile.Theme == "" {
		profile.Theme = model.ThemeDark
	}
	if profile.Stacks == nil {
		profile.Stacks = []string{}
	}

	stacksJSON, err := encodeStacks(profile.Stacks)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO profiles
			(id, github_id, login, username, display_name, bio, project_intro,
			 stacks, theme, email, photo_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		profile.ID,
		profile.GitHubID,
		profile.Login,
		profile.Username,
		profile.DisplayName,
		profile.Bio,
		profile.ProjectIntro,
		stacksJSON,
		string(profile.Theme),
		profile.Email,
		profile.PhotoURL,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		// A concurrent first login can win the insert between our lookup and
		// this statement. The row exists now, so retake the update path.
		if isUniqueViolation(err, "profiles.github_id") {
			return db.UpsertByGitHubID(ctx, profile)
		}
		return fmt.Errorf("sqlite: inserting profile (githubID=%d): %w", profile.GitHubID, err)
	}

	return nil
}

// GetByID retrieves a profile by its internal ID.
// Returns apperror.ErrNotFound if no profile exists with that ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	return db.getProfile(ctx, `WHERE id = ?`, id)
}

// GetByUsername resolves the public routing key to a profile.
// The match is exact and case-sensitive, like the route itself.
func (db *DB) GetByUsername(ctx context.Context, username string) (*model.Profile, error) {
	return db.getProfile(ctx, `WHERE username = ?`, username)
}

func (db *DB) getProfile(ctx context.Context, where string, arg any) (*model.Profile, error) {
	var (
		p          model.Profile
		stacksJSON string
		theme      string
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, github_id, login, username, display_name, bio, project_intro,
		        stacks, theme, email, photo_url, created_at, updated_at
		 FROM profiles `+where,
		arg,
	).Scan(
		&p.ID,
		&p.GitHubID,
		&p.Login,
		&p.Username,
		&p.DisplayName,
		&p.Bio,
		&p.ProjectIntro,
		&stacksJSON,
		&theme,
		&p.Email,
		&p.PhotoURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("profile", fmt.Sprintf("%v", arg))
		}
		return nil, fmt.Errorf("sqlite: getting profile (%v): %w", arg, err)
	}

	p.Theme = model.Theme(theme)
	if p.Stacks, err = decodeStacks(stacksJSON); err != nil {
		return nil, fmt.Errorf("sqlite: profile %s: %w", p.ID, err)
	}

	return &p, nil
}

// UpdateProfile writes the user-editable fields of an existing profile.
//
// The partial unique index on username turns a lost uniqueness race into a
// constraint violation here, which we surface as ErrConflict; the
// service-level read-then-check gives the friendly error in the common case,
// this is the backstop.
func (db *DB) UpdateProfile(ctx context.Context, profile *model.Profile) error {
	profile.UpdatedAt = time.Now()

	stacksJSON, err := encodeStacks(profile.Stacks)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE profiles
		 SET username = ?, display_name = ?, bio = ?, project_intro = ?,
		     stacks = ?, theme = ?, email = ?, photo_url = ?, updated_at = ?
		 WHERE id = ?`,
		profile.Username,
		profile.DisplayName,
		profile.Bio,
		profile.ProjectIntro,
		stacksJSON,
		string(profile.Theme),
		profile.Email,
		profile.PhotoURL,
		profile.UpdatedAt,
		profile.ID,
	)
	if err != nil {
		if isUniqueViolation(err, "profiles.username") {
			return apperror.Conflict("username", profile.Username)
		}
		return fmt.Errorf("sqlite: updating profile %s: %w", profile.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("profile", profile.ID)
	}

	return nil
}

// SetGitHubToken stores the OAuth access token used for repository imports.
// The token never leaves the store through the JSON API.
func (db *DB) SetGitHubToken(ctx context.Context, profileID, token string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE profiles SET github_token = ?, updated_at = ? WHERE id = ?`,
		token, time.Now(), profileID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: storing GitHub token for %s: %w", profileID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("profile", profileID)
	}

	return nil
}

// GitHubToken returns the stored access token, or "" if none was saved.
func (db *DB) GitHubToken(ctx context.Context, profileID string) (string, error) {
	var token string
	err := db.conn.QueryRowContext(ctx,
		`SELECT github_token FROM profiles WHERE id = ?`, profileID,
	).Scan(&token)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", apperror.NotFound("profile", profileID)
		}
		return "", fmt.Errorf("sqlite: reading GitHub token for %s: %w", profileID, err)
	}
	return token, nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure on the
// given column. The modernc driver exposes no typed error for this, so we
// match the SQLite message ("UNIQUE constraint failed: profiles.username").
func isUniqueViolation(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}
