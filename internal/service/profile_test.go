package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sakif/devlink/internal/apperror"
	"github.com/sakif/devlink/internal/model"
)

func newTestProfileService(repo *mockProfileRepo) *ProfileService {
	return NewProfileService(repo, testLogger())
}

func TestSetUsername_Claims(t *testing.T) {
	repo := newMockProfileRepo()
	svc := newTestProfileService(repo)
	id := repo.addProfile(t, 1, "alice")

	p, err := svc.SetUsername(context.Background(), id, "  alice-dev  ")
	if err != nil {
		t.Fatalf("SetUsername() error = %v", err)
	}
	if p.Username != "alice-dev" {
		t.Errorf("Username = %q, want trimmed %q", p.Username, "alice-dev")
	}
}

func TestSetUsername_RejectsBadFormat(t *testing.T) {
	repo := newMockProfileRepo()
	svc := newTestProfileService(repo)
	id := repo.addProfile(t, 1, "alice")

	bad := []string{
		"",
		"   ",
		"has space",
		"dot.name",
		"slash/name",
		"émoji",
		"a!b",
		strings.Repeat("x", MaxUsernameLength+1),
	}
	for _, username := range bad {
		_, err := svc.SetUsername(context.Background(), id, username)
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("SetUsername(%q) error = %v, want ErrValidation", username, err)
		}
	}
}

func TestSetUsername_AcceptsValidShapes(t *testing.T) {
	repo := newMockProfileRepo()
	svc := newTestProfileService(repo)
	id := repo.addProfile(t, 1, "alice")

	for _, username := range []string{"a", "A-B_c9", "123", "under_score", "hyphen-ated"} {
		if _, err := svc.SetUsername(context.Background(), id, username); err != nil {
			t.Errorf("SetUsername(%q) error = %v, want nil", username, err)
		}
	}
}

func TestSetUsername_SelfReclaimIsNoOp(t *testing.T) {
	repo := newMockProfileRepo()
	svc := newTestProfileService(repo)
	id := repo.addProfile(t, 1, "alice")

	if _, err := svc.SetUsername(context.Background(), id, "alice"); err != nil {
		t.Fatalf("first claim error = %v", err)
	}
	p, err := svc.SetUsername(context.Background(), id, "alice")
	if err != nil {
		t.Fatalf("re-claiming own username error = %v, want success", err)
	}
	if p.Username != "alice" {
		t.Errorf("Username = %q, want %q", p.Username, "alice")
	}
}

func TestSetUsername_TakenByAnother(t *testing.T) {
	repo := newMockProfileRepo()
	svc := newTestProfileService(repo)
	first := repo.addProfile(t, 1, "alice")
	second := repo.addProfile(t, 2, "bob")

	if _, err := svc.SetUsername(context.Background(), first, "shared"); err != nil {
		t.Fatalf("first claim error = %v", err)
	}
	_, err := svc.SetUsername(context.Background(), second, "shared")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("claiming a taken username: error = %v, want ErrConflict", err)
	}
}

func TestSetUsername_LookupFailureAborts(t *testing.T) {
	repo := newMockProfileRepo()
	svc := newTestProfileService(repo)
	id := repo.addProfile(t, 1, "alice")

	repo.usernameErr = errors.New("store unavailable")
	_, err := svc.SetUsername(context.Background(), id, "alice-dev")
	if !errors.Is(err, repo.usernameErr) {
		t.Fatalf("error = %v, want the lookup failure", err)
	}

	stored, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Username != "" {
		t.Errorf("username %q written despite the failed availability check", stored.Username)
	}
}

func TestUpdate_PartialEdit(t *testing.T) {
	repo := newMockProfileRepo()
	svc := newTestProfileService(repo)
	id := repo.addProfile(t, 1, "alice")

	bio := "I build things."
	theme := model.ThemeLight
	p, err := svc.Update(context.Background(), id, ProfileUpdate{
		Bio:   &bio,
		Theme: &theme,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if p.Bio != "I build things." {
		t.Errorf("Bio = %q, want the new bio", p.Bio)
	}
	if p.Theme != model.ThemeLight {
		t.Errorf("Theme = %q, want %q", p.Theme, model.ThemeLight)
	}
	if p.DisplayName != "alice" {
		t.Errorf("DisplayName = %q, want untouched %q", p.DisplayName, "alice")
	}
}

func TestUpdate_RejectsOverlongText(t *testing.T) {
	repo := newMockProfileRepo()
	svc := newTestProfileService(repo)
	id := repo.addProfile(t, 1, "alice")

	long := strings.Repeat("x", MaxProfileTextLength+1)
	for name, update := range map[string]ProfileUpdate{
		"bio":          {Bio: &long},
		"displayName":  {DisplayName: &long},
		"projectIntro": {ProjectIntro: &long},
	} {
		_, err := svc.Update(context.Background(), id, update)
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("overlong %s: error = %v, want ErrValidation", name, err)
		}
	}
}

func TestUpdate_RejectsOverlongPhotoURL(t *testing.T) {
	repo := newMockProfileRepo()
	svc := newTestProfileService(repo)
	id := repo.addProfile(t, 1, "alice")

	long := "https://img.example.com/" + strings.Repeat("x", MaxLinkURLLength)
	_, err := svc.Update(context.Background(), id, ProfileUpdate{PhotoURL: &long})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}

	stored, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.PhotoURL != "" {
		t.Errorf("photo URL persisted despite the validation error, len = %d", len(stored.PhotoURL))
	}
}

func TestUpdate_RejectsUnknownTheme(t *testing.T) {
	repo := newMockProfileRepo()
	svc := newTestProfileService(repo)
	id := repo.addProfile(t, 1, "alice")

	theme := model.Theme("solarized")
	_, err := svc.Update(context.Background(), id, ProfileUpdate{Theme: &theme})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestUpdate_DeduplicatesStacks(t *testing.T) {
	repo := newMockProfileRepo()
	svc := newTestProfileService(repo)
	id := repo.addProfile(t, 1, "alice")

	stacks := []string{"go", "rust", "go", " rust ", "", "mystack"}
	p, err := svc.Update(context.Background(), id, ProfileUpdate{Stacks: &stacks})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	want := []string{"go", "rust", "mystack"}
	if len(p.Stacks) != len(want) {
		t.Fatalf("Stacks = %v, want %v", p.Stacks, want)
	}
	for i, w := range want {
		if p.Stacks[i] != w {
			t.Errorf("Stacks[%d] = %q, want %q", i, p.Stacks[i], w)
		}
	}
}

func TestGetByUsername_Unclaimed(t *testing.T) {
	repo := newMockProfileRepo()
	svc := newTestProfileService(repo)
	repo.addProfile(t, 1, "alice") // never claims a username

	// An empty username is never routable, even though the record holds "".
	_, err := svc.GetByUsername(context.Background(), "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("GetByUsername(\"\") error = %v, want ErrValidation", err)
	}
}

func TestResolveStacks(t *testing.T) {
	resolved := ResolveStacks([]string{"go", "not-in-catalog"})
	if len(resolved) != 2 {
		t.Fatalf("got %d entries, want 2", len(resolved))
	}

	if resolved[0].Label != "Go" {
		t.Errorf("known stack Label = %q, want %q", resolved[0].Label, "Go")
	}
	if resolved[0].BadgeURL == "" {
		t.Error("known stack has no badge URL")
	}

	// Unknown values resolve to a neutral fallback, never an error.
	if resolved[1].Value != "not-in-catalog" {
		t.Errorf("fallback Value = %q, want the input echoed back", resolved[1].Value)
	}
	if resolved[1].Color != "gray" {
		t.Errorf("fallback Color = %q, want %q", resolved[1].Color, "gray")
	}
}
