package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"testing"

	"github.com/sakif/devlink/internal/apperror"
	"github.com/sakif/devlink/internal/model"
	"github.com/sakif/devlink/internal/repository"
)

// Hand-written in-memory mocks. They implement the repository interfaces the
// services depend on, so service tests exercise business rules without a
// database.

type mockProfileRepo struct {
	profiles    map[string]*model.Profile
	tokens      map[string]string
	nextID      int
	usernameErr error // when non-nil, GetByUsername fails with this
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{
		profiles: make(map[string]*model.Profile),
		tokens:   make(map[string]string),
	}
}

func (m *mockProfileRepo) UpsertByGitHubID(_ context.Context, profile *model.Profile) error {
	for _, p := range m.profiles {
		if p.GitHubID == profile.GitHubID {
			p.Login = profile.Login
			p.Email = profile.Email
			p.PhotoURL = profile.PhotoURL
			*profile = *p
			return nil
		}
	}
	m.nextID++
	profile.ID = fmt.Sprintf("profile-%d", m.nextID)
	profile.Theme = model.ThemeDark
	stored := *profile
	m.profiles[profile.ID] = &stored
	return nil
}

func (m *mockProfileRepo) GetByID(_ context.Context, id string) (*model.Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, apperror.NotFound("profile", id)
	}
	result := *p
	return &result, nil
}

func (m *mockProfileRepo) GetByUsername(_ context.Context, username string) (*model.Profile, error) {
	if m.usernameErr != nil {
		return nil, m.usernameErr
	}
	for _, p := range m.profiles {
		if p.Username != "" && p.Username == username {
			result := *p
			return &result, nil
		}
	}
	return nil, apperror.NotFound("profile", username)
}

func (m *mockProfileRepo) UpdateProfile(_ context.Context, profile *model.Profile) error {
	if _, ok := m.profiles[profile.ID]; !ok {
		return apperror.NotFound("profile", profile.ID)
	}
	for id, p := range m.profiles {
		if id != profile.ID && p.Username != "" && p.Username == profile.Username {
			return apperror.Conflict("username", profile.Username)
		}
	}
	stored := *profile
	m.profiles[profile.ID] = &stored
	return nil
}

func (m *mockProfileRepo) SetGitHubToken(_ context.Context, profileID, token string) error {
	if _, ok := m.profiles[profileID]; !ok {
		return apperror.NotFound("profile", profileID)
	}
	m.tokens[profileID] = token
	return nil
}

func (m *mockProfileRepo) GitHubToken(_ context.Context, profileID string) (string, error) {
	if _, ok := m.profiles[profileID]; !ok {
		return "", apperror.NotFound("profile", profileID)
	}
	return m.tokens[profileID], nil
}

// addProfile seeds the mock with a profile and returns its ID.
func (m *mockProfileRepo) addProfile(t *testing.T, githubID int64, login string) string {
	t.Helper()
	p := &model.Profile{GitHubID: githubID, Login: login, DisplayName: login}
	if err := m.UpsertByGitHubID(context.Background(), p); err != nil {
		t.Fatalf("seeding mock profile: %v", err)
	}
	return p.ID
}

type mockLinkRepo struct {
	links     map[string]*model.Link
	nextID    int
	createErr error // when non-nil, CreateLink fails with this
}

func newMockLinkRepo() *mockLinkRepo {
	return &mockLinkRepo{
		links: make(map[string]*model.Link),
	}
}

func (m *mockLinkRepo) CreateLink(_ context.Context, link *model.Link) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	link.ID = fmt.Sprintf("link-%d", m.nextID)
	stored := *link
	m.links[link.ID] = &stored
	return nil
}

func (m *mockLinkRepo) GetLink(_ context.Context, profileID, linkID string) (*model.Link, error) {
	l, ok := m.links[linkID]
	if !ok || l.ProfileID != profileID {
		return nil, apperror.NotFound("link", linkID)
	}
	result := *l
	return &result, nil
}

func (m *mockLinkRepo) ListLinks(_ context.Context, profileID string) ([]model.Link, error) {
	result := []model.Link{}
	for _, l := range m.links {
		if l.ProfileID == profileID {
			result = append(result, *l)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Order < result[j].Order })
	return result, nil
}

func (m *mockLinkRepo) CountLinks(_ context.Context, profileID string) (int, error) {
	count := 0
	for _, l := range m.links {
		if l.ProfileID == profileID {
			count++
		}
	}
	return count, nil
}

func (m *mockLinkRepo) UpdateLink(_ context.Context, profileID, linkID string, patch repository.LinkPatch) (*model.Link, error) {
	l, ok := m.links[linkID]
	if !ok || l.ProfileID != profileID {
		return nil, apperror.NotFound("link", linkID)
	}
	if patch.Title != nil {
		l.Title = *patch.Title
	}
	if patch.URL != nil {
		l.URL = *patch.URL
	}
	if patch.Description != nil {
		l.Description = *patch.Description
	}
	if patch.Stacks != nil {
		l.Stacks = *patch.Stacks
	}
	if patch.Order != nil {
		l.Order = *patch.Order
	}
	result := *l
	return &result, nil
}

func (m *mockLinkRepo) DeleteLink(_ context.Context, profileID, linkID string) error {
	l, ok := m.links[linkID]
	if !ok || l.ProfileID != profileID {
		return apperror.NotFound("link", linkID)
	}
	delete(m.links, linkID)
	return nil
}

func (m *mockLinkRepo) ReorderLinks(_ context.Context, profileID string, orders []repository.LinkOrder) error {
	// Validate the whole batch first so a failure changes nothing, matching
	// the real store's transactional behaviour.
	for _, o := range orders {
		l, ok := m.links[o.ID]
		if !ok || l.ProfileID != profileID {
			return apperror.NotFound("link", o.ID)
		}
	}
	for _, o := range orders {
		m.links[o.ID].Order = o.Order
	}
	return nil
}

func (m *mockLinkRepo) SubscribeLinks(profileID string) (<-chan []model.Link, func()) {
	ch := make(chan []model.Link, 1)
	links, _ := m.ListLinks(context.Background(), profileID)
	ch <- links
	return ch, func() {}
}

// testLogger discards output; tests assert on returned values, not log lines.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
