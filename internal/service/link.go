package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/sakif/devlink/internal/apperror"
	"github.com/sakif/devlink/internal/github"
	"github.com/sakif/devlink/internal/model"
	"github.com/sakif/devlink/internal/repository"
)

const (
	MaxLinkTitleLength = 100
	MaxLinkURLLength   = 2048
	MaxLinkTextLength  = 280
)

// LinkService manages one profile's ordered link collection: manual CRUD,
// reordering, GitHub repository import, and change subscriptions.
type LinkService struct {
	links    repository.LinkRepository
	profiles repository.ProfileRepository
	github   *github.Client
	logger   *slog.Logger
}

func NewLinkService(links repository.LinkRepository, profiles repository.ProfileRepository, gh *github.Client, logger *slog.Logger) *LinkService {
	return &LinkService{
		links:    links,
		profiles: profiles,
		github:   gh,
		logger:   logger,
	}
}

// LinkDraft is the caller-supplied content of a new link. Position is
// assigned by the service, never by the caller.
type LinkDraft struct {
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Stacks      []string `json:"stacks"`
}

// validateDraft normalizes and checks a draft in place.
func validateDraft(draft *LinkDraft) error {
	draft.Title = strings.TrimSpace(draft.Title)
	draft.URL = strings.TrimSpace(draft.URL)
	draft.Description = strings.TrimSpace(draft.Description)

	if draft.Title == "" {
		return apperror.ValidationFailed("title", "link title is required")
	}
	if len(draft.Title) > MaxLinkTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("link title must be %d characters or less", MaxLinkTitleLength))
	}
	if draft.URL == "" {
		return apperror.ValidationFailed("url", "link URL is required")
	}
	if len(draft.URL) > MaxLinkURLLength {
		return apperror.ValidationFailed("url",
			fmt.Sprintf("link URL must be %d characters or less", MaxLinkURLLength))
	}
	parsed, err := url.Parse(draft.URL)
	if err != nil || !parsed.IsAbs() || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return apperror.ValidationFailed("url", "link URL must be an absolute http(s) URL")
	}
	if len(draft.Description) > MaxLinkTextLength {
		return apperror.ValidationFailed("description",
			fmt.Sprintf("link description must be %d characters or less", MaxLinkTextLength))
	}

	draft.Stacks = dedupeStacks(draft.Stacks)
	return nil
}

// List returns the profile's collection in display order.
func (s *LinkService) List(ctx context.Context, profileID string) ([]model.Link, error) {
	return s.links.ListLinks(ctx, profileID)
}

// Get retrieves one link, scoped to the owning profile.
func (s *LinkService) Get(ctx context.Context, profileID, linkID string) (*model.Link, error) {
	return s.links.GetLink(ctx, profileID, linkID)
}

// Add appends a new link at the end of the collection. The position is the
// collection size at append time; deletions leave gaps, so a fresh profile
// counts 0, 1, 2, ... but an edited one may not be contiguous.
func (s *LinkService) Add(ctx context.Context, profileID string, draft LinkDraft) (*model.Link, error) {
	if err := validateDraft(&draft); err != nil {
		return nil, err
	}

	count, err := s.links.CountLinks(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("counting links: %w", err)
	}

	link := &model.Link{
		ProfileID:   profileID,
		Title:       draft.Title,
		URL:         draft.URL,
		Description: draft.Description,
		Stacks:      draft.Stacks,
		Order:       count,
	}
	if err := s.links.CreateLink(ctx, link); err != nil {
		s.logger.Error("failed to create link",
			slog.String("profile_id", profileID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating link: %w", err)
	}

	s.logger.Info("link added",
		slog.String("profile_id", profileID),
		slog.String("link_id", link.ID),
	)
	return link, nil
}

// LinkUpdate carries a partial edit of an existing link. Nil fields are left
// unchanged; Order is not editable here, it only moves through Reorder.
type LinkUpdate struct {
	Title       *string   `json:"title"`
	URL         *string   `json:"url"`
	Description *string   `json:"description"`
	Stacks      *[]string `json:"stacks"`
}

// Update applies a partial edit to a link.
func (s *LinkService) Update(ctx context.Context, profileID, linkID string, update LinkUpdate) (*model.Link, error) {
	patch := repository.LinkPatch{}

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return nil, apperror.ValidationFailed("title", "link title is required")
		}
		if len(title) > MaxLinkTitleLength {
			return nil, apperror.ValidationFailed("title",
				fmt.Sprintf("link title must be %d characters or less", MaxLinkTitleLength))
		}
		patch.Title = &title
	}
	if update.URL != nil {
		u := strings.TrimSpace(*update.URL)
		parsed, err := url.Parse(u)
		if u == "" || len(u) > MaxLinkURLLength || err != nil || !parsed.IsAbs() ||
			(parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return nil, apperror.ValidationFailed("url", "link URL must be an absolute http(s) URL")
		}
		patch.URL = &u
	}
	if update.Description != nil {
		desc := strings.TrimSpace(*update.Description)
		if len(desc) > MaxLinkTextLength {
			return nil, apperror.ValidationFailed("description",
				fmt.Sprintf("link description must be %d characters or less", MaxLinkTextLength))
		}
		patch.Description = &desc
	}
	if update.Stacks != nil {
		deduped := dedupeStacks(*update.Stacks)
		patch.Stacks = &deduped
	}

	link, err := s.links.UpdateLink(ctx, profileID, linkID, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info("link updated",
		slog.String("profile_id", profileID),
		slog.String("link_id", linkID),
	)
	return link, nil
}

// Delete removes a link. Remaining links keep their positions; the resulting
// gap is fine, display order only depends on relative values.
func (s *LinkService) Delete(ctx context.Context, profileID, linkID string) error {
	if err := s.links.DeleteLink(ctx, profileID, linkID); err != nil {
		return err
	}
	s.logger.Info("link deleted",
		slog.String("profile_id", profileID),
		slog.String("link_id", linkID),
	)
	return nil
}

// Reorder applies a batch of position updates atomically. Any unknown link ID
// fails the whole batch with no positions changed.
func (s *LinkService) Reorder(ctx context.Context, profileID string, orders []repository.LinkOrder) error {
	if len(orders) == 0 {
		return apperror.ValidationFailed("orders", "at least one position update is required")
	}
	for _, o := range orders {
		if o.ID == "" {
			return apperror.ValidationFailed("orders", "every position update needs a link ID")
		}
		if o.Order < 0 {
			return apperror.ValidationFailed("orders", "positions must be non-negative")
		}
	}

	if err := s.links.ReorderLinks(ctx, profileID, orders); err != nil {
		return err
	}

	s.logger.Info("links reordered",
		slog.String("profile_id", profileID),
		slog.Int("count", len(orders)),
	)
	return nil
}

// BulkAdd appends several links in one call, e.g. a batch picked from the
// GitHub importer. All drafts are validated before any is written, so a bad
// draft in the middle rejects the whole batch. Positions continue from the
// collection size at the start of the call.
func (s *LinkService) BulkAdd(ctx context.Context, profileID string, drafts []LinkDraft) ([]model.Link, error) {
	if len(drafts) == 0 {
		return nil, apperror.ValidationFailed("links", "at least one link is required")
	}
	for i := range drafts {
		if err := validateDraft(&drafts[i]); err != nil {
			return nil, err
		}
	}

	count, err := s.links.CountLinks(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("counting links: %w", err)
	}

	created := make([]model.Link, 0, len(drafts))
	for i, draft := range drafts {
		link := &model.Link{
			ProfileID:   profileID,
			Title:       draft.Title,
			URL:         draft.URL,
			Description: draft.Description,
			Stacks:      draft.Stacks,
			Order:       count + i,
		}
		if err := s.links.CreateLink(ctx, link); err != nil {
			s.logger.Error("failed to create link during bulk add",
				slog.String("profile_id", profileID),
				slog.String("error", err.Error()),
			)
			return nil, fmt.Errorf("creating link %d of %d: %w", i+1, len(drafts), err)
		}
		created = append(created, *link)
	}

	s.logger.Info("links bulk added",
		slog.String("profile_id", profileID),
		slog.Int("count", len(created)),
	)
	return created, nil
}

// ImportFromGitHub fetches the user's own (non-fork) repositories, maps them
// to link drafts, and appends them to the collection. Requires the OAuth
// access token stored at login; a missing token means the user needs to go
// through the login flow again.
func (s *LinkService) ImportFromGitHub(ctx context.Context, profileID string) ([]model.Link, error) {
	token, err := s.profiles.GitHubToken(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, apperror.Unauthorized("no GitHub token on file, please sign in again")
	}

	repos, err := s.github.ListOwnedNonForkRepos(ctx, token)
	if err != nil {
		return nil, err
	}
	if len(repos) == 0 {
		return []model.Link{}, nil
	}

	count, err := s.links.CountLinks(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("counting links: %w", err)
	}

	created := make([]model.Link, 0, len(repos))
	for i, repo := range repos {
		link := github.MapRepoToLink(repo, count+i)
		link.ProfileID = profileID
		if err := s.links.CreateLink(ctx, &link); err != nil {
			s.logger.Error("failed to store imported repository",
				slog.String("profile_id", profileID),
				slog.String("repo", repo.Name),
				slog.String("error", err.Error()),
			)
			return nil, fmt.Errorf("storing imported repository %q: %w", repo.Name, err)
		}
		created = append(created, link)
	}

	s.logger.Info("github repositories imported",
		slog.String("profile_id", profileID),
		slog.Int("count", len(created)),
	)
	return created, nil
}

// Subscribe opens a snapshot subscription on the profile's collection. The
// channel fires immediately with the current state and then after every
// change; the cancel func must be called when the consumer goes away.
func (s *LinkService) Subscribe(profileID string) (<-chan []model.Link, func()) {
	return s.links.SubscribeLinks(profileID)
}
