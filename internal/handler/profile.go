package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sakif/devlink/internal/auth"
	"github.com/sakif/devlink/internal/model"
	"github.com/sakif/devlink/internal/service"
)

// ProfileHandler serves profile edits and the public page view.
type ProfileHandler struct {
	profiles *service.ProfileService
	links    *service.LinkService
	logger   *slog.Logger
}

func NewProfileHandler(profiles *service.ProfileService, links *service.LinkService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		links:    links,
		logger:   logger,
	}
}

// HandleUpdate applies a partial edit to the caller's own profile.
//
// PUT /api/profile
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	profileID, ok := auth.ProfileIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "not logged in"})
		return
	}

	var update service.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	profile, err := h.profiles.Update(r.Context(), profileID, update)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleSetUsername claims the caller's public username.
//
// PUT /api/profile/username
func (h *ProfileHandler) HandleSetUsername(w http.ResponseWriter, r *http.Request) {
	profileID, ok := auth.ProfileIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "not logged in"})
		return
	}

	var body struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	profile, err := h.profiles.SetUsername(r.Context(), profileID, body.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// PublicLink is a link as rendered on the public page: the stored fields plus
// the resolved stack badges.
type PublicLink struct {
	ID          string                  `json:"id"`
	Title       string                  `json:"title"`
	URL         string                  `json:"url"`
	Description string                  `json:"description"`
	Stacks      []service.ResolvedStack `json:"stacks"`
	Order       int                     `json:"order"`
}

// PublicProfile is the public page payload: presentation fields only, no
// email, no GitHub IDs, no timestamps.
type PublicProfile struct {
	Username     string                  `json:"username"`
	DisplayName  string                  `json:"displayName"`
	Bio          string                  `json:"bio"`
	ProjectIntro string                  `json:"projectIntro"`
	Stacks       []service.ResolvedStack `json:"stacks"`
	Theme        model.Theme             `json:"theme"`
	PhotoURL     string                  `json:"photoUrl"`
	Links        []PublicLink            `json:"links"`
}

// HandlePublicProfile serves a profile's public page by username.
//
// GET /u/{username}
func (h *ProfileHandler) HandlePublicProfile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	profile, err := h.profiles.GetByUsername(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}

	links, err := h.links.List(r.Context(), profile.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	publicLinks := make([]PublicLink, 0, len(links))
	for _, l := range links {
		publicLinks = append(publicLinks, PublicLink{
			ID:          l.ID,
			Title:       l.Title,
			URL:         l.URL,
			Description: l.Description,
			Stacks:      service.ResolveStacks(l.Stacks),
			Order:       l.Order,
		})
	}

	writeJSON(w, http.StatusOK, PublicProfile{
		Username:     profile.Username,
		DisplayName:  profile.DisplayName,
		Bio:          profile.Bio,
		ProjectIntro: profile.ProjectIntro,
		Stacks:       service.ResolveStacks(profile.Stacks),
		Theme:        profile.Theme,
		PhotoURL:     profile.PhotoURL,
		Links:        publicLinks,
	})
}
