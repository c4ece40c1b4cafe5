package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sakif/devlink/internal/auth"
	"github.com/sakif/devlink/internal/repository"
	"github.com/sakif/devlink/internal/service"
)

// LinkHandler serves the authenticated link-management API and the public
// link stream.
type LinkHandler struct {
	links    *service.LinkService
	profiles *service.ProfileService
	logger   *slog.Logger
}

func NewLinkHandler(links *service.LinkService, profiles *service.ProfileService, logger *slog.Logger) *LinkHandler {
	return &LinkHandler{
		links:    links,
		profiles: profiles,
		logger:   logger,
	}
}

// requireProfileID pulls the authenticated profile ID from the request
// context, writing the 401 itself when absent.
func requireProfileID(w http.ResponseWriter, r *http.Request) (string, bool) {
	profileID, ok := auth.ProfileIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "not logged in"})
	}
	return profileID, ok
}

// HandleList returns the caller's link collection in display order.
//
// GET /api/links
func (h *LinkHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	profileID, ok := requireProfileID(w, r)
	if !ok {
		return
	}

	links, err := h.links.List(r.Context(), profileID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

// HandleCreate appends a new link at the end of the collection.
//
// POST /api/links
func (h *LinkHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	profileID, ok := requireProfileID(w, r)
	if !ok {
		return
	}

	var draft service.LinkDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	link, err := h.links.Add(r.Context(), profileID, draft)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

// HandleUpdate applies a partial edit to one link.
//
// PUT /api/links/{linkID}
func (h *LinkHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	profileID, ok := requireProfileID(w, r)
	if !ok {
		return
	}

	var update service.LinkUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	link, err := h.links.Update(r.Context(), profileID, chi.URLParam(r, "linkID"), update)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

// HandleDelete removes one link.
//
// DELETE /api/links/{linkID}
func (h *LinkHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	profileID, ok := requireProfileID(w, r)
	if !ok {
		return
	}

	if err := h.links.Delete(r.Context(), profileID, chi.URLParam(r, "linkID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleReorder applies a batch of position updates atomically.
//
// PUT /api/links/order
func (h *LinkHandler) HandleReorder(w http.ResponseWriter, r *http.Request) {
	profileID, ok := requireProfileID(w, r)
	if !ok {
		return
	}

	var orders []repository.LinkOrder
	if err := json.NewDecoder(r.Body).Decode(&orders); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	if err := h.links.Reorder(r.Context(), profileID, orders); err != nil {
		writeError(w, err)
		return
	}

	links, err := h.links.List(r.Context(), profileID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

// HandleImport imports the caller's GitHub repositories as links.
//
// POST /api/links/import/github
func (h *LinkHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	profileID, ok := requireProfileID(w, r)
	if !ok {
		return
	}

	created, err := h.links.ImportFromGitHub(r.Context(), profileID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleStream pushes the public link collection over Server-Sent Events:
// an immediate snapshot, then one event per change. The subscription is
// released when the client disconnects.
//
// GET /u/{username}/links/stream
func (h *LinkHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	profile, err := h.profiles.GetByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, err)
		return
	}

	snapshots, cancel := h.links.Subscribe(profile.ID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case links, open := <-snapshots:
			if !open {
				return
			}
			payload, err := json.Marshal(links)
			if err != nil {
				h.logger.Error("failed to encode link snapshot",
					slog.String("profile_id", profile.ID),
					slog.String("error", err.Error()),
				)
				return
			}
			fmt.Fprintf(w, "event: links\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
