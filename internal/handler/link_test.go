package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/sakif/devlink/internal/auth"
	"github.com/sakif/devlink/internal/github"
	"github.com/sakif/devlink/internal/handler"
	"github.com/sakif/devlink/internal/model"
	"github.com/sakif/devlink/internal/repository/sqlite"
	"github.com/sakif/devlink/internal/service"
)

// testEnv wires real services over an in-memory database, the same graph the
// server builds, minus the HTTP server itself.
type testEnv struct {
	db       *sqlite.DB
	profiles *service.ProfileService
	links    *service.LinkService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	gh := github.NewClient("http://127.0.0.1:0", logger)
	return &testEnv{
		db:       db,
		profiles: service.NewProfileService(db, logger),
		links:    service.NewLinkService(db, db, gh, logger),
	}
}

func (env *testEnv) logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// seedProfile creates a logged-in profile and returns its ID.
func (env *testEnv) seedProfile(t *testing.T, githubID int64, login string) string {
	t.Helper()
	p := &model.Profile{GitHubID: githubID, Login: login, DisplayName: login}
	if err := env.db.UpsertByGitHubID(context.Background(), p); err != nil {
		t.Fatalf("seeding profile: %v", err)
	}
	return p.ID
}

// authedRequest builds a request carrying an authenticated profile ID, the
// way the auth middleware would after validating the session cookie.
func authedRequest(method, target, body, profileID string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(auth.ContextWithProfileID(req.Context(), profileID))
}

func TestLinkHandler_CreateAndList(t *testing.T) {
	env := newTestEnv(t)
	h := handler.NewLinkHandler(env.links, env.profiles, env.logger())
	profileID := env.seedProfile(t, 1, "alice")

	rr := httptest.NewRecorder()
	h.HandleCreate(rr, authedRequest(http.MethodPost, "/api/links",
		`{"title":"My Blog","url":"https://blog.example.com","stacks":["go"]}`, profileID))

	assert.Equal(t, http.StatusCreated, rr.Code)

	var created model.Link
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	assert.Equal(t, "My Blog", created.Title)
	assert.Equal(t, 0, created.Order)

	rr = httptest.NewRecorder()
	h.HandleList(rr, authedRequest(http.MethodGet, "/api/links", "", profileID))

	assert.Equal(t, http.StatusOK, rr.Code)
	var links []model.Link
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&links))
	assert.Len(t, links, 1)
}

func TestLinkHandler_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	h := handler.NewLinkHandler(env.links, env.profiles, env.logger())
	profileID := env.seedProfile(t, 1, "alice")

	t.Run("invalid JSON", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleCreate(rr, authedRequest(http.MethodPost, "/api/links", `{"title":`, profileID))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("bad URL", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleCreate(rr, authedRequest(http.MethodPost, "/api/links",
			`{"title":"ok","url":"not-a-url"}`, profileID))
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var res handler.ErrorResponse
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "validation_error", res.Error)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/links",
			bytes.NewBufferString(`{"title":"ok","url":"https://example.com"}`))
		h.HandleCreate(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

// linkRouter mounts the handler under the link routes so URL params resolve.
func linkRouter(h *handler.LinkHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Put("/api/links/order", h.HandleReorder)
	r.Put("/api/links/{linkID}", h.HandleUpdate)
	r.Delete("/api/links/{linkID}", h.HandleDelete)
	return r
}

func TestLinkHandler_UpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	h := handler.NewLinkHandler(env.links, env.profiles, env.logger())
	profileID := env.seedProfile(t, 1, "alice")
	router := linkRouter(h)

	link, err := env.links.Add(context.Background(), profileID,
		service.LinkDraft{Title: "old", URL: "https://example.com"})
	assert.NoError(t, err)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodPut, "/api/links/"+link.ID,
		`{"title":"new"}`, profileID))

	assert.Equal(t, http.StatusOK, rr.Code)
	var updated model.Link
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&updated))
	assert.Equal(t, "new", updated.Title)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodDelete, "/api/links/"+link.ID, "", profileID))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodDelete, "/api/links/"+link.ID, "", profileID))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLinkHandler_DeleteSomeoneElsesLink(t *testing.T) {
	env := newTestEnv(t)
	h := handler.NewLinkHandler(env.links, env.profiles, env.logger())
	owner := env.seedProfile(t, 1, "owner")
	intruder := env.seedProfile(t, 2, "intruder")
	router := linkRouter(h)

	link, err := env.links.Add(context.Background(), owner,
		service.LinkDraft{Title: "mine", URL: "https://example.com"})
	assert.NoError(t, err)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodDelete, "/api/links/"+link.ID, "", intruder))

	// Not 403: the intruder learns nothing about another profile's link IDs.
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLinkHandler_Reorder(t *testing.T) {
	env := newTestEnv(t)
	h := handler.NewLinkHandler(env.links, env.profiles, env.logger())
	profileID := env.seedProfile(t, 1, "alice")
	router := linkRouter(h)
	ctx := context.Background()

	first, err := env.links.Add(ctx, profileID, service.LinkDraft{Title: "first", URL: "https://example.com/1"})
	assert.NoError(t, err)
	second, err := env.links.Add(ctx, profileID, service.LinkDraft{Title: "second", URL: "https://example.com/2"})
	assert.NoError(t, err)

	body, _ := json.Marshal([]map[string]any{
		{"id": first.ID, "order": 1},
		{"id": second.ID, "order": 0},
	})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodPut, "/api/links/order", string(body), profileID))

	assert.Equal(t, http.StatusOK, rr.Code)
	var links []model.Link
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&links))
	assert.Len(t, links, 2)
	assert.Equal(t, "second", links[0].Title)
	assert.Equal(t, "first", links[1].Title)
}

func TestLinkHandler_ImportWithoutToken(t *testing.T) {
	env := newTestEnv(t)
	h := handler.NewLinkHandler(env.links, env.profiles, env.logger())
	profileID := env.seedProfile(t, 1, "alice")

	rr := httptest.NewRecorder()
	h.HandleImport(rr, authedRequest(http.MethodPost, "/api/links/import/github", "", profileID))

	// No stored GitHub token means the client should restart the login flow.
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	var res handler.ErrorResponse
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Equal(t, "unauthorized", res.Error)
}

func TestLinkHandler_Stream(t *testing.T) {
	env := newTestEnv(t)
	h := handler.NewLinkHandler(env.links, env.profiles, env.logger())
	profileID := env.seedProfile(t, 1, "alice")
	ctx := context.Background()

	_, err := env.profiles.SetUsername(ctx, profileID, "alice")
	assert.NoError(t, err)
	_, err = env.links.Add(ctx, profileID, service.LinkDraft{Title: "existing", URL: "https://example.com"})
	assert.NoError(t, err)

	router := chi.NewRouter()
	router.Get("/u/{username}/links/stream", h.HandleStream)
	server := httptest.NewServer(router)
	defer server.Close()

	resp, err := http.Get(server.URL + "/u/alice/links/stream")
	assert.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// The stream opens with an immediate snapshot of the collection.
	buf := make([]byte, 4096)
	n, err := resp.Body.Read(buf)
	assert.NoError(t, err)
	assert.Contains(t, string(buf[:n]), "event: links")
	assert.Contains(t, string(buf[:n]), "existing")
}

func TestLinkHandler_StreamUnknownUsername(t *testing.T) {
	env := newTestEnv(t)
	h := handler.NewLinkHandler(env.links, env.profiles, env.logger())

	router := chi.NewRouter()
	router.Get("/u/{username}/links/stream", h.HandleStream)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/u/nobody/links/stream", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
