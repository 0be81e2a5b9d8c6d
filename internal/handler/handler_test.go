package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundry-demos/code-interpreter-chat/internal/agent"
	"github.com/foundry-demos/code-interpreter-chat/internal/files"
	"github.com/foundry-demos/code-interpreter-chat/internal/middleware"
	"github.com/foundry-demos/code-interpreter-chat/internal/model"
	"github.com/foundry-demos/code-interpreter-chat/internal/service"
	"github.com/foundry-demos/code-interpreter-chat/internal/session"
	"github.com/foundry-demos/code-interpreter-chat/internal/web"
	"github.com/foundry-demos/code-interpreter-chat/pkg/logger"
)

// fakeAPI scripts the remote agent service for handler tests.
type fakeAPI struct {
	statuses []model.RunStatus
	messages []agent.ThreadMessage
}

func (f *fakeAPI) CreateAssistant(_ context.Context, _ agent.AssistantSpec) (string, error) {
	return "asst_1", nil
}

func (f *fakeAPI) DeleteAssistant(_ context.Context, _ string) error { return nil }

func (f *fakeAPI) CreateThread(_ context.Context) (string, error) { return "thread_1", nil }

func (f *fakeAPI) CreateMessage(_ context.Context, _, _ string) error { return nil }

func (f *fakeAPI) CreateRun(_ context.Context, _, _ string) (agent.RunState, error) {
	return agent.RunState{ID: "run_1", Status: model.RunStatusQueued}, nil
}

func (f *fakeAPI) RetrieveRun(_ context.Context, _, _ string) (agent.RunState, error) {
	status := model.RunStatusCompleted
	if len(f.statuses) > 0 {
		status = f.statuses[0]
		if len(f.statuses) > 1 {
			f.statuses = f.statuses[1:]
		}
	}
	return agent.RunState{ID: "run_1", Status: status}, nil
}

func (f *fakeAPI) ListMessages(_ context.Context, _ string, _ int) ([]agent.ThreadMessage, error) {
	return f.messages, nil
}

func (f *fakeAPI) FileContent(_ context.Context, fileID string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("bytes of " + fileID)), nil
}

// newTestRouter wires the handlers behind the same routes the server
// mounts, including the session cookie middleware.
func newTestRouter(t *testing.T, api *fakeAPI) (*chi.Mux, *files.Store) {
	t.Helper()

	log := logger.NewNop()
	manager := agent.NewManager(api, log, agent.Options{
		Model:        "gpt-4o",
		PollInterval: time.Millisecond,
		RunTimeout:   100 * time.Millisecond,
	})
	store, err := files.NewStore(t.TempDir(), 50, api, log)
	require.NoError(t, err)
	svc := service.NewChatService(manager, store, session.NewStore(), "gpt-4o", log)

	templates, err := web.Templates()
	require.NoError(t, err)

	chatHandler := NewChatHandler(svc, templates, log)
	filesHandler := NewFilesHandler(store, log)

	r := chi.NewRouter()
	r.Use(middleware.Session)
	r.Get("/", chatHandler.Index)
	r.Post("/chat", chatHandler.SendForm)
	r.Post("/clear", chatHandler.ClearForm)
	r.Get("/files/{name}", filesHandler.Serve)
	r.Get("/api/v1/status", chatHandler.Status)
	r.Post("/api/v1/messages", chatHandler.Send)
	r.Post("/api/v1/clear", chatHandler.Clear)
	r.Get("/api/v1/files", filesHandler.List)
	return r, store
}

func assistantReply(text string, artifacts ...model.Artifact) []agent.ThreadMessage {
	return []agent.ThreadMessage{
		{ID: "msg_a", Role: model.RoleAssistant, RunID: "run_1", Text: text, Artifacts: artifacts},
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusCreated, map[string]int{"count": 3})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"count":3}`, rec.Body.String())
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusBadRequest, "bad input")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"bad input"}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	h := NewHealthHandler(t.TempDir())

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestReady(t *testing.T) {
	t.Run("downloads dir present", func(t *testing.T) {
		h := NewHealthHandler(t.TempDir())

		rec := httptest.NewRecorder()
		h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("downloads dir missing", func(t *testing.T) {
		h := NewHealthHandler("/nonexistent/downloads")

		rec := httptest.NewRecorder()
		h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestIndexRendersPage(t *testing.T) {
	r, _ := newTestRouter(t, &fakeAPI{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	body := rec.Body.String()
	assert.Contains(t, body, "Connected")
	for _, prompt := range web.SamplePrompts {
		assert.Contains(t, body, prompt)
	}

	// First visit sets the session cookie.
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, middleware.SessionCookie, cookies[0].Name)
}

func TestIndexShowsErrorBanner(t *testing.T) {
	r, _ := newTestRouter(t, &fakeAPI{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?error=something+went+wrong", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "something went wrong")
}

func TestSendFormRedirectsAndRendersTurn(t *testing.T) {
	api := &fakeAPI{messages: assistantReply("Here you go.")}
	r, _ := newTestRouter(t, api)

	form := url.Values{"content": {"plot a sine wave"}}
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	// Replay the session cookie to read back the conversation.
	get := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		get.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, get)

	body := rec.Body.String()
	assert.Contains(t, body, "plot a sine wave")
	assert.Contains(t, body, "Here you go.")
}

func TestSendFormRejectsEmptyContent(t *testing.T) {
	r, _ := newTestRouter(t, &fakeAPI{})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("content="))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/", loc.Path)
	assert.Contains(t, loc.Query().Get("error"), "empty")
}

func TestClearFormRedirects(t *testing.T) {
	r, _ := newTestRouter(t, &fakeAPI{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/clear", nil))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestAPISendMessage(t *testing.T) {
	api := &fakeAPI{messages: assistantReply("Done.")}
	r, _ := newTestRouter(t, api)

	body, _ := json.Marshal(model.SendMessageRequest{Content: "run some code"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.SendMessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, model.RoleUser, resp.Messages[0].Role)
	assert.Equal(t, "run some code", resp.Messages[0].Content)
	assert.Equal(t, model.RoleAssistant, resp.Messages[1].Role)
	assert.Equal(t, "Done.", resp.Messages[1].Content)
}

func TestAPISendInvalidBody(t *testing.T) {
	r, _ := newTestRouter(t, &fakeAPI{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIClear(t *testing.T) {
	r, _ := newTestRouter(t, &fakeAPI{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/clear", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAPIStatus(t *testing.T) {
	r, _ := newTestRouter(t, &fakeAPI{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var status model.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Connected)
	assert.Equal(t, "gpt-4o", status.Deployment)
}

func TestFilesListAndServe(t *testing.T) {
	api := &fakeAPI{
		messages: assistantReply("Chart attached.",
			model.Artifact{FileID: "file_img", Type: model.ArtifactTypeImage, Extension: ".png"},
		),
	}
	r, _ := newTestRouter(t, api)

	// Produce an artifact via a completed turn.
	form := url.Values{"content": {"draw a chart"}}
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/files", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var listing struct {
		Files []model.FileInfo `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Len(t, listing.Files, 1)
	assert.Equal(t, "file_img.png", listing.Files[0].Name)

	t.Run("inline image", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/file_img.png", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Content-Disposition"))
		assert.Equal(t, "bytes of file_img", rec.Body.String())
	})

	t.Run("forced download", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/file_img.png?download=1", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	})

	t.Run("unknown file", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/nope.png", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
