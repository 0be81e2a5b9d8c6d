// Package handler provides HTTP handlers for the chat UI and API.
package handler

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/foundry-demos/code-interpreter-chat/internal/credential"
	"github.com/foundry-demos/code-interpreter-chat/internal/middleware"
	"github.com/foundry-demos/code-interpreter-chat/internal/model"
	"github.com/foundry-demos/code-interpreter-chat/internal/service"
	"github.com/foundry-demos/code-interpreter-chat/internal/web"
	"github.com/foundry-demos/code-interpreter-chat/pkg/logger"
)

// ChatHandler serves the chat page and the message endpoints.
type ChatHandler struct {
	service   *service.ChatService
	templates *template.Template
	logger    *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(svc *service.ChatService, templates *template.Template, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		service:   svc,
		templates: templates,
		logger:    log,
	}
}

// indexData is the template payload for the chat page.
type indexData struct {
	Status        model.StatusResponse
	Messages      []model.Message
	Files         []model.FileInfo
	SamplePrompts []string
	Error         string
}

// Index handles GET /
func (h *ChatHandler) Index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := middleware.GetSessionID(ctx)

	history := h.service.History(sessionID)
	files, err := h.service.ListFiles()
	if err != nil {
		h.logger.Warn("failed to list files", zap.Error(err))
	}

	data := indexData{
		Status:        h.service.Status(ctx),
		Messages:      history.Messages,
		Files:         files,
		SamplePrompts: web.SamplePrompts,
		Error:         r.URL.Query().Get("error"),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "index", data); err != nil {
		h.logger.Error("failed to render page", zap.Error(err))
	}
}

// SendForm handles POST /chat from the page form (free-form input and
// sample-prompt buttons both land here).
func (h *ChatHandler) SendForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := middleware.GetSessionID(ctx)

	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/?error="+url.QueryEscape("invalid form submission"), http.StatusSeeOther)
		return
	}
	content := r.PostFormValue("content")
	if err := middleware.ValidateMessageContent(content); err != nil {
		http.Redirect(w, r, "/?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	if _, err := h.service.ProcessMessage(ctx, sessionID, content); err != nil {
		// Auth failures block every turn; everything else already became
		// a chat message.
		http.Redirect(w, r, "/?error="+url.QueryEscape(userFacing(err)), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ClearForm handles POST /clear
func (h *ChatHandler) ClearForm(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())
	h.service.ClearChat(sessionID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Send handles POST /api/v1/messages
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := middleware.GetSessionID(ctx)

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateMessageContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	messages, err := h.service.ProcessMessage(ctx, sessionID, req.Content)
	if err != nil {
		var authErr *credential.AuthError
		if errors.As(err, &authErr) {
			writeError(w, http.StatusServiceUnavailable, userFacing(err))
			return
		}
		h.logger.Error("failed to process message", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	writeJSON(w, http.StatusOK, model.SendMessageResponse{Messages: messages})
}

// Clear handles POST /api/v1/clear
func (h *ChatHandler) Clear(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())
	h.service.ClearChat(sessionID)
	w.WriteHeader(http.StatusNoContent)
}

// Status handles GET /api/v1/status
func (h *ChatHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Status(r.Context()))
}

// userFacing keeps auth guidance actionable without leaking internals.
func userFacing(err error) string {
	var authErr *credential.AuthError
	if errors.As(err, &authErr) {
		return "Authentication failed. Sign in (e.g. `az login`) or set an access token, then retry."
	}
	return err.Error()
}
