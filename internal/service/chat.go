// Package service orchestrates chat turns: session state, the remote
// agent cycle, and artifact persistence.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/foundry-demos/code-interpreter-chat/internal/agent"
	"github.com/foundry-demos/code-interpreter-chat/internal/credential"
	"github.com/foundry-demos/code-interpreter-chat/internal/files"
	"github.com/foundry-demos/code-interpreter-chat/internal/model"
	"github.com/foundry-demos/code-interpreter-chat/internal/session"
	"github.com/foundry-demos/code-interpreter-chat/pkg/logger"
	"github.com/foundry-demos/code-interpreter-chat/pkg/metrics"
)

// ChatService drives one request/response cycle per user action. Each
// turn blocks on the remote service until the run finishes or times out.
type ChatService struct {
	manager    *agent.Manager
	store      *files.Store
	sessions   *session.Store
	deployment string
	logger     *logger.Logger
	tracer     trace.Tracer
}

// NewChatService creates a chat service.
func NewChatService(
	manager *agent.Manager,
	store *files.Store,
	sessions *session.Store,
	deployment string,
	log *logger.Logger,
) *ChatService {
	return &ChatService{
		manager:    manager,
		store:      store,
		sessions:   sessions,
		deployment: deployment,
		logger:     log,
		tracer:     otel.Tracer("code-interpreter-chat"),
	}
}

// Status reports the remote connection for the sidebar, provisioning the
// assistant on first call.
func (s *ChatService) Status(ctx context.Context) model.StatusResponse {
	if _, err := s.manager.EnsureAssistant(ctx); err != nil {
		s.logger.Warn("assistant not available", zap.Error(err))
		return model.StatusResponse{Connected: false}
	}
	return model.StatusResponse{
		Connected:     true,
		AssistantName: s.manager.AssistantName(),
		Deployment:    s.deployment,
	}
}

// ProcessMessage runs one chat turn for the session: ensure a thread,
// append the user message, run the agent to a terminal state, and
// materialize any artifacts. Run failures and timeouts become assistant
// error messages so the UI stays alive; only an auth failure is returned
// as an error, since no further call can succeed until it is resolved.
func (s *ChatService) ProcessMessage(ctx context.Context, sessionID, content string) ([]model.Message, error) {
	ctx, span := s.tracer.Start(ctx, "chat.turn",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	log := s.logger.WithSession(sessionID, "")

	userMsg := model.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Role:      model.RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	}
	appended := []model.Message{userMsg}
	s.sessions.Update(sessionID, func(sess *model.Session) {
		sess.Append(userMsg)
	})
	metrics.MessagesTotal.WithLabelValues(string(model.RoleUser)).Inc()

	threadID, err := s.ensureThread(ctx, sessionID)
	if err != nil {
		return s.finishTurn(sessionID, appended, err)
	}
	log = s.logger.WithSession(sessionID, threadID)

	if err := s.manager.SendMessage(ctx, threadID, content); err != nil {
		return s.finishTurn(sessionID, appended, err)
	}

	result, err := s.manager.RunAndWait(ctx, threadID)
	if err != nil {
		return s.finishTurn(sessionID, appended, err)
	}
	span.SetAttributes(attribute.String("run.status", string(result.Status)))

	if result.Status != model.RunStatusCompleted {
		reason := result.ErrorMessage
		if reason == "" {
			reason = fmt.Sprintf("run status: %s", result.Status)
		}
		return s.finishTurn(sessionID, appended, &agent.ServiceError{
			Op:  "run",
			Err: errors.New(reason),
		})
	}

	for _, produced := range result.Messages {
		msg := model.Message{
			ID:        produced.ID,
			Role:      model.RoleAssistant,
			Content:   produced.Text,
			Artifacts: s.saveArtifacts(ctx, produced.Artifacts, log),
			CreatedAt: time.Now(),
		}
		appended = append(appended, msg)
		s.sessions.Update(sessionID, func(sess *model.Session) {
			sess.Append(msg)
		})
		metrics.MessagesTotal.WithLabelValues(string(model.RoleAssistant)).Inc()
	}

	return appended, nil
}

// saveArtifacts downloads each artifact, keeping the rest of the message
// renderable when a single download fails.
func (s *ChatService) saveArtifacts(ctx context.Context, artifacts []model.Artifact, log *logger.Logger) []model.Artifact {
	if len(artifacts) == 0 {
		return nil
	}

	saved := make([]model.Artifact, 0, len(artifacts))
	for _, artifact := range artifacts {
		got, err := s.store.SaveArtifact(ctx, artifact)
		if err != nil {
			log.Warn("artifact download failed",
				zap.String("file_id", artifact.FileID),
				zap.Error(err),
			)
			artifact.Downloaded = false
			artifact.Error = "download failed"
			artifact.DisplayName = files.DisplayNameFor(artifact)
			saved = append(saved, artifact)
			continue
		}
		saved = append(saved, got)
	}
	return saved
}

// ensureThread resolves the session's thread, creating one remotely on
// first use and recording it so later turns and retries reuse it.
func (s *ChatService) ensureThread(ctx context.Context, sessionID string) (string, error) {
	var current string
	s.sessions.Update(sessionID, func(sess *model.Session) {
		current = sess.ThreadID
	})

	threadID, err := s.manager.EnsureThread(ctx, current)
	if err != nil {
		return "", err
	}
	if threadID != current {
		s.sessions.Update(sessionID, func(sess *model.Session) {
			sess.ThreadID = threadID
		})
	}
	return threadID, nil
}

// finishTurn converts a turn error into an assistant-visible message. The
// session (thread reference included) stays intact so the user can retry.
// Auth errors are passed through: they block every subsequent call.
func (s *ChatService) finishTurn(sessionID string, appended []model.Message, err error) ([]model.Message, error) {
	var authErr *credential.AuthError
	if errors.As(err, &authErr) {
		s.logger.Error("turn blocked on authentication", zap.Error(err))
		return appended, err
	}

	var text string
	switch {
	case errors.Is(err, agent.ErrRunTimeout):
		text = "The run is taking longer than expected and polling stopped. It may still finish remotely; try again in a moment."
	default:
		text = "Error: " + err.Error()
	}
	s.logger.Error("chat turn failed", zap.Error(err))

	errMsg := model.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Role:      model.RoleAssistant,
		Content:   text,
		CreatedAt: time.Now(),
	}
	appended = append(appended, errMsg)
	s.sessions.Update(sessionID, func(sess *model.Session) {
		sess.Append(errMsg)
	})
	return appended, nil
}

// ClearChat drops the session's history and thread reference and runs a
// retention sweep. Downloaded files stay on disk, governed only by the
// retention cap.
func (s *ChatService) ClearChat(sessionID string) {
	s.sessions.Clear(sessionID)
	if err := s.store.EnforceRetention(""); err != nil {
		s.logger.Warn("retention sweep failed", zap.Error(err))
	}
}

// History returns the session's messages for rendering.
func (s *ChatService) History(sessionID string) model.Session {
	return s.sessions.Snapshot(sessionID)
}

// ListFiles lists downloadable artifacts, newest first.
func (s *ChatService) ListFiles() ([]model.FileInfo, error) {
	return s.store.ListDownloadable()
}

// Shutdown releases remote resources, best effort.
func (s *ChatService) Shutdown(ctx context.Context) {
	s.manager.Shutdown(ctx)
}
