package agent

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/foundry-demos/code-interpreter-chat/internal/model"
	"github.com/foundry-demos/code-interpreter-chat/pkg/logger"
	"github.com/foundry-demos/code-interpreter-chat/pkg/metrics"
)

const (
	assistantName         = "code-demo"
	assistantInstructions = "You are a data visualization assistant. Create clear charts using Python and matplotlib."

	// listLimit bounds how many thread messages are read back per turn.
	listLimit = 20
)

// Options configure a Manager.
type Options struct {
	Model        string
	PollInterval time.Duration
	RunTimeout   time.Duration
	Debug        bool
}

// TurnResult is the outcome of one run: the terminal (or last observed)
// status and the assistant messages the run produced.
type TurnResult struct {
	RunID        string
	Status       model.RunStatus
	ErrorMessage string
	Messages     []ThreadMessage
}

// Manager drives one request/response cycle with the remote agent:
// assistant and thread provisioning, message append, and synchronous run
// polling to a terminal status.
type Manager struct {
	api     API
	logger  *logger.Logger
	options Options

	mu          sync.Mutex
	assistantID string
}

// NewManager creates an agent manager.
func NewManager(api API, log *logger.Logger, opts Options) *Manager {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 1500 * time.Millisecond
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = 2 * time.Minute
	}
	return &Manager{
		api:     api,
		logger:  log,
		options: opts,
	}
}

// AssistantName returns the display name of the provisioned assistant.
func (m *Manager) AssistantName() string {
	return assistantName
}

// EnsureAssistant provisions the remote assistant once per process and
// returns its id. Safe to call repeatedly.
func (m *Manager) EnsureAssistant(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.assistantID != "" {
		return m.assistantID, nil
	}

	id, err := m.api.CreateAssistant(ctx, AssistantSpec{
		Model:        m.options.Model,
		Name:         assistantName,
		Instructions: assistantInstructions,
	})
	if err != nil {
		return "", err
	}

	m.logger.Info("assistant created",
		zap.String("assistant_id", id),
		zap.String("model", m.options.Model),
	)
	m.assistantID = id
	return id, nil
}

// Shutdown deletes the provisioned assistant, best effort.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	id := m.assistantID
	m.assistantID = ""
	m.mu.Unlock()

	if id == "" {
		return
	}
	if err := m.api.DeleteAssistant(ctx, id); err != nil {
		m.logger.Warn("failed to delete assistant", zap.Error(err))
	}
}

// EnsureThread returns the given thread id unchanged if set, otherwise
// creates a remote thread. Idempotent from the session's point of view.
func (m *Manager) EnsureThread(ctx context.Context, threadID string) (string, error) {
	if threadID != "" {
		return threadID, nil
	}

	id, err := m.api.CreateThread(ctx)
	if err != nil {
		return "", err
	}
	m.debug("created thread", zap.String("thread_id", id))
	return id, nil
}

// SendMessage appends a user message to the remote thread.
func (m *Manager) SendMessage(ctx context.Context, threadID, content string) error {
	m.debug("sending message",
		zap.String("thread_id", threadID),
		zap.Int("content_len", len(content)),
	)
	return m.api.CreateMessage(ctx, threadID, content)
}

// RunAndWait creates a run and polls on a fixed interval until the run
// reaches a terminal status or the timeout elapses. A timeout yields
// ErrRunTimeout with the last observed status in the result; the remote
// run is left as-is and may still complete. A requires_action status is
// treated as failed: this demo has no tool-approval handshake.
func (m *Manager) RunAndWait(ctx context.Context, threadID string) (TurnResult, error) {
	assistantID, err := m.EnsureAssistant(ctx)
	if err != nil {
		return TurnResult{}, err
	}

	start := time.Now()
	run, err := m.api.CreateRun(ctx, threadID, assistantID)
	if err != nil {
		return TurnResult{}, err
	}
	m.debug("run created",
		zap.String("thread_id", threadID),
		zap.String("run_id", run.ID),
		zap.String("status", string(run.Status)),
	)

	deadline := time.NewTimer(m.options.RunTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(m.options.PollInterval)
	defer ticker.Stop()

	state := run
	for !state.Status.Terminal() {
		if state.Status == model.RunStatusRequiresAction {
			m.logger.Warn("run requires tool action, treating as failed",
				zap.String("run_id", run.ID),
			)
			metrics.RecordRun("requires_action", time.Since(start).Seconds())
			return TurnResult{
				RunID:        run.ID,
				Status:       model.RunStatusFailed,
				ErrorMessage: "run requested a tool action this demo does not support",
			}, nil
		}

		select {
		case <-ctx.Done():
			return TurnResult{RunID: run.ID, Status: state.Status}, ctx.Err()
		case <-deadline.C:
			metrics.RecordRun("timeout", time.Since(start).Seconds())
			return TurnResult{RunID: run.ID, Status: state.Status}, ErrRunTimeout
		case <-ticker.C:
		}

		metrics.RunPollsTotal.Inc()
		state, err = m.api.RetrieveRun(ctx, threadID, run.ID)
		if err != nil {
			return TurnResult{RunID: run.ID}, err
		}
		m.debug("run polled",
			zap.String("run_id", run.ID),
			zap.String("status", string(state.Status)),
		)
	}

	metrics.RecordRun(string(state.Status), time.Since(start).Seconds())

	result := TurnResult{
		RunID:        run.ID,
		Status:       state.Status,
		ErrorMessage: state.ErrorMessage,
	}
	if state.Status != model.RunStatusCompleted {
		return result, nil
	}

	messages, err := m.collectRunMessages(ctx, threadID, run.ID)
	if err != nil {
		return result, err
	}
	result.Messages = messages
	return result, nil
}

// collectRunMessages reads back the assistant messages produced by one
// run, in chronological order.
func (m *Manager) collectRunMessages(ctx context.Context, threadID, runID string) ([]ThreadMessage, error) {
	listed, err := m.api.ListMessages(ctx, threadID, listLimit)
	if err != nil {
		return nil, err
	}

	// Listing is newest-first; keep this run's assistant messages and
	// restore chronological order.
	var produced []ThreadMessage
	for _, msg := range listed {
		if msg.Role != model.RoleAssistant || msg.RunID != runID {
			continue
		}
		produced = append(produced, msg)
	}
	for i, j := 0, len(produced)-1; i < j; i, j = i+1, j-1 {
		produced[i], produced[j] = produced[j], produced[i]
	}

	m.debug("collected run messages",
		zap.String("run_id", runID),
		zap.Int("count", len(produced)),
	)
	return produced, nil
}

// debug logs request/response metadata, gated on the DEBUG_AGENT_LOGS
// flag. Payload bodies and token material are never logged.
func (m *Manager) debug(msg string, fields ...zap.Field) {
	if !m.options.Debug {
		return
	}
	m.logger.Debug(msg, fields...)
}
