// Package agent drives request/response cycles against the hosted
// code-interpreter agent service: thread lifecycle, message append, run
// polling, and artifact references.
package agent

import (
	"context"
	"io"

	"github.com/foundry-demos/code-interpreter-chat/internal/model"
)

// AssistantSpec describes the assistant to provision remotely.
type AssistantSpec struct {
	Model        string
	Name         string
	Instructions string
}

// RunState is the observed state of a remote run.
type RunState struct {
	ID           string
	Status       model.RunStatus
	ErrorMessage string
}

// ThreadMessage is one message read back from a remote thread, with the
// artifact references already extracted from its content blocks.
type ThreadMessage struct {
	ID        string
	Role      model.Role
	RunID     string
	Text      string
	Artifacts []model.Artifact
}

// API is the surface of the remote agent service the manager needs. The
// production implementation wraps the vendor client; tests substitute a
// scripted fake.
type API interface {
	CreateAssistant(ctx context.Context, spec AssistantSpec) (string, error)
	DeleteAssistant(ctx context.Context, assistantID string) error

	CreateThread(ctx context.Context) (string, error)
	CreateMessage(ctx context.Context, threadID, content string) error

	CreateRun(ctx context.Context, threadID, assistantID string) (RunState, error)
	RetrieveRun(ctx context.Context, threadID, runID string) (RunState, error)

	ListMessages(ctx context.Context, threadID string, limit int) ([]ThreadMessage, error)
	FileContent(ctx context.Context, fileID string) (io.ReadCloser, error)
}
