package agent

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/foundry-demos/code-interpreter-chat/internal/credential"
	"github.com/foundry-demos/code-interpreter-chat/internal/model"
)

// TokenSource yields bearer tokens for the remote service and can be told
// to drop a rejected one. *credential.Chain satisfies it.
type TokenSource interface {
	Token(ctx context.Context) (credential.Token, error)
	Invalidate()
}

// AzureClient implements API against an Azure-hosted Assistants endpoint
// using bearer-token auth from a credential chain.
type AzureClient struct {
	endpoint   string
	apiVersion string
	tokens     TokenSource
	httpClient *http.Client
}

// NewAzureClient creates a client for the given resource endpoint
// (scheme+host, already normalized by config).
func NewAzureClient(endpoint, apiVersion string, tokens TokenSource) *AzureClient {
	return &AzureClient{
		endpoint:   endpoint,
		apiVersion: apiVersion,
		tokens:     tokens,
	}
}

// client builds a vendor client carrying the current bearer token. The
// token never leaves the request authorization header.
func (c *AzureClient) client(ctx context.Context) (*openai.Client, error) {
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	cfg := openai.DefaultAzureConfig(tok.Value, c.endpoint)
	cfg.APIType = openai.APITypeAzureAD
	if c.apiVersion != "" {
		cfg.APIVersion = c.apiVersion
	}
	if c.httpClient != nil {
		cfg.HTTPClient = c.httpClient
	}
	return openai.NewClientWithConfig(cfg), nil
}

// wrapErr converts vendor errors into the local taxonomy. Credential
// rejections invalidate the cached token so the next turn reacquires.
func (c *AzureClient) wrapErr(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden {
			c.tokens.Invalidate()
			return &credential.AuthError{Reason: "service rejected credentials", Err: err}
		}
		return &ServiceError{Op: op, StatusCode: apiErr.HTTPStatusCode, Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusUnauthorized || reqErr.HTTPStatusCode == http.StatusForbidden {
			c.tokens.Invalidate()
			return &credential.AuthError{Reason: "service rejected credentials", Err: err}
		}
		return &ServiceError{Op: op, StatusCode: reqErr.HTTPStatusCode, Err: err}
	}

	return &ServiceError{Op: op, Err: err}
}

func (c *AzureClient) CreateAssistant(ctx context.Context, spec AssistantSpec) (string, error) {
	client, err := c.client(ctx)
	if err != nil {
		return "", err
	}

	name := spec.Name
	instructions := spec.Instructions
	assistant, err := client.CreateAssistant(ctx, openai.AssistantRequest{
		Model:        spec.Model,
		Name:         &name,
		Instructions: &instructions,
		Tools: []openai.AssistantTool{
			{Type: openai.AssistantToolTypeCodeInterpreter},
		},
	})
	if err != nil {
		return "", c.wrapErr("create assistant", err)
	}
	return assistant.ID, nil
}

func (c *AzureClient) DeleteAssistant(ctx context.Context, assistantID string) error {
	client, err := c.client(ctx)
	if err != nil {
		return err
	}
	if _, err := client.DeleteAssistant(ctx, assistantID); err != nil {
		return c.wrapErr("delete assistant", err)
	}
	return nil
}

func (c *AzureClient) CreateThread(ctx context.Context) (string, error) {
	client, err := c.client(ctx)
	if err != nil {
		return "", err
	}
	thread, err := client.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", c.wrapErr("create thread", err)
	}
	return thread.ID, nil
}

func (c *AzureClient) CreateMessage(ctx context.Context, threadID, content string) error {
	client, err := c.client(ctx)
	if err != nil {
		return err
	}
	_, err = client.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    string(model.RoleUser),
		Content: content,
	})
	if err != nil {
		return c.wrapErr("create message", err)
	}
	return nil
}

func (c *AzureClient) CreateRun(ctx context.Context, threadID, assistantID string) (RunState, error) {
	client, err := c.client(ctx)
	if err != nil {
		return RunState{}, err
	}
	run, err := client.CreateRun(ctx, threadID, openai.RunRequest{
		AssistantID: assistantID,
	})
	if err != nil {
		return RunState{}, c.wrapErr("create run", err)
	}
	return runState(run), nil
}

func (c *AzureClient) RetrieveRun(ctx context.Context, threadID, runID string) (RunState, error) {
	client, err := c.client(ctx)
	if err != nil {
		return RunState{}, err
	}
	run, err := client.RetrieveRun(ctx, threadID, runID)
	if err != nil {
		return RunState{}, c.wrapErr("retrieve run", err)
	}
	return runState(run), nil
}

func (c *AzureClient) ListMessages(ctx context.Context, threadID string, limit int) ([]ThreadMessage, error) {
	client, err := c.client(ctx)
	if err != nil {
		return nil, err
	}

	order := "desc"
	list, err := client.ListMessage(ctx, threadID, &limit, &order, nil, nil)
	if err != nil {
		return nil, c.wrapErr("list messages", err)
	}

	messages := make([]ThreadMessage, 0, len(list.Messages))
	for _, msg := range list.Messages {
		messages = append(messages, parseThreadMessage(msg))
	}
	return messages, nil
}

func (c *AzureClient) FileContent(ctx context.Context, fileID string) (io.ReadCloser, error) {
	client, err := c.client(ctx)
	if err != nil {
		return nil, err
	}
	content, err := client.GetFileContent(ctx, fileID)
	if err != nil {
		return nil, c.wrapErr("file content", err)
	}
	return content, nil
}

func runState(run openai.Run) RunState {
	state := RunState{
		ID:     run.ID,
		Status: model.RunStatus(run.Status),
	}
	if run.LastError != nil {
		state.ErrorMessage = run.LastError.Message
	}
	return state
}

// parseThreadMessage flattens a remote message's content blocks into text
// plus artifact references: image blocks become image artifacts, and
// file_path/file_citation annotations become file artifacts.
func parseThreadMessage(msg openai.Message) ThreadMessage {
	out := ThreadMessage{
		ID:   msg.ID,
		Role: model.Role(msg.Role),
	}
	if msg.RunID != nil {
		out.RunID = *msg.RunID
	}

	var parts []string
	for _, content := range msg.Content {
		if content.Text != nil {
			parts = append(parts, content.Text.Value)
			out.Artifacts = append(out.Artifacts, artifactsFromAnnotations(content.Text.Annotations)...)
		}
		if content.ImageFile != nil {
			out.Artifacts = append(out.Artifacts, model.Artifact{
				FileID:    content.ImageFile.FileID,
				Type:      model.ArtifactTypeImage,
				Extension: ".png",
			})
		}
	}
	out.Text = strings.Join(parts, "\n")
	return out
}

// artifactsFromAnnotations extracts file references from text annotations.
// The vendor client decodes annotations as untyped JSON, so each one is
// inspected as a generic map.
func artifactsFromAnnotations(annotations []any) []model.Artifact {
	var artifacts []model.Artifact
	for _, raw := range annotations {
		ann, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		annType, _ := ann["type"].(string)
		var ref map[string]any
		switch annType {
		case "file_path":
			ref, _ = ann["file_path"].(map[string]any)
		case "file_citation":
			ref, _ = ann["file_citation"].(map[string]any)
		default:
			continue
		}

		fileID, _ := ref["file_id"].(string)
		if fileID == "" {
			continue
		}
		text, _ := ann["text"].(string)
		artifacts = append(artifacts, model.Artifact{
			FileID:         fileID,
			Type:           model.ArtifactTypeFile,
			AnnotationText: text,
		})
	}
	return artifacts
}
