package agent

import (
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundry-demos/code-interpreter-chat/internal/model"
)

func TestParseThreadMessage(t *testing.T) {
	runID := "run_1"
	msg := openai.Message{
		ID:    "msg_1",
		Role:  "assistant",
		RunID: &runID,
		Content: []openai.MessageContent{
			{
				Type: "text",
				Text: &openai.MessageText{
					Value: "Here is the chart and the data.",
					Annotations: []any{
						map[string]any{
							"type": "file_path",
							"text": "sandbox:/mnt/data/sales.csv",
							"file_path": map[string]any{
								"file_id": "file_csv",
							},
						},
						map[string]any{
							"type": "file_citation",
							"text": "report.txt",
							"file_citation": map[string]any{
								"file_id": "file_txt",
							},
						},
						// Unknown annotation shapes are skipped.
						map[string]any{"type": "other"},
						"not even a map",
					},
				},
			},
			{
				Type:      "image_file",
				ImageFile: &openai.ImageFile{FileID: "file_img"},
			},
		},
	}

	parsed := parseThreadMessage(msg)
	assert.Equal(t, "msg_1", parsed.ID)
	assert.Equal(t, model.RoleAssistant, parsed.Role)
	assert.Equal(t, "run_1", parsed.RunID)
	assert.Equal(t, "Here is the chart and the data.", parsed.Text)

	require.Len(t, parsed.Artifacts, 3)
	assert.Equal(t, "file_csv", parsed.Artifacts[0].FileID)
	assert.Equal(t, model.ArtifactTypeFile, parsed.Artifacts[0].Type)
	assert.Equal(t, "sandbox:/mnt/data/sales.csv", parsed.Artifacts[0].AnnotationText)
	assert.Equal(t, "file_txt", parsed.Artifacts[1].FileID)
	assert.Equal(t, "file_img", parsed.Artifacts[2].FileID)
	assert.Equal(t, model.ArtifactTypeImage, parsed.Artifacts[2].Type)
	assert.Equal(t, ".png", parsed.Artifacts[2].Extension)
}

func TestParseThreadMessageMultipleTextBlocks(t *testing.T) {
	msg := openai.Message{
		ID:   "msg_2",
		Role: "assistant",
		Content: []openai.MessageContent{
			{Type: "text", Text: &openai.MessageText{Value: "first"}},
			{Type: "text", Text: &openai.MessageText{Value: "second"}},
		},
	}

	parsed := parseThreadMessage(msg)
	assert.Equal(t, "first\nsecond", parsed.Text)
	assert.Empty(t, parsed.Artifacts)
	assert.Empty(t, parsed.RunID)
}
