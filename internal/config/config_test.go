package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PROJECT_ENDPOINT", "https://demo.openai.azure.com")
	t.Setenv("MODEL_DEPLOYMENT_NAME", "gpt-4o")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "https://demo.openai.azure.com", cfg.ProjectEndpoint)
	assert.Equal(t, "gpt-4o", cfg.ModelDeploymentName)
	assert.Equal(t, 50, cfg.MaxArtifactFiles)
	assert.Equal(t, "downloads", cfg.DownloadsDir)
	assert.Equal(t, 1500*time.Millisecond, cfg.RunPollInterval)
	assert.Equal(t, 2*time.Minute, cfg.RunTimeout)
	assert.False(t, cfg.DebugAgentLogs)
}

func TestLoadMissingEndpoint(t *testing.T) {
	t.Setenv("PROJECT_ENDPOINT", "")
	t.Setenv("MODEL_DEPLOYMENT_NAME", "gpt-4o")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PROJECT_ENDPOINT", "https://demo.openai.azure.com/openai/deployments/gpt-4o")
	t.Setenv("MODEL_DEPLOYMENT_NAME", "gpt-4o")
	t.Setenv("MAX_ARTIFACT_FILES", "10")
	t.Setenv("RUN_POLL_INTERVAL", "2s")
	t.Setenv("DEBUG_AGENT_LOGS", "yes")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.MaxArtifactFiles)
	assert.Equal(t, 2*time.Second, cfg.RunPollInterval)
	assert.True(t, cfg.DebugAgentLogs)
	// Deployment paths are trimmed to scheme and host.
	assert.Equal(t, "https://demo.openai.azure.com", cfg.ProjectEndpoint)
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "resource endpoint", in: "https://name.openai.azure.com", want: "https://name.openai.azure.com"},
		{name: "deployment url", in: "https://name.openai.azure.com/openai/deployments/m", want: "https://name.openai.azure.com"},
		{name: "missing scheme", in: "name.openai.azure.com", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeEndpoint(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetFlagEnv(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", "yes", "on"} {
		t.Setenv("TEST_FLAG", v)
		assert.True(t, getFlagEnv("TEST_FLAG"), v)
	}
	for _, v := range []string{"", "0", "false", "off", "nope"} {
		t.Setenv("TEST_FLAG", v)
		assert.False(t, getFlagEnv("TEST_FLAG"), v)
	}
}
