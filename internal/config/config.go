// Package config provides environment configuration for the chat server.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// Remote agent service
	ProjectEndpoint     string
	ModelDeploymentName string
	APIVersion          string
	DebugAgentLogs      bool

	// Run polling
	RunPollInterval time.Duration
	RunTimeout      time.Duration

	// Artifact storage
	DownloadsDir     string
	MaxArtifactFiles int

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 300*time.Second),

		// Agent service
		ProjectEndpoint:     getEnv("PROJECT_ENDPOINT", ""),
		ModelDeploymentName: getEnv("MODEL_DEPLOYMENT_NAME", ""),
		APIVersion:          getEnv("AGENT_API_VERSION", "2024-05-01-preview"),
		DebugAgentLogs:      getFlagEnv("DEBUG_AGENT_LOGS"),

		// Polling
		RunPollInterval: getDurationEnv("RUN_POLL_INTERVAL", 1500*time.Millisecond),
		RunTimeout:      getDurationEnv("RUN_TIMEOUT", 2*time.Minute),

		// Artifacts
		DownloadsDir:     getEnv("DOWNLOADS_DIR", "downloads"),
		MaxArtifactFiles: getIntEnv("MAX_ARTIFACT_FILES", 50),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}

	if cfg.ProjectEndpoint == "" {
		return nil, errors.New("PROJECT_ENDPOINT is required")
	}
	if cfg.ModelDeploymentName == "" {
		return nil, errors.New("MODEL_DEPLOYMENT_NAME is required")
	}
	if cfg.MaxArtifactFiles < 1 {
		return nil, errors.New("MAX_ARTIFACT_FILES must be at least 1")
	}

	endpoint, err := NormalizeEndpoint(cfg.ProjectEndpoint)
	if err != nil {
		return nil, err
	}
	cfg.ProjectEndpoint = endpoint

	return cfg, nil
}

// NormalizeEndpoint reduces a project or deployment URL to its scheme and
// host, which is what the remote client expects as a base URL.
func NormalizeEndpoint(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid PROJECT_ENDPOINT %q: expected a full https URL", endpoint)
	}
	return u.Scheme + "://" + u.Host, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getFlagEnv reads a permissive boolean: 1/true/yes/on enable the flag,
// anything else (including unset) leaves it off.
func getFlagEnv(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
