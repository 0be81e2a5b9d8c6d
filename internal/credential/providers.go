package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// EnvProvider reads a pre-acquired token from the environment.
type EnvProvider struct {
	// Key is the environment variable holding the token. Defaults to
	// AGENT_ACCESS_TOKEN.
	Key string
}

func (p *EnvProvider) Name() string { return "environment" }

func (p *EnvProvider) Token(_ context.Context) (Token, error) {
	key := p.Key
	if key == "" {
		key = "AGENT_ACCESS_TOKEN"
	}
	raw := os.Getenv(key)
	if raw == "" {
		return Token{}, fmt.Errorf("%s is not set", key)
	}
	return Token{Value: raw, ExpiresAt: expiryFromJWT(raw)}, nil
}

// ManagedIdentityProvider requests a token from the instance metadata
// service available on managed compute.
type ManagedIdentityProvider struct {
	// Endpoint overrides the IMDS URL, for tests. Defaults to the
	// well-known link-local address.
	Endpoint string
	Resource string
	Client   *http.Client
}

func (p *ManagedIdentityProvider) Name() string { return "managed-identity" }

func (p *ManagedIdentityProvider) Token(ctx context.Context) (Token, error) {
	endpoint := p.Endpoint
	if endpoint == "" {
		endpoint = "http://169.254.169.254/metadata/identity/oauth2/token"
	}
	resource := p.Resource
	if resource == "" {
		resource = DefaultResource
	}
	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: 3 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Token{}, err
	}
	q := req.URL.Query()
	q.Set("api-version", "2018-02-01")
	q.Set("resource", resource)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Metadata", "true")

	resp, err := client.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("metadata service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Token{}, fmt.Errorf("metadata service returned %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresOn   string `json:"expires_on"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Token{}, fmt.Errorf("malformed metadata response: %w", err)
	}
	if payload.AccessToken == "" {
		return Token{}, errors.New("metadata response missing access_token")
	}

	tok := Token{Value: payload.AccessToken}
	if secs, err := strconv.ParseInt(payload.ExpiresOn, 10, 64); err == nil {
		tok.ExpiresAt = time.Unix(secs, 0)
	} else {
		tok.ExpiresAt = expiryFromJWT(payload.AccessToken)
	}
	return tok, nil
}

// CLIProvider shells out to the Azure CLI for a token from an existing
// `az login` session.
type CLIProvider struct {
	Resource string
}

func (p *CLIProvider) Name() string { return "cli" }

func (p *CLIProvider) Token(ctx context.Context) (Token, error) {
	resource := p.Resource
	if resource == "" {
		resource = DefaultResource
	}

	cmd := exec.CommandContext(ctx, "az", "account", "get-access-token",
		"--resource", resource, "--output", "json")
	out, err := cmd.Output()
	if err != nil {
		return Token{}, fmt.Errorf("az account get-access-token failed: %w", err)
	}

	var payload struct {
		AccessToken string `json:"accessToken"`
		ExpiresOn   string `json:"expiresOn"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return Token{}, fmt.Errorf("malformed CLI token output: %w", err)
	}
	if payload.AccessToken == "" {
		return Token{}, errors.New("CLI token output missing accessToken")
	}

	tok := Token{Value: payload.AccessToken, ExpiresAt: expiryFromJWT(payload.AccessToken)}
	if tok.ExpiresAt.IsZero() {
		if ts, err := time.ParseInLocation("2006-01-02 15:04:05.000000", payload.ExpiresOn, time.Local); err == nil {
			tok.ExpiresAt = ts
		}
	}
	return tok, nil
}
