package credential

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/foundry-demos/code-interpreter-chat/pkg/logger"
)

// Chain tries providers in order and returns the first token acquired.
// Successful tokens are cached until shortly before expiry. Chain is safe
// for concurrent use.
type Chain struct {
	providers []Provider
	logger    *logger.Logger

	mu     sync.Mutex
	cached Token
	now    func() time.Time
}

// NewChain creates a credential chain over the given providers. Provider
// order is significant: the first success wins.
func NewChain(log *logger.Logger, providers ...Provider) *Chain {
	return &Chain{
		providers: providers,
		logger:    log,
		now:       time.Now,
	}
}

// DefaultChain builds the standard ambient chain: environment token, then
// managed identity, then the CLI session.
func DefaultChain(log *logger.Logger) *Chain {
	return NewChain(log,
		&EnvProvider{},
		&ManagedIdentityProvider{},
		&CLIProvider{},
	)
}

// Token returns a usable bearer token, acquiring one if the cache is empty
// or stale. All providers failing yields an *AuthError.
func (c *Chain) Token(ctx context.Context) (Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached.Valid(c.now()) {
		return c.cached, nil
	}

	var failures []string
	for _, p := range c.providers {
		tok, err := p.Token(ctx)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", p.Name(), err))
			c.logger.Debug("credential provider failed",
				zap.String("provider", p.Name()),
				zap.Error(err),
			)
			continue
		}
		c.logger.Info("acquired bearer token",
			zap.String("provider", p.Name()),
			zap.Time("expires_at", tok.ExpiresAt),
		)
		c.cached = tok
		return tok, nil
	}

	return Token{}, &AuthError{
		Reason: "credential chain exhausted (" + strings.Join(failures, "; ") + ")",
	}
}

// Invalidate drops the cached token, forcing reacquisition on next use.
// Called when the remote service rejects the current token.
func (c *Chain) Invalidate() {
	c.mu.Lock()
	c.cached = Token{}
	c.mu.Unlock()
}
