// Package session holds per-browser chat state for the lifetime of the
// process. Nothing here survives a restart; downloaded artifacts are
// governed separately by the file handler.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/foundry-demos/code-interpreter-chat/internal/model"
	"github.com/foundry-demos/code-interpreter-chat/pkg/metrics"
)

// Store is an in-memory session registry keyed by session id. The UI
// execution model serves one request per session at a time, but sessions
// from different browsers interleave, so the map is guarded.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*model.Session),
	}
}

// NewID generates a fresh session identifier.
func NewID() string {
	return uuid.NewString()
}

// Update runs fn against the session with the given id, creating it on
// first touch. All reads and mutations of session state go through here.
func (s *Store) Update(id string, fn func(*model.Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = &model.Session{
			ID:        id,
			CreatedAt: time.Now(),
		}
		s.sessions[id] = sess
		metrics.SessionsActive.Set(float64(len(s.sessions)))
	}
	fn(sess)
}

// Snapshot returns a copy of the session for rendering, creating it on
// first touch.
func (s *Store) Snapshot(id string) model.Session {
	var out model.Session
	s.Update(id, func(sess *model.Session) {
		out = *sess
		out.Messages = append([]model.Message(nil), sess.Messages...)
	})
	return out
}

// Clear discards the session's thread reference and message history. The
// session itself survives so the user can keep chatting.
func (s *Store) Clear(id string) {
	s.Update(id, func(sess *model.Session) {
		sess.Clear()
	})
}
