package model

import (
	"time"
)

// Session holds the per-browser chat state. The thread id is created
// lazily on the first message; Clear discards it along with the history
// but never touches downloaded files.
type Session struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id,omitempty"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
}

// Append adds a message to the session history.
func (s *Session) Append(msg Message) {
	s.Messages = append(s.Messages, msg)
}

// Clear drops the thread reference and message history.
func (s *Session) Clear() {
	s.ThreadID = ""
	s.Messages = nil
}
