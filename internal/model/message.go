// Package model defines data structures for the code interpreter chat.
package model

import (
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a chat message. Messages are append-only: once added
// to a session they are never mutated.
type Message struct {
	ID        string     `json:"id"`
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// SendMessageRequest is the request to send a new chat message.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// SendMessageResponse carries the messages produced by one chat turn.
type SendMessageResponse struct {
	Messages []Message `json:"messages"`
}

// StatusResponse describes the remote agent connection for the sidebar.
type StatusResponse struct {
	Connected     bool   `json:"connected"`
	AssistantName string `json:"assistant_name,omitempty"`
	Deployment    string `json:"deployment,omitempty"`
}
