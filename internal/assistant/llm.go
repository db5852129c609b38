// Package assistant wraps the text-generation model behind the symptom
// pre-check, the blog writer and the website chat.
package assistant

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by the placeholder model used when no provider
// credentials are set. Callers degrade to their canned replies.
var ErrNotConfigured = errors.New("assistant: no text-generation provider configured")

// Role is the author of a chat turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one message of a chat transcript.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Image is an inline picture attached to a prompt.
type Image struct {
	MIMEType string
	Data     []byte
}

// Request is a single generation call. History is replayed before Prompt.
type Request struct {
	System  string
	History []Turn
	Prompt  string
	Image   *Image
	// JSON asks the provider for an application/json reply.
	JSON bool
}

// LLM generates text for a request.
type LLM interface {
	Generate(ctx context.Context, req Request) (string, error)
}

type unconfiguredLLM struct{}

// Unconfigured returns an LLM that always fails with ErrNotConfigured.
func Unconfigured() LLM { return unconfiguredLLM{} }

func (unconfiguredLLM) Generate(context.Context, Request) (string, error) {
	return "", ErrNotConfigured
}
