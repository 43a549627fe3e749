// Package agent defines the port through which the adapter invokes the
// agent runtime and receives its completion stream.
package agent

import (
	"context"

	"github.com/tjfontaine/agent-stream-adapter/internal/domain"
)

// InvokeRequest carries everything one agent invocation needs.
type InvokeRequest struct {
	AgentID           string            `json:"agentId"`
	AgentAliasID      string            `json:"agentAliasId"`
	SessionID         string            `json:"sessionId"`
	EnableTrace       bool              `json:"enableTrace"`
	EndSession        bool              `json:"endSession"`
	InputText         string            `json:"inputText"`
	SessionAttributes map[string]string `json:"sessionAttributes,omitempty"`
}

// StreamEvent is one item pulled from the completion stream. Err is set
// when the stream failed mid-flight; the channel is closed after it.
type StreamEvent struct {
	Event *domain.RawEvent
	Err   error
}

// Invoker starts an agent invocation and returns its lazily-pulled event
// stream. A transport failure before the stream opens is returned
// directly; failures mid-stream arrive as a StreamEvent with Err set.
type Invoker interface {
	InvokeAgent(ctx context.Context, req *InvokeRequest) (<-chan StreamEvent, error)
}
