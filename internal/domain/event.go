// Package domain defines the event and record types shared across the adapter.
package domain

import (
	"encoding/json"
	"time"
)

// RawEvent is one item of an agent invocation's completion stream.
// Exactly one of Chunk or Trace is populated; an event carrying neither
// is a protocol violation and fails the consuming loop.
type RawEvent struct {
	Chunk *ChunkEvent    `json:"chunk,omitempty"`
	Trace *TraceEnvelope `json:"trace,omitempty"`
}

// ChunkEvent is a fragment of the agent's natural-language answer.
type ChunkEvent struct {
	// Bytes is the UTF-8 encoded text fragment (base64 on the wire).
	Bytes []byte `json:"bytes"`
}

// TraceEnvelope wraps one step of the agent's internal orchestration.
type TraceEnvelope struct {
	EventTime        *time.Time  `json:"eventTime,omitempty"`
	SessionID        string      `json:"sessionId,omitempty"`
	CollaboratorName string      `json:"collaboratorName,omitempty"`
	Trace            *InnerTrace `json:"trace,omitempty"`
}

// InnerTrace is a tagged union: at most one variant key is present.
// The variant payloads stay raw so that key order within them is
// observable; the normalizer derives the record's action from the
// first key in document order.
type InnerTrace struct {
	RoutingClassifier json.RawMessage `json:"routingClassifierTrace,omitempty"`
	Orchestration     json.RawMessage `json:"orchestrationTrace,omitempty"`
}

// RoutingClassifierTrace carries the routing classifier's step detail.
// The upstream contract says at most one field is populated per event,
// but that is not enforced; consumers apply a fixed priority order.
type RoutingClassifierTrace struct {
	ModelInvocationInput *ModelInvocationInput `json:"modelInvocationInput,omitempty"`
	Observation          *Observation          `json:"observation,omitempty"`
	InvocationInput      *InvocationInput      `json:"invocationInput,omitempty"`
}

// OrchestrationTrace carries the orchestrator's step detail.
type OrchestrationTrace struct {
	ModelInvocationOutput *ModelInvocationOutput `json:"modelInvocationOutput,omitempty"`
	Rationale             *Rationale             `json:"rationale,omitempty"`
	Observation           *Observation           `json:"observation,omitempty"`
}

// ModelInvocationInput holds the prompt handed to the model. Text is a
// JSON-encoded string of shape {"messages":[{"content":...},...]}.
type ModelInvocationInput struct {
	Text string `json:"text,omitempty"`
}

// ModelInvocationOutput holds the model's raw response. RawResponse.Content
// is a JSON-encoded string of shape {"content":[{"text":...},...]}.
type ModelInvocationOutput struct {
	RawResponse *RawResponse `json:"rawResponse,omitempty"`
}

// RawResponse is the serialized model output.
type RawResponse struct {
	Content string `json:"content,omitempty"`
}

// Rationale is the orchestrator's reasoning step. Text is a pointer so a
// present-but-empty text still surfaces in the record.
type Rationale struct {
	Text *string `json:"text,omitempty"`
}

// Observation is a post-step observation. Type carries the terminal
// sentinel "FINISH" when FinalResponse is the last step of a task.
type Observation struct {
	Type                              string                             `json:"type,omitempty"`
	AgentCollaboratorInvocationOutput *AgentCollaboratorInvocationOutput `json:"agentCollaboratorInvocationOutput,omitempty"`
	FinalResponse                     *FinalResponse                     `json:"finalResponse,omitempty"`
}

// AgentCollaboratorInvocationOutput is a delegated sub-agent's reply.
type AgentCollaboratorInvocationOutput struct {
	AgentCollaboratorName string      `json:"agentCollaboratorName,omitempty"`
	Output                *OutputText `json:"output,omitempty"`
}

// OutputText wraps a collaborator's output text.
type OutputText struct {
	Text string `json:"text,omitempty"`
}

// FinalResponse is the terminal text of a trace segment. Text is a
// pointer because the FINISH status transition only applies when the
// key is present, even if empty.
type FinalResponse struct {
	Text *string `json:"text,omitempty"`
}

// InvocationInput describes a delegation to a sub-agent.
type InvocationInput struct {
	AgentCollaboratorInvocationInput *AgentCollaboratorInvocationInput `json:"agentCollaboratorInvocationInput,omitempty"`
}

// AgentCollaboratorInvocationInput is the input handed to a sub-agent.
type AgentCollaboratorInvocationInput struct {
	AgentCollaboratorName string     `json:"agentCollaboratorName,omitempty"`
	Input                 *InputText `json:"input,omitempty"`
}

// InputText wraps a collaborator's input text.
type InputText struct {
	Text string `json:"text,omitempty"`
}

// Document is a user-attached document reference.
type Document struct {
	Title string `json:"title"`
}
