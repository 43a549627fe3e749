// Package trace normalizes agent trace envelopes into flat trace records.
//
// A trace envelope arrives in one of several mutually exclusive shapes
// (routing classifier, orchestration, or untyped). Normalize reduces any
// of them to the same {type, timestamp, content} record. It is a pure
// function of its input and never fails outward: internal faults are
// converted to a record with error status.
package trace

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/buger/jsonparser"

	"github.com/tjfontaine/agent-stream-adapter/internal/domain"
)

// Codec normalizes trace envelopes. It holds no cross-event state; a
// single instance is safe to share across invocations.
type Codec struct {
	logger *slog.Logger
	now    func() time.Time
}

// Option configures the codec.
type Option func(*Codec)

// WithLogger sets the logger used for swallowed parse failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Codec) { c.logger = logger }
}

// WithClock overrides the wall clock, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// New creates a trace codec.
func New(opts ...Option) *Codec {
	c := &Codec{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Normalize reduces one trace envelope to a trace record. Any internal
// fault yields a record with Status=error instead of an error return;
// delivery of error records downstream is intentional.
func (c *Codec) Normalize(env *domain.TraceEnvelope) (rec *domain.TraceRecord) {
	defer func() {
		if r := recover(); r != nil {
			rec = c.errorRecord(env, fmt.Sprintf("normalize trace: %v", r))
		}
	}()

	rec = &domain.TraceRecord{
		Type:      "trace",
		Timestamp: c.timestamp(env),
		Content: domain.TraceContent{
			Status: domain.StatusProcessing,
		},
	}
	if env.SessionID != "" {
		rec.Content.SessionID = &env.SessionID
	}

	// Envelope-root collaborator first; a more specific nested value
	// overwrites it below.
	if env.CollaboratorName != "" {
		rec.Content.CollaboratorName = &env.CollaboratorName
	}

	if env.Trace == nil {
		return rec
	}

	var err error
	switch {
	case env.Trace.RoutingClassifier != nil:
		err = c.normalizeRouting(env.Trace.RoutingClassifier, rec)
	case env.Trace.Orchestration != nil:
		err = c.normalizeOrchestration(env.Trace.Orchestration, rec)
	}
	if err != nil {
		return c.errorRecord(env, err.Error())
	}
	return rec
}

// normalizeRouting applies the routing classifier rules. Sub-variants are
// checked in a fixed priority order and only the first match contributes;
// the upstream contract says at most one is populated, but that is not
// assumed here.
func (c *Codec) normalizeRouting(raw json.RawMessage, rec *domain.TraceRecord) error {
	if action, ok := firstKey(raw); ok {
		rec.Content.Action = &action
	}

	var rt domain.RoutingClassifierTrace
	if err := json.Unmarshal(raw, &rt); err != nil {
		return fmt.Errorf("decode routingClassifierTrace: %w", err)
	}

	switch {
	case rt.ModelInvocationInput != nil:
		c.extractModelInput(rt.ModelInvocationInput, rec)

	case rt.Observation != nil:
		obs := rt.Observation
		if out := obs.AgentCollaboratorInvocationOutput; out != nil {
			rec.Content.CollaboratorName = optional(out.AgentCollaboratorName)
			if out.Output != nil {
				rec.Content.Text = optional(out.Output.Text)
			}
		} else if obs.FinalResponse != nil {
			applyFinalResponse(obs, rec)
		}

	case rt.InvocationInput != nil:
		if in := rt.InvocationInput.AgentCollaboratorInvocationInput; in != nil {
			rec.Content.CollaboratorName = optional(in.AgentCollaboratorName)
			if in.Input != nil {
				rec.Content.Text = optional(in.Input.Text)
			}
		}
	}
	return nil
}

// normalizeOrchestration applies the orchestration rules, symmetric to
// normalizeRouting with its own priority order.
func (c *Codec) normalizeOrchestration(raw json.RawMessage, rec *domain.TraceRecord) error {
	if action, ok := firstKey(raw); ok {
		rec.Content.Action = &action
	}

	var ot domain.OrchestrationTrace
	if err := json.Unmarshal(raw, &ot); err != nil {
		return fmt.Errorf("decode orchestrationTrace: %w", err)
	}

	switch {
	case ot.ModelInvocationOutput != nil:
		if rr := ot.ModelInvocationOutput.RawResponse; rr != nil {
			c.extractRawResponse(rr.Content, rec)
		}

	case ot.Rationale != nil:
		if ot.Rationale.Text != nil {
			rec.Content.Text = ot.Rationale.Text
		}

	case ot.Observation != nil:
		if ot.Observation.FinalResponse != nil {
			applyFinalResponse(ot.Observation, rec)
		}
	}
	return nil
}

// extractModelInput pulls the first message's content out of the
// JSON-encoded prompt text. Malformed JSON is logged and swallowed: the
// record simply carries no text.
func (c *Codec) extractModelInput(in *domain.ModelInvocationInput, rec *domain.TraceRecord) {
	if in.Text == "" {
		return
	}
	var parsed struct {
		Messages []struct {
			Content *string `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal([]byte(in.Text), &parsed); err != nil {
		c.logger.Error("parse modelInvocationInput text",
			slog.String("error", err.Error()))
		return
	}
	if len(parsed.Messages) > 0 && parsed.Messages[0].Content != nil {
		rec.Content.Text = parsed.Messages[0].Content
	}
}

// extractRawResponse pulls the first truthy text entry out of the
// JSON-encoded model response. Parse failures are logged and swallowed.
func (c *Codec) extractRawResponse(content string, rec *domain.TraceRecord) {
	var parsed struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		c.logger.Error("parse modelInvocationOutput rawResponse",
			slog.String("error", err.Error()))
		return
	}
	for _, item := range parsed.Content {
		if item.Text != "" {
			rec.Content.Text = &item.Text
			break
		}
	}
}

// applyFinalResponse copies the final text and promotes the record to
// complete only on an explicit FINISH observation.
func applyFinalResponse(obs *domain.Observation, rec *domain.TraceRecord) {
	if obs.FinalResponse.Text == nil {
		return
	}
	rec.Content.Text = obs.FinalResponse.Text
	if obs.Type == "FINISH" {
		rec.Content.Status = domain.StatusComplete
	}
}

// timestamp uses the envelope's own event time when present, otherwise
// the wall clock.
func (c *Codec) timestamp(env *domain.TraceEnvelope) string {
	if env != nil && env.EventTime != nil {
		return env.EventTime.Format(time.RFC3339Nano)
	}
	return c.now().Format(time.RFC3339Nano)
}

// errorRecord builds the record shape returned for normalization faults.
func (c *Codec) errorRecord(env *domain.TraceEnvelope, msg string) *domain.TraceRecord {
	return &domain.TraceRecord{
		Type:      "trace",
		Timestamp: c.timestamp(env),
		Content: domain.TraceContent{
			Status: domain.StatusError,
			Error:  msg,
		},
	}
}

var errStopIteration = errors.New("stop iteration")

// firstKey returns the first key of a raw JSON object in document order.
// Map iteration would not preserve this; the action field is defined as
// the first key the producer wrote.
func firstKey(obj []byte) (string, bool) {
	var key string
	found := false
	_ = jsonparser.ObjectEach(obj, func(k []byte, _ []byte, _ jsonparser.ValueType, _ int) error {
		key = string(k)
		found = true
		return errStopIteration
	})
	return key, found
}

// optional maps an empty string to an explicit null.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
