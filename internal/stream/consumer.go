// Package stream consumes an agent's completion stream, splitting chunk
// events from trace events and owning the per-session accumulation state.
package stream

import (
	"context"
	"log/slog"

	"github.com/tjfontaine/agent-stream-adapter/internal/agent"
	"github.com/tjfontaine/agent-stream-adapter/internal/codec/trace"
	"github.com/tjfontaine/agent-stream-adapter/internal/domain"
	"github.com/tjfontaine/agent-stream-adapter/internal/markup"
	"github.com/tjfontaine/agent-stream-adapter/internal/metrics"
)

// Accumulation selects how chunk text is combined across the stream.
type Accumulation int

const (
	// LastChunkWins keeps only the most recent chunk's text. The chat
	// path works this way: the runtime re-sends the full answer in its
	// final chunk.
	LastChunkWins Accumulation = iota

	// Concatenate appends every chunk, for responses delivered as true
	// fragments (document generation).
	Concatenate
)

// TraceFunc is invoked synchronously for every normalized trace record,
// error records included, with the chunk text accumulated so far. The
// next event is not pulled until it returns.
type TraceFunc func(ctx context.Context, rec *domain.TraceRecord, accumulated string)

// Options configures one consume call.
type Options struct {
	Mode Accumulation

	// OnTrace receives every normalized record. Nil disables trace
	// handling entirely (trace events are skipped, not normalized).
	OnTrace TraceFunc

	// FormatFinal post-processes the final text through the code-fence
	// formatter.
	FormatFinal bool
}

// accumulator holds the state for exactly one consume call.
type accumulator struct {
	finalText string
	// Reserved; always empty today but carried in delivery payloads.
	metrics map[string]any
}

// Consumer pulls an event stream to exhaustion. It is stateless across
// calls; one instance serves all invocations.
type Consumer struct {
	codec  *trace.Codec
	logger *slog.Logger
}

// NewConsumer creates a consumer around the given trace codec.
func NewConsumer(codec *trace.Codec, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{codec: codec, logger: logger}
}

// Consume iterates the stream to exhaustion and returns the accumulated
// text. An event carrying neither chunk nor trace is a protocol
// violation and aborts the whole consume; a mid-stream transport error
// does the same.
func (c *Consumer) Consume(ctx context.Context, events <-chan agent.StreamEvent, opts Options) (string, error) {
	acc := &accumulator{metrics: map[string]any{}}

	for ev := range events {
		if err := ctx.Err(); err != nil {
			drain(events)
			return "", err
		}
		if ev.Err != nil {
			return "", ev.Err
		}

		switch {
		case ev.Event.Chunk != nil:
			metrics.EventsConsumed.WithLabelValues("chunk").Inc()
			text := string(ev.Event.Chunk.Bytes)
			if opts.Mode == Concatenate {
				acc.finalText += text
			} else {
				acc.finalText = text
			}

		case ev.Event.Trace != nil:
			metrics.EventsConsumed.WithLabelValues("trace").Inc()
			if opts.OnTrace == nil {
				continue
			}
			rec := c.codec.Normalize(ev.Event.Trace)
			if rec.Content.Status == domain.StatusError {
				metrics.NormalizationErrors.Inc()
				c.logger.Error("trace normalization failed",
					slog.String("error", rec.Content.Error))
			}
			// Error records are delivered too; the downstream consumer
			// gets visibility into normalization failures.
			opts.OnTrace(ctx, rec, acc.finalText)

		default:
			drain(events)
			return "", domain.NewProtocolViolation("event carries neither chunk nor trace")
		}
	}

	if opts.FormatFinal {
		return markup.FormatResponse(acc.finalText), nil
	}
	return acc.finalText, nil
}

// drain discards the rest of an aborted stream so the producing
// goroutine can close its end and release the connection.
func drain(events <-chan agent.StreamEvent) {
	go func() {
		for range events {
		}
	}()
}
