// Package session is the per-request entry point: it selects the
// requested operation, assembles the agent prompt, runs the stream
// consumer, and maps terminal success or failure to a normalized result.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tjfontaine/agent-stream-adapter/internal/agent"
	"github.com/tjfontaine/agent-stream-adapter/internal/delivery"
	"github.com/tjfontaine/agent-stream-adapter/internal/domain"
	"github.com/tjfontaine/agent-stream-adapter/internal/markup"
	"github.com/tjfontaine/agent-stream-adapter/internal/metrics"
	"github.com/tjfontaine/agent-stream-adapter/internal/stream"
)

// letterInstruction is the fixed suffix appended to the letter prompt.
// The wording matches what the agent was tuned against, typo included.
const letterInstruction = "Genereate pre-approval letter: "

// todayAttribute is the fixed session attribute key carrying the date.
const todayAttribute = "today's date"

// RecordStore is the optional audit log for normalized trace records.
type RecordStore interface {
	AppendTraceRecord(ctx context.Context, chatID string, rec *domain.TraceRecord, deliveryErr error) error
}

// Config identifies the agent the orchestrator talks to.
type Config struct {
	AgentID      string
	AgentAliasID string
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithAudit enables trace record auditing.
func WithAudit(store RecordStore) Option {
	return func(o *Orchestrator) { o.audit = store }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithClock overrides the wall clock, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// Orchestrator dispatches resolver operations. One instance is shared
// across invocations; it holds no per-request state.
type Orchestrator struct {
	cfg       Config
	invoker   agent.Invoker
	deliverer delivery.Deliverer
	consumer  *stream.Consumer
	audit     RecordStore
	logger    *slog.Logger
	now       func() time.Time
}

// NewOrchestrator wires an orchestrator from its collaborators.
func NewOrchestrator(cfg Config, invoker agent.Invoker, deliverer delivery.Deliverer, consumer *stream.Consumer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:       cfg,
		invoker:   invoker,
		deliverer: deliverer,
		consumer:  consumer,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Handle runs one operation. An unrecognized discriminator is a protocol
// violation returned as an error; operation-level failures are folded
// into the Result per each operation's exposure policy.
func (o *Orchestrator) Handle(ctx context.Context, args *Args) (*Result, error) {
	switch args.Opr {
	case OperationChat:
		return o.chat(ctx, args), nil
	case OperationApprovalLetter:
		return o.generateApprovalLetter(ctx, args), nil
	default:
		return nil, domain.NewUnknownOperation(args.Opr)
	}
}

// chat runs an interactive turn. Failure detail is logged but never
// returned to the caller.
func (o *Orchestrator) chat(ctx context.Context, args *Args) *Result {
	if err := o.runChat(ctx, args); err != nil {
		o.logger.Error("chat operation failed",
			slog.String("chat_id", args.ID),
			slog.String("user_id", args.UserID),
			slog.String("error", err.Error()))
		metrics.Operations.WithLabelValues(OperationChat, "failure").Inc()
		return &Result{Success: false, Message: "resolver error"}
	}
	metrics.Operations.WithLabelValues(OperationChat, "success").Inc()
	return &Result{Success: true}
}

func (o *Orchestrator) runChat(ctx context.Context, args *Args) error {
	endSession := strings.Contains(args.Message, EndSessionMarker)

	message := args.Message
	if len(args.Documents) > 0 {
		message += markup.FormatDocumentList(args.Documents)
	}

	events, err := o.invoker.InvokeAgent(ctx, &agent.InvokeRequest{
		AgentID:      o.cfg.AgentID,
		AgentAliasID: o.cfg.AgentAliasID,
		SessionID:    args.UserID,
		EnableTrace:  true,
		EndSession:   endSession,
		InputText:    message,
		SessionAttributes: map[string]string{
			todayAttribute: o.now().Format("2006-01-02"),
		},
	})
	if err != nil {
		return fmt.Errorf("invoke agent: %w", err)
	}

	finalText, err := o.consumer.Consume(ctx, events, stream.Options{
		Mode:        stream.LastChunkWins,
		FormatFinal: true,
		OnTrace: func(ctx context.Context, rec *domain.TraceRecord, accumulated string) {
			// Fire-and-forget per record: a failed partial update must
			// not stall the rest of the stream.
			deliverErr := o.deliverUpdate(ctx, args, accumulated, rec)
			if deliverErr != nil {
				o.logger.Error("trace delivery failed",
					slog.String("chat_id", args.ID),
					slog.String("error", deliverErr.Error()))
			}
			if o.audit != nil {
				if auditErr := o.audit.AppendTraceRecord(ctx, args.ID, rec, deliverErr); auditErr != nil {
					o.logger.Error("trace audit failed",
						slog.String("chat_id", args.ID),
						slog.String("error", auditErr.Error()))
				}
			}
		},
	})
	if err != nil {
		return fmt.Errorf("consume stream: %w", err)
	}

	// The closing update triggers downstream subscriptions; its failure
	// fails the whole turn.
	if err := o.deliverUpdate(ctx, args, finalText, nil); err != nil {
		return fmt.Errorf("final delivery: %w", err)
	}
	return nil
}

// deliverUpdate pushes one partial or final chat update. rec is nil for
// the final update.
func (o *Orchestrator) deliverUpdate(ctx context.Context, args *Args, bot string, rec *domain.TraceRecord) error {
	docs := args.Documents
	if docs == nil {
		docs = []domain.Document{}
	}
	payload := map[string]any{
		"metrics":   map[string]any{},
		"documents": docs,
	}
	if rec != nil {
		payload["trace"] = rec
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	// Chat updates authenticate with the caller's token only; the api
	// key is not forwarded on this path.
	err = o.deliverer.Deliver(ctx, &delivery.Mutation{
		Query: delivery.UpdateChatByID,
		Variables: map[string]any{
			"input": delivery.ChatUpdateInput{
				ID:      args.ID,
				UserID:  args.UserID,
				Human:   args.Message,
				Bot:     bot,
				Payload: string(payloadJSON),
			},
		},
		Host:      args.Host,
		AuthToken: args.AuthToken,
	})
	if err != nil {
		metrics.Deliveries.WithLabelValues("failure").Inc()
		return err
	}
	metrics.Deliveries.WithLabelValues("success").Inc()
	return nil
}

// generateApprovalLetter runs the one-shot document generation. Unlike
// chat, this path returns the error message to the caller.
func (o *Orchestrator) generateApprovalLetter(ctx context.Context, args *Args) *Result {
	html, err := o.runLetter(ctx, args)
	if err != nil {
		o.logger.Error("letter generation failed", slog.String("error", err.Error()))
		metrics.Operations.WithLabelValues(OperationApprovalLetter, "failure").Inc()
		if domain.IsKind(err, domain.FailureTransport) {
			return &Result{Success: false, Message: fmt.Sprintf("Error generating approval letter: %v", err)}
		}
		return &Result{Success: false, Message: fmt.Sprintf("Unexpected error generating letter: %v", err)}
	}
	metrics.Operations.WithLabelValues(OperationApprovalLetter, "success").Inc()
	return &Result{Success: true, Message: html}
}

func (o *Orchestrator) runLetter(ctx context.Context, args *Args) (string, error) {
	message, err := markup.WrapInput(buildLetterInput(args))
	if err != nil {
		return "", fmt.Errorf("wrap letter input: %w", err)
	}
	message += letterInstruction

	// Letter generation is not tied to a user session: fresh id per call.
	sessionID := fmt.Sprintf("approval-letter-%s-%s",
		o.now().Format("20060102150405"), uuid.New().String()[:8])

	events, err := o.invoker.InvokeAgent(ctx, &agent.InvokeRequest{
		AgentID:      o.cfg.AgentID,
		AgentAliasID: o.cfg.AgentAliasID,
		SessionID:    sessionID,
		EnableTrace:  false,
		InputText:    message,
	})
	if err != nil {
		return "", fmt.Errorf("invoke agent: %w", err)
	}

	return o.consumer.Consume(ctx, events, stream.Options{Mode: stream.Concatenate})
}
