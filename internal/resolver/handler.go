// Package resolver is the HTTP front door: it unpacks the inbound
// invocation payload, lifts the transport credentials into the argument
// object, and dispatches to the session orchestrator.
package resolver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tjfontaine/agent-stream-adapter/internal/domain"
	"github.com/tjfontaine/agent-stream-adapter/internal/session"
)

// OperationHandler dispatches one merged argument object.
type OperationHandler interface {
	Handle(ctx context.Context, args *session.Args) (*session.Result, error)
}

// Handler serves the resolver endpoint.
type Handler struct {
	operations OperationHandler
	logger     *slog.Logger
}

// NewHandler creates a resolver handler.
func NewHandler(operations OperationHandler, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{operations: operations, logger: logger}
}

// invocationPayload is the inbound request body. Args is a JSON-encoded
// string, not a nested object; the upstream caller double-encodes it.
type invocationPayload struct {
	Args string `json:"args"`
}

// Resolve handles POST /resolve.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	var payload invocationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeJSON(w, http.StatusBadRequest, &session.Result{Success: false, Message: "malformed request body"})
		return
	}

	var args session.Args
	if err := json.Unmarshal([]byte(payload.Args), &args); err != nil {
		h.writeJSON(w, http.StatusBadRequest, &session.Result{Success: false, Message: "malformed args"})
		return
	}

	// Credentials come from the transport, not the argument object.
	args.Host = r.Host
	args.AuthToken = r.Header.Get("Authorization")
	args.APIKey = r.Header.Get("X-Api-Key")

	res, err := h.operations.Handle(r.Context(), &args)
	if err != nil {
		h.logger.Error("operation dispatch failed",
			slog.String("opr", args.Opr),
			slog.String("error", err.Error()))
		status := http.StatusInternalServerError
		if domain.IsKind(err, domain.FailureUnknownOperation) || domain.IsKind(err, domain.FailureProtocol) {
			status = http.StatusBadRequest
		}
		h.writeJSON(w, status, &session.Result{Success: false, Message: "unsupported operation"})
		return
	}

	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("write response", slog.String("error", err.Error()))
	}
}
