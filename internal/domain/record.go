package domain

// TraceStatus is the lifecycle state of a normalized trace record.
type TraceStatus string

const (
	// StatusProcessing is the default state for an in-flight step.
	StatusProcessing TraceStatus = "processing"

	// StatusComplete is set only when an explicit FINISH observation
	// was seen.
	StatusComplete TraceStatus = "complete"

	// StatusError marks a record produced from a normalization failure.
	StatusError TraceStatus = "error"
)

// TraceRecord is the flat, stable shape every trace event is reduced to,
// regardless of which trace variant arrived.
type TraceRecord struct {
	Type      string       `json:"type"`
	Timestamp string       `json:"timestamp"`
	Content   TraceContent `json:"content"`
}

// TraceContent carries the normalized step detail. Optional fields are
// pointers so that absent values serialize as explicit nulls, which the
// downstream mutation consumer expects.
type TraceContent struct {
	CollaboratorName *string     `json:"collaboratorName"`
	Action           *string     `json:"action"`
	SessionID        *string     `json:"sessionId"`
	Status           TraceStatus `json:"status"`
	Text             *string     `json:"text"`
	Error            string      `json:"error,omitempty"`
}
