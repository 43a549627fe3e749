package runtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tjfontaine/agent-stream-adapter/internal/agent"
)

func TestInvokeAgent_StreamsEvents(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"chunk\":{\"bytes\":\"SGVsbG8=\"}}\n\n"))
		w.Write([]byte("data: {\"trace\":{\"sessionId\":\"s1\"}}\n\n"))
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	events, err := client.InvokeAgent(context.Background(), &agent.InvokeRequest{
		AgentID:   "agent-1",
		SessionID: "s1",
		InputText: "hi",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var collected []agent.StreamEvent
	for ev := range events {
		if ev.Err != nil {
			t.Fatalf("unexpected stream error: %v", ev.Err)
		}
		collected = append(collected, ev)
	}

	if gotPath != "/invoke-agent" {
		t.Errorf("path = %q, want /invoke-agent", gotPath)
	}
	if len(collected) != 2 {
		t.Fatalf("expected 2 events, got %d", len(collected))
	}
	if collected[0].Event.Chunk == nil || string(collected[0].Event.Chunk.Bytes) != "Hello" {
		t.Errorf("first event chunk = %+v, want Hello", collected[0].Event.Chunk)
	}
	if collected[1].Event.Trace == nil || collected[1].Event.Trace.SessionID != "s1" {
		t.Errorf("second event trace = %+v, want sessionId s1", collected[1].Event.Trace)
	}
}

func TestInvokeAgent_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "throttled", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	if _, err := client.InvokeAgent(context.Background(), &agent.InvokeRequest{}); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestInvokeAgent_MalformedEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: {broken\n\n"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	events, err := client.InvokeAgent(context.Background(), &agent.InvokeRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ev, ok := <-events
	if !ok {
		t.Fatal("expected an error event before close")
	}
	if ev.Err == nil {
		t.Fatal("expected decode error")
	}
	if _, ok := <-events; ok {
		t.Fatal("expected channel closed after error")
	}
}
