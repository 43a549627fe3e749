package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tjfontaine/agent-stream-adapter/internal/domain"
	"github.com/tjfontaine/agent-stream-adapter/internal/session"
)

type fakeOperations struct {
	lastArgs *session.Args
	result   *session.Result
	err      error
}

func (f *fakeOperations) Handle(_ context.Context, args *session.Args) (*session.Result, error) {
	f.lastArgs = args
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func post(t *testing.T, h *Handler, args string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]string{"args": args})
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/resolve", strings.NewReader(string(body)))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.Resolve(w, req)
	return w
}

func TestResolve_MergesTransportCredentials(t *testing.T) {
	ops := &fakeOperations{result: &session.Result{Success: true}}
	h := NewHandler(ops, nil)

	w := post(t, h, `{"opr":"chat","id":"c1","userID":"u1","message":"hi"}`, map[string]string{
		"Authorization": "Bearer tok",
		"X-Api-Key":     "key-123",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ops.lastArgs.Opr != "chat" || ops.lastArgs.Message != "hi" {
		t.Errorf("args not decoded: %+v", ops.lastArgs)
	}
	if ops.lastArgs.AuthToken != "Bearer tok" || ops.lastArgs.APIKey != "key-123" {
		t.Errorf("transport credentials not merged: %+v", ops.lastArgs)
	}
	if ops.lastArgs.Host == "" {
		t.Error("host not merged from transport")
	}
}

func TestResolve_MalformedBody(t *testing.T) {
	h := NewHandler(&fakeOperations{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/resolve", strings.NewReader("{nope"))
	w := httptest.NewRecorder()
	h.Resolve(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestResolve_MalformedArgsString(t *testing.T) {
	h := NewHandler(&fakeOperations{}, nil)

	w := post(t, h, "{not json", nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestResolve_UnknownOperationIsBadRequest(t *testing.T) {
	ops := &fakeOperations{err: domain.NewUnknownOperation("nope")}
	h := NewHandler(ops, nil)

	w := post(t, h, `{"opr":"nope"}`, nil)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var res session.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Success {
		t.Error("expected failure result")
	}
}

func TestResolve_ResultPassedThrough(t *testing.T) {
	ops := &fakeOperations{result: &session.Result{Success: true, Message: "<html>letter</html>"}}
	h := NewHandler(ops, nil)

	w := post(t, h, `{"opr":"generate_approval_letter"}`, nil)

	var res session.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !res.Success || res.Message != "<html>letter</html>" {
		t.Errorf("result = %+v", res)
	}
}
