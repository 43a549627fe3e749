package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

func TestUpdateChatByID_Parses(t *testing.T) {
	doc, err := parser.ParseQuery(&ast.Source{Name: "UpdateChatById", Input: UpdateChatByID})
	if err != nil {
		t.Fatalf("document does not parse: %v", err)
	}
	if len(doc.Operations) != 1 || doc.Operations[0].Operation != ast.Mutation {
		t.Fatal("expected exactly one mutation operation")
	}
}

func TestDeliver_SetsHeadersAndBody(t *testing.T) {
	var (
		gotAuth   string
		gotAPIKey string
		gotHost   string
		gotBody   map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAPIKey = r.Header.Get("X-Api-Key")
		gotHost = r.Host
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"data":{"updateChatById":{"id":"c1"}}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.Deliver(context.Background(), &Mutation{
		Query:     UpdateChatByID,
		Variables: map[string]any{"input": ChatUpdateInput{ID: "c1", UserID: "u1"}},
		Host:      "api.example.com",
		AuthToken: "Bearer tok",
		APIKey:    "key-123",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer tok" {
		t.Errorf("authorization = %q, want Bearer tok", gotAuth)
	}
	if gotAPIKey != "key-123" {
		t.Errorf("x-api-key = %q, want key-123", gotAPIKey)
	}
	if gotHost != "api.example.com" {
		t.Errorf("host = %q, want api.example.com", gotHost)
	}
	if gotBody["query"] != UpdateChatByID {
		t.Errorf("query not forwarded verbatim")
	}
}

func TestDeliver_GraphQLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":[{"message":"unauthorized"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.Deliver(context.Background(), &Mutation{Query: UpdateChatByID})
	if err == nil {
		t.Fatal("expected error for GraphQL errors payload")
	}
}

func TestDeliver_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	if err := client.Deliver(context.Background(), &Mutation{Query: UpdateChatByID}); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}
