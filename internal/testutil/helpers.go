package testutil

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/TimurManjosov/goendpoint/internal/api"
	"github.com/TimurManjosov/goendpoint/internal/auth"
	"github.com/TimurManjosov/goendpoint/internal/partitions"
	"github.com/TimurManjosov/goendpoint/internal/store"
)

// NewTestServer creates a test server with an in-memory store for testing.
func NewTestServer(t *testing.T, env, adminKey string) (*api.Server, *store.MemoryStore) {
	t.Helper()
	memStore := store.NewMemoryStore()
	authn := auth.NewAuthenticator(adminKey, "")
	server := api.NewServer(memStore, env, authn, partitions.Default())
	return server, memStore
}

// HTTPRequest is a helper for making test HTTP requests.
type HTTPRequest struct {
	Method  string
	Path    string
	Body    string
	Headers map[string]string
}

// Do executes the HTTP request and returns the response recorder.
func (r *HTTPRequest) Do(t *testing.T, handler http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if r.Body != "" {
		body = bytes.NewBufferString(r.Body)
	}
	req := httptest.NewRequest(r.Method, r.Path, body)
	if r.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// SeedRulesets populates the store with ruleset documents.
func SeedRulesets(ctx context.Context, st store.Store, rulesets []store.UpsertParams) error {
	for _, rs := range rulesets {
		if err := st.Upsert(ctx, rs); err != nil {
			return err
		}
	}
	return nil
}
