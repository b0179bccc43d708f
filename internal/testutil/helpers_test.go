package testutil

import (
	"context"
	"net/http"
	"testing"

	"github.com/TimurManjosov/goendpoint/internal/store"
)

const testDoc = `{
  "version": "1.0",
  "parameters": {
    "Region": {"type": "String", "required": true}
  },
  "rules": [
    {
      "conditions": [],
      "endpoint": {"url": "https://svc.{Region}.example.com"},
      "type": "endpoint"
    }
  ]
}`

func TestNewTestServer(t *testing.T) {
	server, memStore := NewTestServer(t, "test", "test-key")

	if server == nil {
		t.Fatal("Expected non-nil server")
	}
	if memStore == nil {
		t.Fatal("Expected non-nil store")
	}

	// Verify the store is functional
	ctx := context.Background()
	err := memStore.Upsert(ctx, store.UpsertParams{
		Service:  "storage",
		Env:      "test",
		Document: []byte(testDoc),
	})
	if err != nil {
		t.Fatalf("Store should be functional: %v", err)
	}
}

func TestHTTPRequest_Do(t *testing.T) {
	server, _ := NewTestServer(t, "test", "test-key")
	handler := server.Router()

	req := &HTTPRequest{
		Method: "GET",
		Path:   "/healthz",
	}

	rr := req.Do(t, handler)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Errorf("Expected body 'ok', got '%s'", rr.Body.String())
	}
}

func TestHTTPRequest_DoWithBody(t *testing.T) {
	server, _ := NewTestServer(t, "test", "test-key")
	handler := server.Router()

	req := &HTTPRequest{
		Method: "PUT",
		Path:   "/v1/rulesets/storage",
		Body:   testDoc,
		Headers: map[string]string{
			"Authorization": "Bearer test-key",
		},
	}

	rr := req.Do(t, handler)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHTTPRequest_DoWithHeaders(t *testing.T) {
	server, _ := NewTestServer(t, "test", "test-key")
	handler := server.Router()

	req := &HTTPRequest{
		Method: "GET",
		Path:   "/v1/rulesets/snapshot",
		Headers: map[string]string{
			"If-None-Match": "test-etag",
		},
	}

	rr := req.Do(t, handler)

	// Stale etag must not produce a 304
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
}

func TestSeedRulesets(t *testing.T) {
	_, memStore := NewTestServer(t, "test", "test-key")
	ctx := context.Background()

	rulesets := []store.UpsertParams{
		{Service: "storage", Env: "test", Document: []byte(testDoc)},
		{Service: "queue", Env: "test", Document: []byte(testDoc)},
		{Service: "compute", Env: "prod", Document: []byte(testDoc)},
	}

	if err := SeedRulesets(ctx, memStore, rulesets); err != nil {
		t.Fatalf("SeedRulesets failed: %v", err)
	}

	testRecords, err := memStore.GetAll(ctx, "test")
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(testRecords) != 2 {
		t.Errorf("Expected 2 test rulesets, got %d", len(testRecords))
	}

	prodRecords, err := memStore.GetAll(ctx, "prod")
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(prodRecords) != 1 {
		t.Errorf("Expected 1 prod ruleset, got %d", len(prodRecords))
	}
}

func TestSeedRulesets_EmptyList(t *testing.T) {
	_, memStore := NewTestServer(t, "test", "test-key")
	ctx := context.Background()

	if err := SeedRulesets(ctx, memStore, nil); err != nil {
		t.Fatalf("SeedRulesets with empty list should not fail: %v", err)
	}

	records, err := memStore.GetAll(ctx, "test")
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected 0 rulesets, got %d", len(records))
	}
}
