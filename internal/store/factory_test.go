package store

import (
	"context"
	"testing"
)

func TestNewStore_Memory(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(ctx, "memory", Options{})
	if err != nil {
		t.Fatalf("NewStore('memory') failed: %v", err)
	}
	if store == nil {
		t.Fatal("Expected non-nil store")
	}

	err = store.Upsert(ctx, UpsertParams{Service: "storage", Env: "test", Document: []byte(`{}`)})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	records, err := store.GetAll(ctx, "test")
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected 1 record, got %d", len(records))
	}

	store.Close()
}

func TestNewStore_File(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(ctx, "file", Options{Dir: t.TempDir(), Env: "prod"})
	if err != nil {
		t.Fatalf("NewStore('file') failed: %v", err)
	}
	defer store.Close()

	records, err := store.GetAll(ctx, "prod")
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected empty directory to yield no records, got %d", len(records))
	}
}

func TestNewStore_UnsupportedType(t *testing.T) {
	ctx := context.Background()
	_, err := NewStore(ctx, "invalid-type", Options{})
	if err == nil {
		t.Fatal("Expected error for unsupported store type")
	}
	expectedMsg := "unsupported store type: invalid-type"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}
}

func TestNewStore_PostgresWithInvalidDSN(t *testing.T) {
	ctx := context.Background()
	_, err := NewStore(ctx, "postgres", Options{DSN: "://not-a-dsn"})
	if err == nil {
		t.Fatal("Expected error for invalid DSN")
	}
}
