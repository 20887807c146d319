package factory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/steveyegge/workitems/internal/storage"
	"github.com/steveyegge/workitems/internal/storage/jsonl"
	"github.com/steveyegge/workitems/internal/storage/memory"
	"github.com/steveyegge/workitems/internal/storage/sqlstore"
)

func TestNew_EmptyBackendDefaultsToJSONL(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")

	store, err := New(ctx, "", Options{DataDir: dir})
	if err != nil {
		t.Fatalf("New('') failed: %v", err)
	}
	if _, ok := store.(*jsonl.Store); !ok {
		t.Fatalf("New('') = %T, want *jsonl.Store", store)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("data directory not created: %v", err)
	}
}

func TestNew_SQLiteBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := New(ctx, BackendSQLite, Options{DataDir: dir})
	if err != nil {
		t.Fatalf("New(sqlite) failed: %v", err)
	}
	defer storage.Close(store)

	if _, ok := store.(*sqlstore.Store); !ok {
		t.Fatalf("New(sqlite) = %T, want *sqlstore.Store", store)
	}
	if _, err := os.Stat(filepath.Join(dir, sqliteFile)); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestNew_SQLiteNeedsLocation(t *testing.T) {
	if _, err := New(context.Background(), BackendSQLite, Options{}); err == nil {
		t.Fatal("New(sqlite) without dsn or data dir should fail")
	}
}

func TestNew_Memory(t *testing.T) {
	store, err := New(context.Background(), "MEMORY", Options{})
	if err != nil {
		t.Fatalf("New(memory) failed: %v", err)
	}
	if _, ok := store.(*memory.MemoryStorage); !ok {
		t.Fatalf("New(memory) = %T", store)
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, "unknown-backend", Options{})
	if err == nil {
		t.Fatal("New(unknown) should return error")
	}
	if !strings.Contains(err.Error(), "unknown storage backend") {
		t.Errorf("error should mention unknown backend, got: %v", err)
	}
}

func TestRegisterBackend(t *testing.T) {
	called := false
	RegisterBackend("test-backend", func(ctx context.Context, opts Options) (storage.Adapter, error) {
		called = true
		return memory.New(), nil
	})
	defer delete(backendRegistry, "test-backend")

	if _, err := New(context.Background(), "test-backend", Options{}); err != nil {
		t.Fatalf("New(test-backend) failed: %v", err)
	}
	if !called {
		t.Error("registered factory was not called")
	}
}
