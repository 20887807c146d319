// Package factory provides functions for creating storage backends based on configuration.
package factory

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/steveyegge/workitems/internal/storage"
	"github.com/steveyegge/workitems/internal/storage/jsonl"
	"github.com/steveyegge/workitems/internal/storage/memory"
	"github.com/steveyegge/workitems/internal/storage/sqlstore"
)

// Backend names
const (
	BackendJSONL  = "jsonl"
	BackendSQLite = "sqlite"
	BackendMySQL  = "mysql"
	BackendMemory = "memory"
)

// DefaultBackend is used when no backend is configured.
const DefaultBackend = BackendJSONL

// sqliteFile is the database name inside the data directory.
const sqliteFile = "workitems.db"

// BackendFactory is a function that creates a storage backend
type BackendFactory func(ctx context.Context, opts Options) (storage.Adapter, error)

// backendRegistry holds registered backend factories
var backendRegistry = map[string]BackendFactory{
	BackendJSONL:  newJSONL,
	BackendSQLite: newSQLite,
	BackendMySQL:  newMySQL,
	BackendMemory: newMemory,
}

// RegisterBackend registers a storage backend factory
func RegisterBackend(name string, factory BackendFactory) {
	backendRegistry[name] = factory
}

// Backends lists the registered backend names.
func Backends() []string {
	names := make([]string, 0, len(backendRegistry))
	for name := range backendRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Options configures how the storage backend is opened
type Options struct {
	DataDir     string        // jsonl directory; default location of the sqlite file
	DSN         string        // sqlite path or mysql DSN; overrides DataDir for sqlite
	LockTimeout time.Duration // jsonl lock wait and sqlite busy timeout
}

// New creates a storage backend by name. An empty name selects DefaultBackend.
func New(ctx context.Context, backend string, opts Options) (storage.Adapter, error) {
	backend = strings.ToLower(strings.TrimSpace(backend))
	if backend == "" {
		backend = DefaultBackend
	}
	if factory, ok := backendRegistry[backend]; ok {
		return factory(ctx, opts)
	}
	return nil, fmt.Errorf("unknown storage backend: %s (supported: %s)", backend, strings.Join(Backends(), ", "))
}

func newJSONL(_ context.Context, opts Options) (storage.Adapter, error) {
	return jsonl.New(opts.DataDir, jsonl.WithLockTimeout(opts.LockTimeout))
}

func newSQLite(ctx context.Context, opts Options) (storage.Adapter, error) {
	dsn := opts.DSN
	if dsn == "" {
		if opts.DataDir == "" {
			return nil, fmt.Errorf("sqlite backend requires a dsn or data directory")
		}
		dsn = filepath.Join(opts.DataDir, sqliteFile)
	}
	return sqlstore.Open(ctx, sqlstore.Config{
		Dialect:     sqlstore.DialectSQLite,
		DSN:         dsn,
		BusyTimeout: opts.LockTimeout,
	})
}

func newMySQL(ctx context.Context, opts Options) (storage.Adapter, error) {
	return sqlstore.Open(ctx, sqlstore.Config{Dialect: sqlstore.DialectMySQL, DSN: opts.DSN})
}

func newMemory(context.Context, Options) (storage.Adapter, error) {
	return memory.New(), nil
}
