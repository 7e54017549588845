// Package testutil provides shared test helpers for setting up seeded
// in-process backends.
package testutil

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/starford/raido/internal/stubserver"
)

// TestStore creates a temporary seeded SQLite store that is automatically
// cleaned up.
func TestStore(t *testing.T) *stubserver.Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "raido-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	store, err := stubserver.OpenStore(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.ApplySeed(stubserver.DefaultSeed()); err != nil {
		t.Fatal(err)
	}
	return store
}

// TestBackend starts an in-process backend over a seeded store and returns
// its base URL.
func TestBackend(t *testing.T) (string, *stubserver.Store) {
	t.Helper()
	store := TestStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(stubserver.New(store, "test-secret", logger).Router())
	t.Cleanup(srv.Close)
	return srv.URL, store
}
