package testsupport

import (
	"context"
	"testing"

	"dugout/internal/config"
	"dugout/internal/library"
	"dugout/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenLibrary opens a library.Store for tests and registers cleanup.
func MustOpenLibrary(t testing.TB, cfg *config.Config) *library.Store {
	t.Helper()

	store, err := library.Open(cfg)
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewClip creates a new pending clip item for tests using the provided store.
func NewClip(t testing.TB, store *queue.Store, title, sourcePath string) *queue.Item {
	t.Helper()

	item, err := store.NewClip(context.Background(), queue.NewClipRequest{
		SourcePath: sourcePath,
		ClipTitle:  title,
	})
	if err != nil {
		t.Fatalf("store.NewClip: %v", err)
	}
	return item
}

// NewAthlete creates a roster entry for tests.
func NewAthlete(t testing.TB, store *library.Store, name string) *library.Athlete {
	t.Helper()

	athlete, err := store.CreateAthlete(context.Background(), name, "", "")
	if err != nil {
		t.Fatalf("store.CreateAthlete: %v", err)
	}
	return athlete
}
