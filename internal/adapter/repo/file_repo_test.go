package repo

import (
	"context"
	"errors"
	"testing"

	"genstudio/internal/domain"
	"genstudio/internal/session"
	"genstudio/internal/storage"
)

func newTempFileStore(t *testing.T) *storage.FileStore {
	t.Helper()
	fs, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return fs
}

func TestSessionStoreFSMissingFileIsNotFound(t *testing.T) {
	store := NewSessionStoreFS[string](newTempFileStore(t), "image")
	if _, err := store.Load(context.Background()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionStoreFSRoundTrip(t *testing.T) {
	store := NewSessionStoreFS[string](newTempFileStore(t), "video")

	col := session.Collection[string]{
		Sessions: []session.Session[string]{
			{ID: "s1", Name: "Clips", Items: []string{"j1", "j2"}},
		},
		CurrentID: "s1",
	}
	if err := store.Save(context.Background(), col); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.CurrentID != "s1" || len(got.Sessions) != 1 || len(got.Sessions[0].Items) != 2 {
		t.Fatalf("round trip lost data: %+v", got)
	}
}

func TestSettingsStoreFSRoundTrip(t *testing.T) {
	store := NewSettingsStoreFS(newTempFileStore(t))

	if _, err := store.Load(context.Background()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first save, got %v", err)
	}

	s := domain.DefaultSettings()
	s.Favorites = []string{"flux-dev"}
	if err := store.Save(context.Background(), s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Favorites) != 1 || got.Favorites[0] != "flux-dev" {
		t.Fatalf("favorites lost: %+v", got)
	}
}
