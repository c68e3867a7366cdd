package favorites

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"genstudio/internal/domain"
)

type fakeSettingsStore struct {
	settings domain.Settings
	loadErr  error
	saveErr  error
	saves    int
}

func (f *fakeSettingsStore) Load(ctx context.Context) (domain.Settings, error) {
	if f.loadErr != nil {
		return domain.Settings{}, f.loadErr
	}
	return f.settings.Clone(), nil
}

func (f *fakeSettingsStore) Save(ctx context.Context, s domain.Settings) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.settings = s.Clone()
	return nil
}

func newStore(repo *fakeSettingsStore) *Store {
	return New(repo, zerolog.Nop())
}

func TestToggleIsSelfInverse(t *testing.T) {
	repo := &fakeSettingsStore{settings: domain.DefaultSettings()}
	s := newStore(repo)

	on, err := s.Toggle(context.Background(), "flux-dev")
	if err != nil || !on {
		t.Fatalf("first toggle = (%v, %v), want (true, nil)", on, err)
	}
	if !s.IsFavorited("flux-dev") {
		t.Fatal("toggle on did not stick")
	}

	off, err := s.Toggle(context.Background(), "flux-dev")
	if err != nil || off {
		t.Fatalf("second toggle = (%v, %v), want (false, nil)", off, err)
	}
	if s.IsFavorited("flux-dev") {
		t.Fatal("toggle off did not stick")
	}
}

func TestToggleOrderDoesNotMatterForMembership(t *testing.T) {
	repo := &fakeSettingsStore{settings: domain.DefaultSettings()}
	s := newStore(repo)

	_, _ = s.Toggle(context.Background(), "a")
	_, _ = s.Toggle(context.Background(), "b")
	_, _ = s.Toggle(context.Background(), "a")

	if s.IsFavorited("a") || !s.IsFavorited("b") {
		t.Fatalf("membership wrong after interleaved toggles: %v", s.Settings().Favorites)
	}
}

func TestToggleRollsBackOnSaveFailure(t *testing.T) {
	repo := &fakeSettingsStore{settings: domain.DefaultSettings(), saveErr: errors.New("db down")}
	s := newStore(repo)

	if _, err := s.Toggle(context.Background(), "flux-dev"); err == nil {
		t.Fatal("expected save failure to surface")
	}
	if s.IsFavorited("flux-dev") {
		t.Fatal("failed toggle must be rolled back")
	}
	if len(repo.settings.Favorites) != 0 {
		t.Fatal("store must be untouched after a failed save")
	}
}

func TestToggleRefreshesFromStore(t *testing.T) {
	repo := &fakeSettingsStore{settings: domain.DefaultSettings()}
	s := newStore(repo)

	// Another writer added a favorite behind our back.
	repo.settings.Favorites = []string{"sdxl-base"}

	if _, err := s.Toggle(context.Background(), "flux-dev"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	got := s.Settings().Favorites
	if indexOf(got, "flux-dev") < 0 {
		t.Fatalf("toggled favorite missing after refresh: %v", got)
	}
}

func TestInitializeKeepsDefaultsWhenMissing(t *testing.T) {
	repo := &fakeSettingsStore{loadErr: domain.ErrNotFound}
	s := newStore(repo)

	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("missing settings must not fail init: %v", err)
	}
	if got := s.Settings(); got.Theme != domain.DefaultSettings().Theme {
		t.Fatalf("defaults not kept: %+v", got)
	}
}

func TestReplacePersistsAndUpdatesMemory(t *testing.T) {
	repo := &fakeSettingsStore{settings: domain.DefaultSettings()}
	s := newStore(repo)

	next := domain.DefaultSettings()
	next.Theme = "light"
	next.Favorites = []string{"ltx-video"}
	if err := s.Replace(context.Background(), next); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if got := s.Settings(); got.Theme != "light" || !s.IsFavorited("ltx-video") {
		t.Fatalf("replace not applied: %+v", got)
	}
	if repo.settings.Theme != "light" {
		t.Fatal("replace not persisted")
	}
}

func TestRemoteIDNamespacing(t *testing.T) {
	if got := RemoteID("civitai", "12345"); got != "civitai:12345" {
		t.Fatalf("RemoteID = %q", got)
	}
}
