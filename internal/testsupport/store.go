package testsupport

import (
	"context"
	"testing"

	"nodues/internal/clearance"
	"nodues/internal/config"
	"nodues/internal/registry"
)

// MustOpenStore opens a clearance.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *clearance.Store {
	t.Helper()

	store, err := clearance.Open(cfg)
	if err != nil {
		t.Fatalf("clearance.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustRegistry builds the registry from the test config.
func MustRegistry(t testing.TB, cfg *config.Config) *registry.Registry {
	t.Helper()

	reg, err := registry.New(cfg.Departments)
	if err != nil {
		t.Fatalf("registry.New: %v", err)
	}
	return reg
}

// NewApplication creates an application with stages seeded from the registry.
func NewApplication(t testing.TB, store *clearance.Store, reg *registry.Registry, studentID string) *clearance.Application {
	t.Helper()

	seeds, err := reg.StagesFor()
	if err != nil {
		t.Fatalf("registry.StagesFor: %v", err)
	}
	app, err := store.CreateApplication(context.Background(), studentID, seeds)
	if err != nil {
		t.Fatalf("store.CreateApplication: %v", err)
	}
	return app
}
