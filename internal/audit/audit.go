// Package audit exposes the append-only transition log. Entries are never
// updated or deleted; history reads come back in timestamp order with
// insertion order breaking ties.
package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	"nodues/internal/clearance"
)

// Recorder is the append-only audit sink consumed by the workflow
// coordinator.
type Recorder interface {
	Record(ctx context.Context, entry clearance.AuditEntry) error
	History(ctx context.Context, applicationID string) ([]clearance.AuditEntry, error)
}

// StoreRecorder persists audit entries through the clearance store.
type StoreRecorder struct {
	store *clearance.Store
}

// NewStoreRecorder wraps the clearance store's audit table.
func NewStoreRecorder(store *clearance.Store) *StoreRecorder {
	return &StoreRecorder{store: store}
}

func (r *StoreRecorder) Record(ctx context.Context, entry clearance.AuditEntry) error {
	return r.store.AppendAudit(ctx, entry)
}

func (r *StoreRecorder) History(ctx context.Context, applicationID string) ([]clearance.AuditEntry, error) {
	return r.store.AuditHistory(ctx, applicationID)
}

// MemoryRecorder keeps entries in memory. Tests use it to assert on the
// exact sequence of recorded transitions.
type MemoryRecorder struct {
	mu      sync.Mutex
	nextID  int64
	entries []clearance.AuditEntry
}

// NewMemoryRecorder returns an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (r *MemoryRecorder) Record(_ context.Context, entry clearance.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	entry.ID = r.nextID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *MemoryRecorder) History(_ context.Context, applicationID string) ([]clearance.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []clearance.AuditEntry
	for _, entry := range r.entries {
		if entry.ApplicationID == applicationID {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
