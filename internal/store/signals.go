package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonathan/signal-outreach/internal/types"
)

// Namespace and keys used for generated signals
const (
	SignalNamespace = "signals"
	IndexKey        = "signal_index"
)

// RecordKey returns the key of the stored record for id
func RecordKey(id string) string {
	return "signal:" + id
}

// SignalStore keeps StoredSignal records and the newest-first ID index.
// Index updates are serialized within the process only; two processes
// sharing one backend can still lose an insertion.
type SignalStore struct {
	kv      KV
	indexMu sync.Mutex
}

// NewSignalStore creates a signal store on top of kv
func NewSignalStore(kv KV) *SignalStore {
	return &SignalStore{kv: kv}
}

// Save overwrites the record for stored.Signal.ID and inserts the ID at the
// front of the index when it is not already present.
func (s *SignalStore) Save(ctx context.Context, stored types.StoredSignal) error {
	id := stored.Signal.ID
	if id == "" {
		return fmt.Errorf("cannot save signal without an id")
	}
	if err := SetJSON(ctx, s.kv, SignalNamespace, RecordKey(id), stored); err != nil {
		return fmt.Errorf("failed to save signal %s: %w", id, err)
	}

	return s.updateIndex(ctx, func(ids []string) ([]string, bool) {
		for _, existing := range ids {
			if existing == id {
				return ids, false
			}
		}
		return append([]string{id}, ids...), true
	})
}

// Get loads the record for id
func (s *SignalStore) Get(ctx context.Context, id string) (TypedEntry[types.StoredSignal], error) {
	return GetJSON[types.StoredSignal](ctx, s.kv, SignalNamespace, RecordKey(id))
}

// Index returns the signal IDs, newest first
func (s *SignalStore) Index(ctx context.Context) ([]string, error) {
	entry, err := GetJSON[[]string](ctx, s.kv, SignalNamespace, IndexKey)
	if err != nil {
		return nil, err
	}
	if entry.Data == nil {
		return []string{}, nil
	}
	return entry.Data, nil
}

// List returns every indexed record in index order. IDs whose record is
// missing are skipped.
func (s *SignalStore) List(ctx context.Context) ([]types.StoredSignal, error) {
	ids, err := s.Index(ctx)
	if err != nil {
		return nil, err
	}

	signals := make([]types.StoredSignal, 0, len(ids))
	for _, id := range ids {
		entry, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if entry.Exists {
			signals = append(signals, entry.Data)
		}
	}
	return signals, nil
}

// Delete removes the record for id and filters it out of the index.
// It reports whether the record existed.
func (s *SignalStore) Delete(ctx context.Context, id string) (bool, error) {
	entry, err := s.kv.Get(ctx, SignalNamespace, RecordKey(id))
	if err != nil {
		return false, err
	}
	if err := s.kv.Delete(ctx, SignalNamespace, RecordKey(id)); err != nil {
		return false, fmt.Errorf("failed to delete signal %s: %w", id, err)
	}

	err = s.updateIndex(ctx, func(ids []string) ([]string, bool) {
		kept := make([]string, 0, len(ids))
		for _, existing := range ids {
			if existing != id {
				kept = append(kept, existing)
			}
		}
		return kept, len(kept) != len(ids)
	})
	return entry.Exists, err
}

// updateIndex runs a read-modify-write of the index; mutate reports
// whether anything changed.
func (s *SignalStore) updateIndex(ctx context.Context, mutate func([]string) ([]string, bool)) error {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	ids, err := s.Index(ctx)
	if err != nil {
		return fmt.Errorf("failed to read signal index: %w", err)
	}
	updated, changed := mutate(ids)
	if !changed {
		return nil
	}
	if err := SetJSON(ctx, s.kv, SignalNamespace, IndexKey, updated); err != nil {
		return fmt.Errorf("failed to write signal index: %w", err)
	}
	return nil
}
