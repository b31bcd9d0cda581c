package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
	"github.com/custodia-labs/tap-zendesk-sell/internal/core/ports/driven"
)

// Ensure StateStore implements the interface.
var _ driven.StateStore = (*StateStore)(nil)

type bookmarkKey struct {
	stream string
	device domain.DeviceID
}

// StateStore is an in-memory implementation of driven.StateStore.
// Seeded from a --state document, it is the tap's default bookmark store;
// the STATE messages written from it are what persists between runs.
type StateStore struct {
	mu        sync.RWMutex
	device    domain.DeviceID
	bookmarks map[bookmarkKey]domain.Bookmark
}

// NewStateStore creates a new empty in-memory state store.
func NewStateStore() *StateStore {
	return &StateStore{
		bookmarks: make(map[bookmarkKey]domain.Bookmark),
	}
}

// NewStateStoreFrom creates a store seeded with a previously emitted state.
func NewStateStoreFrom(state domain.State) *StateStore {
	s := NewStateStore()
	s.device = state.DeviceID
	for stream, b := range state.Bookmarks {
		if b.Stream == "" {
			b.Stream = stream
		}
		if b.DeviceID.IsZero() {
			b.DeviceID = state.DeviceID
		}
		s.bookmarks[bookmarkKey{stream: b.Stream, device: b.DeviceID}] = b
	}
	return s
}

// Save stores or overwrites a bookmark.
func (s *StateStore) Save(_ context.Context, b domain.Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookmarks[bookmarkKey{stream: b.Stream, device: b.DeviceID}] = b
	return nil
}

// Get retrieves the bookmark for (stream, device).
func (s *StateStore) Get(_ context.Context, stream string, device domain.DeviceID) (*domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookmarks[bookmarkKey{stream: stream, device: device}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

// Delete removes the bookmark for (stream, device).
func (s *StateStore) Delete(_ context.Context, stream string, device domain.DeviceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bookmarks, bookmarkKey{stream: stream, device: device})
	return nil
}

// List returns the bookmarks of device ordered by stream name.
func (s *StateStore) List(_ context.Context, device domain.DeviceID) ([]domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Bookmark, 0, len(s.bookmarks))
	for k, b := range s.bookmarks {
		if k.device == device {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stream < out[j].Stream })
	return out, nil
}

// Purge discards every bookmark.
func (s *StateStore) Purge(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookmarks = make(map[bookmarkKey]domain.Bookmark)
	return nil
}

// Device returns the stored device identity.
func (s *StateStore) Device(_ context.Context) (domain.DeviceID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.device.IsZero() {
		return "", domain.ErrNotFound
	}
	return s.device, nil
}

// SaveDevice stores the device identity.
func (s *StateStore) SaveDevice(_ context.Context, id domain.DeviceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.device = id
	return nil
}
