package driven

import (
	"context"

	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
)

// BookmarkStore persists stream cursors.
// Implementations must be safe for concurrent use by independent streams.
type BookmarkStore interface {
	// Save stores or overwrites the bookmark for (stream, device).
	Save(ctx context.Context, bookmark domain.Bookmark) error

	// Get retrieves the bookmark for (stream, device).
	// Returns domain.ErrNotFound when none has been saved.
	Get(ctx context.Context, stream string, device domain.DeviceID) (*domain.Bookmark, error)

	// Delete removes the bookmark for (stream, device). Missing entries are not an error.
	Delete(ctx context.Context, stream string, device domain.DeviceID) error

	// List returns every bookmark saved for device, ordered by stream name.
	List(ctx context.Context, device domain.DeviceID) ([]domain.Bookmark, error)

	// Purge discards every stored bookmark for every device.
	Purge(ctx context.Context) error
}

// DeviceStore persists the device identity alongside the bookmarks.
type DeviceStore interface {
	// Device returns the persisted identity.
	// Returns domain.ErrNotFound when none has been saved.
	Device(ctx context.Context) (domain.DeviceID, error)

	// SaveDevice stores the identity.
	SaveDevice(ctx context.Context, id domain.DeviceID) error
}

// StateStore is a bookmark store that also keeps the device identity.
type StateStore interface {
	BookmarkStore
	DeviceStore
}
