package driving

import (
	"context"

	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
)

// Tap runs discovery and extraction.
type Tap interface {
	// Check verifies the configured credentials against the upstream.
	Check(ctx context.Context) error

	// Discover returns every stream the tap can read.
	Discover(ctx context.Context) ([]domain.Stream, error)

	// Sync extracts the selected streams, emitting records and state.
	// An empty selection syncs every stream.
	Sync(ctx context.Context, opts SyncOptions) (*SyncReport, error)
}

// SyncOptions selects what a sync run reads.
type SyncOptions struct {
	// Streams lists the selected stream names. Empty means all.
	Streams []string

	// ConfiguredDevice is the device identifier from configuration, if any.
	ConfiguredDevice domain.DeviceID
}

// SyncReport summarises a completed run.
type SyncReport struct {
	// Device is the identity the run used.
	Device domain.Device

	// Streams holds per-stream results in completion order.
	Streams []StreamResult
}

// StreamResult is the outcome of one stream.
type StreamResult struct {
	// Stream identifies the stream.
	Stream string

	// Pages is the number of pages fetched.
	Pages int

	// Records is the number of records emitted.
	Records int

	// Cursor is the final committed cursor.
	Cursor string

	// Err is the failure, nil on success.
	Err error
}
