package driven

import (
	"context"

	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
)

// Connector exposes the streams of an upstream system.
// The Zendesk Sell connector implements this interface.
type Connector interface {
	// Type returns the connector type identifier.
	Type() string

	// Validate performs a lightweight authenticated call.
	// Returns nil if ready to sync, error describing the problem otherwise.
	Validate(ctx context.Context) error

	// Streams returns the stream declarations, with schemas extended by any
	// upstream custom fields.
	Streams(ctx context.Context) ([]domain.Stream, error)

	// Feed returns the change feed that reads the named stream.
	// Returns domain.ErrUnknownStream for undeclared names.
	Feed(stream string) (ChangeFeed, error)

	// Close releases resources.
	Close() error
}

// ChangeFeed reads one stream page by page.
// A feed is used by one driver at a time; pages of one (stream, device)
// are never fetched concurrently.
type ChangeFeed interface {
	// Fetch returns the page after req.Cursor.
	// An empty cursor starts from the beginning.
	Fetch(ctx context.Context, req domain.SyncRequest) (*domain.SyncPage, error)

	// Commit tells the upstream that page has been delivered.
	// Feeds without server-side acknowledgement return nil.
	Commit(ctx context.Context, req domain.SyncRequest, page *domain.SyncPage) error
}

// ChildFeed is implemented by feeds whose stream is read once per parent record.
type ChildFeed interface {
	ChangeFeed

	// Partition extracts the parent keys from a parent record.
	// ok is false when the parent record cannot be expanded.
	Partition(parent domain.ChangeRecord) (p domain.Partition, ok bool)
}
