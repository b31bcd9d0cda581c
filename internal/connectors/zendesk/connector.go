package zendesk

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
	"github.com/custodia-labs/tap-zendesk-sell/internal/core/ports/driven"
	"github.com/custodia-labs/tap-zendesk-sell/internal/schemas"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Connector exposes the Zendesk Sell streams.
type Connector struct {
	config *Config
	client *Client

	mu     sync.Mutex
	feeds  map[string]driven.ChangeFeed
	closed bool
}

// New creates a connector with an authenticated client.
func New(ctx context.Context, cfg *Config) *Connector {
	return NewWithClient(cfg, NewClient(ctx, cfg))
}

// NewWithClient creates a connector around an existing client.
func NewWithClient(cfg *Config, client *Client) *Connector {
	return &Connector{
		config: cfg,
		client: client,
		feeds:  make(map[string]driven.ChangeFeed),
	}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return "zendesk-sell"
}

// Validate checks the access token against the API.
func (c *Connector) Validate(ctx context.Context) error {
	if err := c.checkOpen(); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := c.client.ValidateCredentials(ctx); err != nil {
		if IsUnauthorized(err) {
			return fmt.Errorf("%w: %w", domain.ErrAuthInvalid, err)
		}
		return fmt.Errorf("validate credentials: %w", err)
	}
	return nil
}

// Streams returns every stream declaration in registry order.
// Schemas of streams with custom fields are extended from the API.
func (c *Connector) Streams(ctx context.Context) ([]domain.Stream, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	streams := make([]domain.Stream, 0, len(streamDefs))
	for i := range streamDefs {
		def := &streamDefs[i]
		schema, err := schemas.Load(def.name)
		if err != nil {
			return nil, err
		}
		c.applyCustomFields(ctx, def, schema)

		streams = append(streams, domain.Stream{
			Name:          def.name,
			KeyProperties: append([]string(nil), def.keys...),
			Replication:   def.replicationMethod(),
			Parent:        def.parent,
			Schema:        schema,
		})
	}
	return streams, nil
}

// Feed returns the change feed of the named stream. Feeds are cached so
// that a stream's session state survives across fetches.
func (c *Connector) Feed(stream string) (driven.ChangeFeed, error) {
	def, ok := lookupDef(stream)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownStream, stream)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, domain.ErrTapClosed
	}
	if feed, ok := c.feeds[stream]; ok {
		return feed, nil
	}

	var feed driven.ChangeFeed
	switch def.kind {
	case kindSingle:
		feed = &singleFeed{client: c.client, def: def}
	case kindChild:
		feed = &childFeed{client: c.client, def: def, perPage: c.config.PerPage}
	case kindEvents:
		feed = newEventsFeed(c.client, def)
	default:
		feed = &listFeed{client: c.client, def: def, perPage: c.config.PerPage}
	}
	c.feeds[stream] = feed
	return feed, nil
}

// Close releases resources. Subsequent calls return domain.ErrTapClosed.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.feeds = nil
	return nil
}

func (c *Connector) checkOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrTapClosed
	}
	return nil
}
