package zendesk

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
	"github.com/custodia-labs/tap-zendesk-sell/internal/core/ports/driven"
	"github.com/custodia-labs/tap-zendesk-sell/internal/logger"
)

var _ driven.ChangeFeed = (*eventsFeed)(nil)

// eventsFeed drains the Sync API main queue of a device.
//
// A session is started on the first fetch and kept until the queue is
// empty. Each queue batch is one page; its items are acknowledged on
// Commit, after which the server stops sending them to the device.
// The cursor is the id of the last session, kept for diagnostics: the
// queue position itself lives server-side, keyed by device.
type eventsFeed struct {
	client *Client
	def    *streamDef

	mu       sync.Mutex
	sessions map[domain.DeviceID]string
}

func newEventsFeed(client *Client, def *streamDef) *eventsFeed {
	return &eventsFeed{
		client:   client,
		def:      def,
		sessions: make(map[domain.DeviceID]string),
	}
}

// Fetch reads the next queue batch, starting a session when needed.
func (f *eventsFeed) Fetch(ctx context.Context, req domain.SyncRequest) (*domain.SyncPage, error) {
	if req.Device.IsZero() {
		return nil, fmt.Errorf("stream %s: %w: empty device id", f.def.name, domain.ErrInvalidDevice)
	}

	session, err := f.session(ctx, req.Device)
	if err != nil {
		return nil, fmt.Errorf("stream %s: start sync: %w", f.def.name, err)
	}
	if session == "" {
		logger.Debug("stream %s: nothing to sync for device %s", f.def.name, req.Device)
		return &domain.SyncPage{NextCursor: req.Cursor}, nil
	}

	items, err := f.client.FetchQueue(ctx, req.Device, session)
	if err != nil {
		return nil, fmt.Errorf("stream %s: session %s: %w", f.def.name, session, err)
	}
	if len(items) == 0 {
		f.endSession(req.Device)
		logger.Debug("stream %s: session %s drained", f.def.name, session)
		return &domain.SyncPage{NextCursor: session}, nil
	}

	page := &domain.SyncPage{
		Records:    make([]domain.ChangeRecord, 0, len(items)),
		NextCursor: session,
		More:       true,
	}
	for i, item := range items {
		if item.Meta.Sync == nil || item.Meta.Sync.AckKey == "" {
			return nil, &domain.ProtocolError{
				Stream: f.def.name,
				Reason: fmt.Sprintf("queue item %d (%s %s) has no ack key", i, item.Meta.Type, recordID(item.Data)),
			}
		}
		page.Records = append(page.Records, domain.ChangeRecord{
			Type:     domain.ParseChangeType(item.Meta.Sync.EventType),
			Resource: item.Meta.Type,
			Fields: map[string]any{
				"data": item.Data,
				"meta": item.Meta.metaMap(),
			},
			AckKey: item.Meta.Sync.AckKey,
		})
	}
	return page, nil
}

// Commit acknowledges the page's queue items.
func (f *eventsFeed) Commit(ctx context.Context, req domain.SyncRequest, page *domain.SyncPage) error {
	keys := page.AckKeys()
	if len(keys) == 0 {
		return nil
	}
	if err := f.client.Ack(ctx, req.Device, keys); err != nil {
		return fmt.Errorf("stream %s: ack %d items: %w", f.def.name, len(keys), err)
	}
	logger.Debug("stream %s: acknowledged %d items", f.def.name, len(keys))
	return nil
}

// session returns the open session of device, starting one if needed.
// An empty id means the server has nothing to sync.
func (f *eventsFeed) session(ctx context.Context, device domain.DeviceID) (string, error) {
	f.mu.Lock()
	id := f.sessions[device]
	f.mu.Unlock()
	if id != "" {
		return id, nil
	}

	id, ok, err := f.client.StartSync(ctx, device)
	if err != nil || !ok {
		return "", err
	}

	f.mu.Lock()
	f.sessions[device] = id
	f.mu.Unlock()
	logger.Debug("stream %s: started session %s", f.def.name, id)
	return id, nil
}

func (f *eventsFeed) endSession(device domain.DeviceID) {
	f.mu.Lock()
	delete(f.sessions, device)
	f.mu.Unlock()
}
