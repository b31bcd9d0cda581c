package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
	"github.com/custodia-labs/tap-zendesk-sell/internal/core/ports/driven"
)

// Emitter hands conformed records to the sink and checkpoints cursors.
type Emitter struct {
	sink      driven.RecordSink
	bookmarks driven.BookmarkStore
	metrics   driven.Metrics
	now       func() time.Time

	// checkpointMu makes save+snapshot+write atomic so STATE messages
	// from concurrent streams never go backwards.
	checkpointMu sync.Mutex
}

// NewEmitter creates an emitter. metrics may be nil.
func NewEmitter(sink driven.RecordSink, bookmarks driven.BookmarkStore, metrics driven.Metrics) *Emitter {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Emitter{
		sink:      sink,
		bookmarks: bookmarks,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Emit conforms every record of page to the stream schema and writes them.
// Conformance runs over the whole page first: one bad record fails the
// page and nothing from it is written.
func (e *Emitter) Emit(stream *domain.Stream, page *domain.SyncPage) error {
	rows := make([]map[string]any, len(page.Records))
	for i, rec := range page.Records {
		if stream.Schema == nil {
			rows[i] = rec.Fields
			continue
		}
		row, err := stream.Schema.Conform(stream.Name, rec.Fields)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		rows[i] = row
	}

	extractedAt := e.now().UTC()
	for _, row := range rows {
		if err := e.sink.WriteRecord(stream.Name, row, extractedAt); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	e.metrics.RecordsEmitted(stream.Name, len(rows))
	return nil
}

// Checkpoint saves the cursor for (stream, device) and emits the state.
func (e *Emitter) Checkpoint(ctx context.Context, stream string, device domain.DeviceID, cursor string) error {
	e.checkpointMu.Lock()
	defer e.checkpointMu.Unlock()

	b := domain.Bookmark{
		Stream:    stream,
		DeviceID:  device,
		Cursor:    cursor,
		UpdatedAt: e.now().UTC(),
	}
	if err := e.bookmarks.Save(ctx, b); err != nil {
		return fmt.Errorf("save bookmark: %w", err)
	}
	return e.writeStateLocked(ctx, device)
}

// Clear removes the bookmark for (stream, device) and emits the state.
func (e *Emitter) Clear(ctx context.Context, stream string, device domain.DeviceID) error {
	e.checkpointMu.Lock()
	defer e.checkpointMu.Unlock()

	if err := e.bookmarks.Delete(ctx, stream, device); err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	return e.writeStateLocked(ctx, device)
}

// WriteState emits the current state for device.
func (e *Emitter) WriteState(ctx context.Context, device domain.DeviceID) error {
	e.checkpointMu.Lock()
	defer e.checkpointMu.Unlock()
	return e.writeStateLocked(ctx, device)
}

func (e *Emitter) writeStateLocked(ctx context.Context, device domain.DeviceID) error {
	list, err := e.bookmarks.List(ctx, device)
	if err != nil {
		return fmt.Errorf("list bookmarks: %w", err)
	}
	state := domain.State{
		DeviceID:  device,
		Bookmarks: make(map[string]domain.Bookmark, len(list)),
	}
	for _, b := range list {
		state.Bookmarks[b.Stream] = b
	}
	if err := e.sink.WriteState(state); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}
