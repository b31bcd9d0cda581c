package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/tap-zendesk-sell/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
	"github.com/custodia-labs/tap-zendesk-sell/internal/core/ports/driven"
)

// --- Mock implementations shared by the service tests ---

// fastRetry keeps retry tests quick.
var fastRetry = RetryConfig{
	MaxAttempts:     3,
	InitialInterval: time.Millisecond,
	MaxInterval:     2 * time.Millisecond,
	Multiplier:      2,
}

// feedStep is one scripted Fetch outcome.
type feedStep struct {
	page *domain.SyncPage
	err  error
}

func pageStep(cursor string, more bool, records ...domain.ChangeRecord) feedStep {
	return feedStep{page: &domain.SyncPage{Records: records, NextCursor: cursor, More: more}}
}

func errStep(err error) feedStep {
	return feedStep{err: err}
}

// mockFeed replays scripted pages and records every call.
type mockFeed struct {
	mu        sync.Mutex
	steps     []feedStep
	fetches   []domain.SyncRequest
	commits   []domain.SyncRequest
	committed [][]string
	commitErr error
}

func newMockFeed(steps ...feedStep) *mockFeed {
	return &mockFeed{steps: steps}
}

func (f *mockFeed) Fetch(_ context.Context, req domain.SyncRequest) (*domain.SyncPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, req)
	if len(f.steps) == 0 {
		return nil, errors.New("mockFeed: unexpected fetch")
	}
	step := f.steps[0]
	f.steps = f.steps[1:]
	if step.err != nil {
		return nil, step.err
	}
	page := *step.page
	return &page, nil
}

func (f *mockFeed) Commit(_ context.Context, req domain.SyncRequest, page *domain.SyncPage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commitErr != nil {
		return f.commitErr
	}
	f.commits = append(f.commits, req)
	f.committed = append(f.committed, page.AckKeys())
	return nil
}

func (f *mockFeed) fetchCursors() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.fetches))
	for i, r := range f.fetches {
		out[i] = r.Cursor
	}
	return out
}

func (f *mockFeed) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetches)
}

// mockChildFeed returns one page per parent, keyed by the parent's id.
type mockChildFeed struct {
	mu       sync.Mutex
	key      string
	children map[float64][]domain.ChangeRecord
	fetches  []domain.SyncRequest
}

func (f *mockChildFeed) Partition(parent domain.ChangeRecord) (domain.Partition, bool) {
	id, ok := parent.Fields["id"].(float64)
	if !ok {
		return nil, false
	}
	return domain.Partition{f.key: id}, true
}

func (f *mockChildFeed) Fetch(_ context.Context, req domain.SyncRequest) (*domain.SyncPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, req)
	id, _ := req.Partition[f.key].(float64)
	return &domain.SyncPage{Records: f.children[id]}, nil
}

func (f *mockChildFeed) Commit(context.Context, domain.SyncRequest, *domain.SyncPage) error {
	return nil
}

// sinkRecord is one captured RECORD.
type sinkRecord struct {
	stream string
	row    map[string]any
}

// mockSink captures everything the tap writes.
type mockSink struct {
	mu       sync.Mutex
	schemas  []string
	records  []sinkRecord
	states   []domain.State
	writeErr error
}

func (s *mockSink) WriteSchema(stream domain.Stream) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas = append(s.schemas, stream.Name)
	return nil
}

func (s *mockSink) WriteRecord(stream string, row map[string]any, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.records = append(s.records, sinkRecord{stream: stream, row: row})
	return nil
}

func (s *mockSink) WriteState(state domain.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, state)
	return nil
}

func (s *mockSink) recordsFor(stream string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []map[string]any
	for _, r := range s.records {
		if r.stream == stream {
			out = append(out, r.row)
		}
	}
	return out
}

func (s *mockSink) lastState() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.states) == 0 {
		return domain.State{}
	}
	return s.states[len(s.states)-1]
}

// savingStore records every cursor saved through it.
type savingStore struct {
	*memory.StateStore
	mu    sync.Mutex
	saves []string
}

func newSavingStore() *savingStore {
	return &savingStore{StateStore: memory.NewStateStore()}
}

func (s *savingStore) Save(ctx context.Context, b domain.Bookmark) error {
	s.mu.Lock()
	s.saves = append(s.saves, b.Cursor)
	s.mu.Unlock()
	return s.StateStore.Save(ctx, b)
}

// mockConnector serves fixed streams and feeds.
type mockConnector struct {
	streams    []domain.Stream
	feeds      map[string]driven.ChangeFeed
	streamsErr error
	validErr   error
}

func (c *mockConnector) Type() string                   { return "mock" }
func (c *mockConnector) Validate(context.Context) error { return c.validErr }
func (c *mockConnector) Close() error                   { return nil }

func (c *mockConnector) Streams(context.Context) ([]domain.Stream, error) {
	if c.streamsErr != nil {
		return nil, c.streamsErr
	}
	return c.streams, nil
}

func (c *mockConnector) Feed(name string) (driven.ChangeFeed, error) {
	f, ok := c.feeds[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownStream, name)
	}
	return f, nil
}

// mockMetrics counts calls.
type mockMetrics struct {
	mu       sync.Mutex
	pages    map[string]int
	emitted  map[string]int
	retries  map[string]int
	finished map[string]error
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{
		pages:    map[string]int{},
		emitted:  map[string]int{},
		retries:  map[string]int{},
		finished: map[string]error{},
	}
}

func (m *mockMetrics) PageFetched(stream string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[stream]++
}

func (m *mockMetrics) RecordsEmitted(stream string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emitted[stream] += n
}

func (m *mockMetrics) FetchRetried(stream string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retries[stream]++
}

func (m *mockMetrics) StreamFinished(stream string, err error, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished[stream] = err
}

// --- fixtures ---

func rec(id int) domain.ChangeRecord {
	return domain.ChangeRecord{
		Type:   domain.ChangeSnapshot,
		Fields: map[string]any{"id": float64(id), "name": fmt.Sprintf("record %d", id)},
	}
}

func testSchema() *domain.Schema {
	return &domain.Schema{
		Type: domain.TypeList{"null", "object"},
		Properties: map[string]*domain.Schema{
			"id":    {Type: domain.TypeList{"null", "integer"}},
			"name":  {Type: domain.TypeList{"null", "string"}},
			"email": {Type: domain.TypeList{"null", "string"}},
		},
	}
}

func testStream(name string, method domain.ReplicationMethod) domain.Stream {
	return domain.Stream{
		Name:          name,
		KeyProperties: []string{"id"},
		Replication:   method,
		Schema:        testSchema(),
	}
}
