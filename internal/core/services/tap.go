package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
	"github.com/custodia-labs/tap-zendesk-sell/internal/core/ports/driven"
	"github.com/custodia-labs/tap-zendesk-sell/internal/core/ports/driving"
	"github.com/custodia-labs/tap-zendesk-sell/internal/logger"
)

// Ensure TapService implements the interface.
var _ driving.Tap = (*TapService)(nil)

// TapOptions tunes a TapService.
type TapOptions struct {
	// Retry bounds transient failure retries.
	Retry RetryConfig

	// MaxParallelStreams caps how many streams run at once. Defaults to 1.
	MaxParallelStreams int

	// Metrics is optional.
	Metrics driven.Metrics
}

// TapService runs discovery and extraction over a connector.
type TapService struct {
	connector driven.Connector
	store     driven.StateStore
	sink      driven.RecordSink
	identity  *DeviceIdentity
	driver    *Driver
	emitter   *Emitter
	metrics   driven.Metrics
	parallel  int
}

// NewTapService creates a tap service.
func NewTapService(connector driven.Connector, store driven.StateStore, sink driven.RecordSink, opts TapOptions) *TapService {
	metrics := opts.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}
	parallel := opts.MaxParallelStreams
	if parallel < 1 {
		parallel = 1
	}
	return &TapService{
		connector: connector,
		store:     store,
		sink:      sink,
		identity:  NewDeviceIdentity(store),
		driver:    NewDriver(opts.Retry, metrics),
		emitter:   NewEmitter(sink, store, metrics),
		metrics:   metrics,
		parallel:  parallel,
	}
}

// Check verifies the connector's credentials.
func (s *TapService) Check(ctx context.Context) error {
	if err := s.connector.Validate(ctx); err != nil {
		return fmt.Errorf("check %s: %w", s.connector.Type(), err)
	}
	return nil
}

// Discover returns every stream the connector declares.
func (s *TapService) Discover(ctx context.Context) ([]domain.Stream, error) {
	streams, err := s.connector.Streams(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover streams: %w", err)
	}
	return streams, nil
}

// Sync resolves the device identity, then reads every selected stream.
// Streams run concurrently up to MaxParallelStreams; the first failing
// stream cancels the rest.
func (s *TapService) Sync(ctx context.Context, opts driving.SyncOptions) (*driving.SyncReport, error) {
	device, err := s.identity.GetOrCreate(ctx, opts.ConfiguredDevice)
	if err != nil {
		return nil, err
	}
	if device.Fresh {
		logger.Info("Generated device identifier %s, discarding stored bookmarks", device.ID)
		if err := s.store.Purge(ctx); err != nil {
			return nil, fmt.Errorf("purge bookmarks: %w", err)
		}
	}
	if err := s.store.SaveDevice(ctx, device.ID); err != nil {
		return nil, fmt.Errorf("save device identity: %w", err)
	}

	streams, err := s.connector.Streams(ctx)
	if err != nil {
		return nil, fmt.Errorf("load streams: %w", err)
	}
	jobs, err := planStreams(streams, opts.Streams)
	if err != nil {
		return nil, err
	}

	for _, job := range jobs {
		if job.emit {
			if err := s.sink.WriteSchema(job.stream); err != nil {
				return nil, fmt.Errorf("write schema: %w", err)
			}
		}
		for _, child := range job.children {
			if err := s.sink.WriteSchema(child); err != nil {
				return nil, fmt.Errorf("write schema: %w", err)
			}
		}
	}
	if err := s.emitter.WriteState(ctx, device.ID); err != nil {
		return nil, err
	}

	logger.Info("Syncing %d streams with device %s", len(jobs), device.ID)

	report := &driving.SyncReport{Device: device}
	var (
		mu   sync.Mutex
		errs []error
	)

	// The first failure cancels the remaining streams; every stream's own
	// failure is reported, cancellations caused by it are not.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallel)
	for _, job := range jobs {
		g.Go(func() error {
			results, err := s.runStream(gctx, device.ID, job)
			mu.Lock()
			report.Streams = append(report.Streams, results...)
			if err != nil && (ctx.Err() != nil || !errors.Is(err, context.Canceled)) {
				errs = append(errs, err)
			}
			mu.Unlock()
			return err
		})
	}
	if err := g.Wait(); err != nil {
		if len(errs) == 0 {
			errs = append(errs, err)
		}
		return report, errors.Join(errs...)
	}

	logger.Info("Sync complete")
	return report, nil
}

// streamJob is one top-level stream and the child streams read through it.
type streamJob struct {
	stream domain.Stream

	// emit is false when the stream is read only to expand its children.
	emit bool

	children []domain.Stream
}

// planStreams turns a selection into jobs, in declaration order.
func planStreams(all []domain.Stream, selected []string) ([]streamJob, error) {
	byName := make(map[string]domain.Stream, len(all))
	for _, st := range all {
		byName[st.Name] = st
	}

	want := make(map[string]bool, len(selected))
	for _, name := range selected {
		if _, ok := byName[name]; !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownStream, name)
		}
		want[name] = true
	}
	selectAll := len(selected) == 0

	jobs := make([]streamJob, 0, len(all))
	index := make(map[string]int)
	jobFor := func(st domain.Stream) *streamJob {
		if i, ok := index[st.Name]; ok {
			return &jobs[i]
		}
		jobs = append(jobs, streamJob{stream: st})
		index[st.Name] = len(jobs) - 1
		return &jobs[len(jobs)-1]
	}

	for _, st := range all {
		if !selectAll && !want[st.Name] {
			continue
		}
		if !st.IsChild() {
			jobFor(st).emit = true
			continue
		}
		parent, ok := byName[st.Parent]
		if !ok {
			return nil, fmt.Errorf("%w: parent %s of %s", domain.ErrUnknownStream, st.Parent, st.Name)
		}
		job := jobFor(parent)
		job.children = append(job.children, st)
	}
	return jobs, nil
}

func (s *TapService) runStream(ctx context.Context, device domain.DeviceID, job streamJob) ([]driving.StreamResult, error) {
	name := job.stream.Name
	start := time.Now()

	results, err := s.readStream(ctx, device, job)
	s.metrics.StreamFinished(name, err, time.Since(start))
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Stream %s failed: %v", name, err)
	}
	return results, err
}

func (s *TapService) readStream(ctx context.Context, device domain.DeviceID, job streamJob) ([]driving.StreamResult, error) {
	name := job.stream.Name
	feed, err := s.connector.Feed(name)
	if err != nil {
		return nil, err
	}

	childFeeds := make([]driven.ChildFeed, len(job.children))
	childResults := make([]driving.StreamResult, len(job.children))
	for i, child := range job.children {
		f, err := s.connector.Feed(child.Name)
		if err != nil {
			return nil, err
		}
		cf, ok := f.(driven.ChildFeed)
		if !ok {
			return nil, fmt.Errorf("stream %s: feed cannot be partitioned by %s", child.Name, name)
		}
		childFeeds[i] = cf
		childResults[i].Stream = child.Name
	}

	var cursor string
	if job.emit {
		b, err := s.store.Get(ctx, name, device)
		switch {
		case errors.Is(err, domain.ErrNotFound):
		case err != nil:
			return nil, fmt.Errorf("stream %s: load bookmark: %w", name, err)
		case !b.IsEmpty():
			cursor = b.Cursor
			logger.Info("Stream %s: resuming from bookmark %q", name, cursor)
		}
	}

	handle := func(ctx context.Context, _ domain.SyncRequest, page *domain.SyncPage) error {
		if job.emit {
			if err := s.emitter.Emit(&job.stream, page); err != nil {
				return err
			}
		}
		for i := range job.children {
			for _, parent := range page.Records {
				if err := s.readChild(ctx, device, &job.children[i], childFeeds[i], parent, &childResults[i]); err != nil {
					return err
				}
			}
		}
		if job.emit {
			return s.emitter.Checkpoint(ctx, name, device, page.NextCursor)
		}
		return nil
	}

	req := domain.SyncRequest{Stream: name, Device: device, Cursor: cursor}
	res, err := s.driver.Run(ctx, feed, req, handle)

	if err == nil && job.emit && job.stream.Replication == domain.ReplicationFullTable {
		err = s.emitter.Clear(ctx, name, device)
	}

	var results []driving.StreamResult
	if job.emit {
		results = append(results, driving.StreamResult{
			Stream:  name,
			Pages:   res.Pages,
			Records: res.Records,
			Cursor:  res.Cursor,
			Err:     err,
		})
		logger.Info("Stream %s: %d records in %d pages", name, res.Records, res.Pages)
	}
	for _, cr := range childResults {
		if err != nil && cr.Err == nil {
			cr.Err = err
		}
		results = append(results, cr)
	}
	return results, err
}

func (s *TapService) readChild(ctx context.Context, device domain.DeviceID, child *domain.Stream, feed driven.ChildFeed, parent domain.ChangeRecord, acc *driving.StreamResult) error {
	partition, ok := feed.Partition(parent)
	if !ok {
		return nil
	}
	req := domain.SyncRequest{Stream: child.Name, Device: device, Partition: partition}
	res, err := s.driver.Run(ctx, feed, req, func(_ context.Context, _ domain.SyncRequest, page *domain.SyncPage) error {
		return s.emitter.Emit(child, page)
	})
	acc.Pages += res.Pages
	acc.Records += res.Records
	return err
}
