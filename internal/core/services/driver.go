package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
	"github.com/custodia-labs/tap-zendesk-sell/internal/core/ports/driven"
	"github.com/custodia-labs/tap-zendesk-sell/internal/logger"
)

// PageHandler delivers one fetched page. It runs before the page is
// committed upstream; an error stops the run without committing the page.
type PageHandler func(ctx context.Context, req domain.SyncRequest, page *domain.SyncPage) error

// RunResult is what a driver run achieved.
type RunResult struct {
	// Cursor is the cursor after the last delivered page.
	Cursor string

	// Pages is the number of pages fetched and delivered.
	Pages int

	// Records is the number of records delivered.
	Records int
}

// Driver pages through a change feed.
// It holds no cursor state; each Run threads its cursor through the loop,
// so one Driver can serve many streams concurrently.
type Driver struct {
	retry   RetryConfig
	metrics driven.Metrics
}

// NewDriver creates a driver. metrics may be nil.
func NewDriver(retry RetryConfig, metrics driven.Metrics) *Driver {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Driver{retry: retry, metrics: metrics}
}

// Run fetches pages starting at req.Cursor until the feed reports no more.
// Each page is handed to handle and then committed to the feed before the
// next fetch. Transient fetch failures are retried; anything else aborts
// the run, leaving earlier pages delivered.
func (d *Driver) Run(ctx context.Context, feed driven.ChangeFeed, req domain.SyncRequest, handle PageHandler) (RunResult, error) {
	res := RunResult{Cursor: req.Cursor}

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		pageReq := req
		pageReq.Cursor = res.Cursor

		logger.Debug("stream %s: fetching page %d (cursor %q)", req.Stream, res.Pages+1, res.Cursor)
		page, err := withRetry(ctx, d.retry, "fetch "+req.Stream,
			func() { d.metrics.FetchRetried(req.Stream) },
			func() (*domain.SyncPage, error) { return feed.Fetch(ctx, pageReq) },
		)
		if err != nil {
			return res, fmt.Errorf("stream %s: fetch page %d: %w", req.Stream, res.Pages+1, err)
		}
		d.metrics.PageFetched(req.Stream, len(page.Records))

		if page.NextCursor == "" {
			if page.More {
				return res, &domain.ProtocolError{
					Stream: req.Stream,
					Reason: fmt.Sprintf("page %d signals more pages without a cursor", res.Pages+1),
				}
			}
			// A final page may omit the cursor; the position does not move.
			page.NextCursor = res.Cursor
		}

		if err := handle(ctx, pageReq, page); err != nil {
			return res, fmt.Errorf("stream %s: deliver page %d: %w", req.Stream, res.Pages+1, err)
		}

		if _, err := withRetry(ctx, d.retry, "commit "+req.Stream, nil,
			func() (struct{}, error) { return struct{}{}, feed.Commit(ctx, pageReq, page) },
		); err != nil {
			return res, fmt.Errorf("stream %s: commit page %d: %w", req.Stream, res.Pages+1, err)
		}

		res.Pages++
		res.Records += len(page.Records)
		res.Cursor = page.NextCursor

		if !page.More {
			logger.Debug("stream %s: done after %d pages", req.Stream, res.Pages)
			return res, nil
		}
	}
}
