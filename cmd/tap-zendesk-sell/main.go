// Command tap-zendesk-sell is a Singer tap for the Zendesk Sell CRM.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/tap-zendesk-sell/internal/adapters/driven/singer"
	"github.com/custodia-labs/tap-zendesk-sell/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/tap-zendesk-sell/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/tap-zendesk-sell/internal/adapters/driving/cli"
	"github.com/custodia-labs/tap-zendesk-sell/internal/connectors/zendesk"
	"github.com/custodia-labs/tap-zendesk-sell/internal/core/ports/driven"
	"github.com/custodia-labs/tap-zendesk-sell/internal/core/ports/driving"
	"github.com/custodia-labs/tap-zendesk-sell/internal/core/services"
	"github.com/custodia-labs/tap-zendesk-sell/internal/logger"
)

// version is set via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetTapFactory(buildTap)

	if err := cli.Execute(ctx); err != nil {
		logger.Error("%v", err)
		stop()
		os.Exit(1)
	}
}

// buildTap wires the Zendesk connector, the bookmark store and the Singer
// writer into a tap service.
func buildTap(ctx context.Context, p cli.TapParams) (driving.Tap, func() error, error) {
	store, closeStore, err := openStateStore(p)
	if err != nil {
		return nil, nil, err
	}

	conn := zendesk.New(ctx, zendesk.ParseConfig(p.Config))
	writer := singer.NewWriter(p.Output)

	retry := services.DefaultRetryConfig()
	if p.Config.MaxRetries > 0 {
		retry.MaxAttempts = p.Config.MaxRetries
	}

	tap := services.NewTapService(conn, store, writer, services.TapOptions{
		Retry:              retry,
		MaxParallelStreams: p.Config.MaxParallelStreams,
		Metrics:            p.Metrics,
	})

	closeFn := func() error {
		return errors.Join(writer.Close(), conn.Close(), closeStore())
	}
	return tap, closeFn, nil
}

// openStateStore returns the SQLite store when --state-db is set and an
// in-memory store seeded from --state otherwise.
func openStateStore(p cli.TapParams) (driven.StateStore, func() error, error) {
	if p.StateDB != "" {
		store, err := sqlite.NewStore(p.StateDB)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("Using state database %s", store.Path())
		return store, store.Close, nil
	}
	return memory.NewStateStoreFrom(p.State), func() error { return nil }, nil
}
