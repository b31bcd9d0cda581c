package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tap-zendesk-sell/internal/adapters/driven/config/file"
	"github.com/custodia-labs/tap-zendesk-sell/internal/adapters/driven/metrics"
	"github.com/custodia-labs/tap-zendesk-sell/internal/adapters/driven/singer"
	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
	"github.com/custodia-labs/tap-zendesk-sell/internal/core/ports/driving"
	"github.com/custodia-labs/tap-zendesk-sell/internal/logger"
)

// runTap handles --about, --discover and the default sync mode.
func runTap(cmd *cobra.Command, _ []string) error {
	if flags.about {
		return singer.NewAbout(Name, version).Write(cmd.OutOrStdout())
	}

	ctx := commandContext(cmd)
	s, err := openSession(ctx, cmd, !flags.discover)
	if err != nil {
		return err
	}
	defer s.close()

	if flags.discover {
		return runDiscover(ctx, cmd, s)
	}
	return runSync(ctx, s)
}

// session is one assembled tap with the config it was built from.
type session struct {
	tap     driving.Tap
	cfg     *domain.Config
	cleanup []func()
}

func (s *session) close() {
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		s.cleanup[i]()
	}
}

// openSession loads configuration and, when withState is set, the
// --state document, then builds the tap.
func openSession(ctx context.Context, cmd *cobra.Command, withState bool) (*session, error) {
	if tapFactory == nil {
		return nil, errors.New("tap not configured")
	}
	if flags.config == "" {
		return nil, fmt.Errorf("%w: --config is required", domain.ErrConfigInvalid)
	}

	store, err := file.NewConfigStore(flags.config)
	if err != nil {
		return nil, err
	}
	cfg, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	params := TapParams{
		Config:  cfg,
		StateDB: flags.stateDB,
		Output:  cmd.OutOrStdout(),
	}
	if withState && flags.state != "" {
		if flags.stateDB != "" {
			logger.Warn("--state is ignored when --state-db is set")
		} else if params.State, err = singer.LoadStateFile(flags.state); err != nil {
			return nil, err
		}
	}

	s := &session{cfg: cfg}
	if flags.metricsAddr != "" {
		prom := metrics.NewPrometheus()
		srv, err := metrics.Serve(flags.metricsAddr, prom.Registry())
		if err != nil {
			return nil, fmt.Errorf("metrics server: %w", err)
		}
		params.Metrics = prom
		s.cleanup = append(s.cleanup, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		})
	}

	tap, closeTap, err := tapFactory(ctx, params)
	if err != nil {
		s.close()
		return nil, err
	}
	s.tap = tap
	s.cleanup = append(s.cleanup, func() {
		if err := closeTap(); err != nil {
			logger.Warn("close: %v", err)
		}
	})
	return s, nil
}

func runDiscover(ctx context.Context, cmd *cobra.Command, s *session) error {
	streams, err := s.tap.Discover(ctx)
	if err != nil {
		return err
	}
	logger.Info("Discovered %d streams", len(streams))
	return singer.NewCatalog(streams).Write(cmd.OutOrStdout())
}

func runSync(ctx context.Context, s *session) error {
	selected, err := selectedStreams(s.cfg)
	if err != nil {
		return err
	}

	start := time.Now()
	report, err := s.tap.Sync(ctx, driving.SyncOptions{
		Streams:          selected,
		ConfiguredDevice: domain.DeviceID(s.cfg.DeviceUUID),
	})
	if report != nil {
		logReport(report, time.Since(start))
	}
	return err
}

// selectedStreams resolves the selection: the catalog when given, the
// config allow-list otherwise, every stream when both are absent.
func selectedStreams(cfg *domain.Config) ([]string, error) {
	if flags.catalog == "" {
		return cfg.Streams, nil
	}
	catalog, err := singer.LoadCatalogFile(flags.catalog)
	if err != nil {
		return nil, err
	}
	selected := catalog.Selected()
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: catalog selects no streams", domain.ErrInvalidInput)
	}
	return selected, nil
}

func logReport(report *driving.SyncReport, elapsed time.Duration) {
	logger.Section("Sync summary")
	failed := 0
	for _, r := range report.Streams {
		if r.Err != nil {
			failed++
			logger.Error("%s: %v", r.Stream, r.Err)
			continue
		}
		logger.Info("%s: %d records in %d pages", r.Stream, r.Records, r.Pages)
	}
	logger.Info("Device %s: %d streams, %d failed, %s", report.Device.ID, len(report.Streams), failed,
		elapsed.Round(time.Millisecond))
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
