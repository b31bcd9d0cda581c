package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tap-zendesk-sell/internal/adapters/driven/config/file"
	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
	"github.com/custodia-labs/tap-zendesk-sell/internal/core/ports/driving"
	"github.com/custodia-labs/tap-zendesk-sell/internal/logger"
)

// mockTap implements driving.Tap for testing.
type mockTap struct {
	mu       sync.Mutex
	streams  []domain.Stream
	report   *driving.SyncReport
	err      error
	checkErr error
	synced   []driving.SyncOptions
	checked  bool
}

func (m *mockTap) Check(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checked = true
	return m.checkErr
}

func (m *mockTap) Discover(context.Context) ([]domain.Stream, error) {
	return m.streams, m.err
}

func (m *mockTap) Sync(_ context.Context, opts driving.SyncOptions) (*driving.SyncReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.synced = append(m.synced, opts)
	report := m.report
	if report == nil {
		report = &driving.SyncReport{Device: domain.Device{ID: "dev-1"}}
	}
	return report, m.err
}

// cliHarness captures a run of the root command.
type cliHarness struct {
	tap    *mockTap
	params TapParams
	closed bool
	stdout bytes.Buffer
	logs   bytes.Buffer
}

// setupCLI installs a mock tap factory and resets flags.
func setupCLI(t *testing.T, tap *mockTap) *cliHarness {
	t.Helper()
	h := &cliHarness{tap: tap}
	t.Setenv(file.EnvAccessToken, "")
	t.Setenv(file.EnvDeviceUUID, "")

	oldFactory := tapFactory
	oldLog := logger.Output()
	tapFactory = func(_ context.Context, p TapParams) (driving.Tap, func() error, error) {
		h.params = p
		return tap, func() error { h.closed = true; return nil }, nil
	}
	logger.SetOutput(&h.logs)
	t.Cleanup(func() {
		tapFactory = oldFactory
		logger.SetOutput(oldLog)
		logger.SetVerbose(false)
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetIn(nil)
	})
	return h
}

// run executes the root command with args.
func (h *cliHarness) run(args ...string) error {
	flags = struct {
		config      string
		state       string
		catalog     string
		stateDB     string
		metricsAddr string
		discover    bool
		about       bool
		verbose     bool
	}{}
	initConfigOutput = ""
	h.stdout.Reset()
	rootCmd.SetOut(&h.stdout)
	rootCmd.SetErr(&h.logs)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

// writeFile writes content into a temp file and returns its path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}
