// Package cli implements the tap-zendesk-sell command line.
package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
	"github.com/custodia-labs/tap-zendesk-sell/internal/core/ports/driven"
	"github.com/custodia-labs/tap-zendesk-sell/internal/core/ports/driving"
	"github.com/custodia-labs/tap-zendesk-sell/internal/logger"
)

// Name is the tap name reported by --about.
const Name = "tap-zendesk-sell"

// version is set at build time.
var version = "dev"

// TapParams is what a TapFactory needs to assemble a tap.
type TapParams struct {
	// Config is the loaded, validated configuration.
	Config *domain.Config

	// State is the --state document, empty when none was given.
	State domain.State

	// StateDB is the --state-db path; when set it replaces State as the
	// bookmark store.
	StateDB string

	// Output receives Singer messages.
	Output io.Writer

	// Metrics is optional.
	Metrics driven.Metrics
}

// TapFactory assembles a tap. The returned close function releases the
// connector and stores.
type TapFactory func(ctx context.Context, p TapParams) (driving.Tap, func() error, error)

// tapFactory builds the tap for each run.
var tapFactory TapFactory

// SetTapFactory sets the factory used by the tap commands.
func SetTapFactory(f TapFactory) {
	tapFactory = f
}

// SetVersion sets the version reported by the version command and --about.
func SetVersion(v string) {
	version = v
}

// flags holds the root command flags.
var flags struct {
	config      string
	state       string
	catalog     string
	stateDB     string
	metricsAddr string
	discover    bool
	about       bool
	verbose     bool
}

var rootCmd = &cobra.Command{
	Use:   Name,
	Short: "Singer tap for Zendesk Sell",
	Long: `Extracts Zendesk Sell CRM data as Singer SCHEMA, RECORD and STATE messages.

Without --discover or --about the tap syncs every stream, or the streams
selected in --catalog, writing messages to stdout. Logs go to stderr.

Examples:
  tap-zendesk-sell --config config.json --discover > catalog.json
  tap-zendesk-sell --config config.json --catalog catalog.json --state state.json`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flags.verbose)
	},
	RunE: runTap,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&flags.config, "config", "c", "", "config file (.json or .toml)")
	f.StringVarP(&flags.state, "state", "s", "", "state file from a previous run")
	f.StringVar(&flags.catalog, "catalog", "", "catalog file selecting streams")
	f.StringVar(&flags.stateDB, "state-db", "", "SQLite database holding bookmarks between runs")
	f.StringVar(&flags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	f.BoolVarP(&flags.discover, "discover", "d", false, "print the catalog and exit")
	f.BoolVar(&flags.about, "about", false, "print tap information and exit")

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
