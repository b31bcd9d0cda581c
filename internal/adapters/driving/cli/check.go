package cli

import (
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the configured access token",
	Long: `Makes one authenticated request to Zendesk Sell and reports whether the
configured access token is accepted.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&flags.config, "config", "c", "", "config file (.json or .toml)")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	s, err := openSession(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.tap.Check(ctx); err != nil {
		return err
	}
	cmd.PrintErrln("Access token accepted.")
	return nil
}
