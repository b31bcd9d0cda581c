package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/tap-zendesk-sell/internal/adapters/driven/config/file"
	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
)

var initConfigOutput string

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Create a config file interactively",
	Long: `Prompts for the Zendesk Sell access token (without echo) and an optional
device UUID, then writes a TOML config file readable by --config.

The token is stored with 0600 permissions.`,
	RunE: runInitConfig,
}

func init() {
	initConfigCmd.Flags().StringVarP(&initConfigOutput, "output", "o", "",
		"config file to write (default ~/.tap-zendesk-sell/config.toml)")
	rootCmd.AddCommand(initConfigCmd)
}

// readSecret reads a secret from the terminal. Replaced in tests.
var readSecret = readPassword

func runInitConfig(cmd *cobra.Command, _ []string) error {
	store, err := file.NewConfigStore(initConfigOutput)
	if err != nil {
		return err
	}

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Print("Zendesk Sell access token: ")
	token := strings.TrimSpace(readSecret(reader))
	cmd.Println()
	if token == "" {
		return fmt.Errorf("%w: access token is required", domain.ErrConfigInvalid)
	}

	cmd.Print("Device UUID (leave empty to generate on first sync): ")
	device := readLine(reader)

	cfg := &domain.Config{AccessToken: token, DeviceUUID: device}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := store.Save(cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	cmd.Printf("Config written to %s (token %s)\n", store.Path(), maskToken(token))
	return nil
}

func readLine(reader *bufio.Reader) string {
	input, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return ""
	}
	return strings.TrimSpace(input)
}

func readPassword(reader *bufio.Reader) string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	return readLine(reader)
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
