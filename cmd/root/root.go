// Package root contains the root command for the application
package root

import (
	"fmt"

	"fjacquet/purchase-ledger/internal/config"
	"fjacquet/purchase-ledger/internal/container"
	"fjacquet/purchase-ledger/internal/logging"

	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	Input    string
	Output   string
	Config   string
	Provider string
}

var (
	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "purchase-ledger",
		Short: "A CLI tool to import marketplace purchase exports into a local ledger.",
		Long: `purchase-ledger imports order exports from Amazon, Allegro, AliExpress, eBay,
Temu and OLX, normalizes them into one purchase model and reconciles them with
the purchases already stored, so the same file can be imported again safely.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadEnv(nil)
			cfg, err := config.InitializeConfigFile(SharedFlags.Config)
			if err != nil {
				return err
			}
			c, err := container.NewContainer(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			SetContainer(c)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if appContainer == nil {
				return
			}
			if err := appContainer.Close(); err != nil {
				appContainer.GetLogger().WithError(err).Warn("Failed to close container")
			}
			appContainer = nil
		},
	}

	// SharedFlags holds the persistent flags accessible to all commands
	SharedFlags = CommonFlags{}

	appContainer *container.Container
)

// Init initializes the root command and all flags. Calling it again is a
// no-op.
func Init() {
	if Cmd.PersistentFlags().Lookup("input") != nil {
		return
	}
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Input, "input", "i", "", "Input file or directory")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Output, "output", "o", "", "Output file or directory")
	Cmd.PersistentFlags().StringVar(&SharedFlags.Config, "config", "", "Config file (default: config.yaml in $HOME/.purchase-ledger, .purchase-ledger or .)")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Provider, "provider", "p", "", "Provider id (detected from the file when empty)")
}

// GetContainer returns the container built for the running command.
func GetContainer() *container.Container {
	return appContainer
}

// SetContainer replaces the container used by sub-commands.
func SetContainer(c *container.Container) {
	appContainer = c
}

// GetLogger returns the container's logger, or a default one before the
// container exists.
func GetLogger() logging.Logger {
	if appContainer == nil {
		return logging.OrDefault(nil)
	}
	return appContainer.GetLogger()
}
