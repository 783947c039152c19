package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"go-inventory-checklist/pkg/config"
	"go-inventory-checklist/pkg/database"
	"go-inventory-checklist/pkg/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// LoadConfig and OpenDB can be replaced in tests.
	LoadConfig func() (*config.Config, error)
	OpenDB     func(cfg *config.Config) (*gorm.DB, error)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of opsctl.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWith(&RootOptions{})
}

// NewRootCommandWith builds the command tree around opts, filling in the
// default config loader and database opener when they are nil.
func NewRootCommandWith(opts *RootOptions) *cobra.Command {
	if opts.LoadConfig == nil {
		opts.LoadConfig = config.Load
	}
	if opts.OpenDB == nil {
		opts.OpenDB = openDB
	}

	cmd := &cobra.Command{
		Use:   "opsctl",
		Short: "opsctl - inventory and checklist operations",
		Long:  "Command line client for the inventory and checklist API: sign in, browse stock, follow live changes.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Add subcommands
	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewProductsCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewDevResetCommand(opts))
	cmd.AddCommand(NewAdminCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
	return database.ConnectDB(cfg.DB, log, false)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
