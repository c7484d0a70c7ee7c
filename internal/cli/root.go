// Package cli implements the bindery command line: small operational
// commands for inspecting and exercising a configured set of binds.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/bindery"
	"github.com/roach88/bindery/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // "json" | "text"
	Verbose    bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the bindery CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "bindery",
		Short: "bindery - multi-backend database bind manager",
		Long:  "Inspect and exercise the binds of a bindery configuration: list them, ping them, reflect their tables.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "bindery.yaml", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	cmd.AddCommand(NewBindsCommand(opts))
	cmd.AddCommand(NewPingCommand(opts))
	cmd.AddCommand(NewReflectCommand(opts))

	return cmd
}

// openDB loads the config file and constructs a DB from it.
func (o *RootOptions) openDB() (*bindery.DB, error) {
	opt, err := config.FromFile(o.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return bindery.New(bindery.WithConfig(opt)), nil
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
