// =============================================================================
// Record Normalizer - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which checks a configuration
// file without reading any input.
//
// COMMAND USAGE:
//   normalizer validate --config ./normalizer.yaml
//
// CHECKS:
//   1. The file parses and every value is in range
//   2. The timestamp layout round-trips
//   3. The delimiter and encoding names resolve
//   4. The column transform table builds
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/dispatchrabbi/truss-interview/internal/config"
	"github.com/dispatchrabbi/truss-interview/internal/csvparser"
	"github.com/dispatchrabbi/truss-interview/internal/normalizer"
	"github.com/spf13/cobra"
)

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration without processing any input",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return validateConfig(cfgFile, cmd.OutOrStdout())
	},
}

// validateConfig loads the configuration at path and prints the effective
// settings to w.
func validateConfig(path string, w io.Writer) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	if _, err := csvparser.NewStreamingParser(strings.NewReader(""), cfg.CSV); err != nil {
		return fmt.Errorf("invalid csv settings: %w", err)
	}

	table, err := normalizer.NewTable(normalizer.Options{TimestampLayout: cfg.Timestamp.Layout})
	if err != nil {
		return fmt.Errorf("failed to build column table: %w", err)
	}

	source := path
	if source == "" {
		source = "(defaults)"
	}

	fmt.Fprintf(w, "Configuration OK: %s\n", source)
	fmt.Fprintf(w, "  Timestamp layout: %s\n", cfg.Timestamp.Layout)
	fmt.Fprintf(w, "  Delimiter:        %q\n", cfg.CSV.Delimiter)
	fmt.Fprintf(w, "  Encoding:         %s\n", cfg.CSV.Encoding)
	fmt.Fprintf(w, "  Columns:\n")
	for i := 0; i < normalizer.Width; i++ {
		fmt.Fprintf(w, "    %d %s\n", i, table.Kind(i))
	}
	return nil
}

// init registers the validate command with the root command.
func init() {
	rootCmd.AddCommand(validateCmd)
}
