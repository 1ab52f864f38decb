// =============================================================================
// Record Normalizer - Version Command
// =============================================================================
//
// COMMAND USAGE:
//   normalizer version [--short]
//
// OUTPUT:
//   Record Normalizer
//   Version:    1.2.0
//   Commit:     3f2c1ab
//   Build Date: 2026-10-19
//   Go Version: go1.24.11
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// These variables are set at build time using ldflags:
//   go build -ldflags "-X 'github.com/dispatchrabbi/truss-interview/cmd.Version=1.2.0'"

// Version is the application version. "dev" falls back to the module
// version recorded by the Go toolchain, when there is one.
var Version = "dev"

// Commit is the VCS revision the binary was built from.
var Commit = "unknown"

// BuildDate is the date the application was built.
var BuildDate = "unknown"

// shortVersion prints only the version string.
var shortVersion bool

// versionCmd represents the 'version' command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		if shortVersion {
			fmt.Fprintln(w, resolvedVersion())
			return
		}
		fmt.Fprintln(w, "Record Normalizer")
		fmt.Fprintf(w, "Version:    %s\n", resolvedVersion())
		fmt.Fprintf(w, "Commit:     %s\n", Commit)
		fmt.Fprintf(w, "Build Date: %s\n", BuildDate)
		fmt.Fprintf(w, "Go Version: %s\n", runtime.Version())
	},
}

func resolvedVersion() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

// init registers the version command with the root command.
func init() {
	versionCmd.Flags().BoolVar(&shortVersion, "short", false, "Print the version string only")
	rootCmd.AddCommand(versionCmd)
}
