// =============================================================================
// Record Normalizer - Main Entry Point
// =============================================================================
//
// USAGE:
//   normalizer [flags] < input.csv > output.csv
//   normalizer validate     - Check a configuration file
//   normalizer version      - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : the normalizer core, stream adapters and ambient stack
//   - pkg/       : input and output file helpers
//
// =============================================================================

package main

import (
	"github.com/dispatchrabbi/truss-interview/cmd"
)

func main() {
	cmd.Execute()
}
