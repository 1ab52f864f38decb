// =============================================================================
// Record Normalizer - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Run without a
// subcommand, the root command normalizes one input stream into one output
// stream.
//
// COBRA CLI STRUCTURE:
//   rootCmd (normalizer)
//   ├── validateCmd (normalizer validate)
//   └── versionCmd (normalizer version)
//
// STREAMS:
//   stdout : normalized rows, and nothing else
//   stderr : one diagnostic line per dropped row, plus structured logs
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dispatchrabbi/truss-interview/internal/config"
	"github.com/dispatchrabbi/truss-interview/internal/csvparser"
	"github.com/dispatchrabbi/truss-interview/internal/csvwriter"
	"github.com/dispatchrabbi/truss-interview/internal/logging"
	"github.com/dispatchrabbi/truss-interview/internal/metrics"
	"github.com/dispatchrabbi/truss-interview/internal/normalizer"
	"github.com/dispatchrabbi/truss-interview/internal/pipeline"
	"github.com/dispatchrabbi/truss-interview/internal/xlsxparser"
	"github.com/dispatchrabbi/truss-interview/pkg/utils"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file. Empty means defaults.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// inputPath is the input file, or "-" for stdin.
var inputPath string

// outputPath is the output file, or "-" for stdout.
var outputPath string

// metricsFile overrides metrics_file from the configuration.
var metricsFile string

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "normalizer",
	Short: "Normalize a fixed-schema CSV export",
	Long: `normalizer reads a CSV export with a fixed eight-column layout, normalizes
every data row and writes the result as CSV.

  Timestamp      converted from US/Pacific to US/Eastern, written as RFC 3339
  ZIP            left-padded with zeros to five digits
  FullName       upper-cased
  FooDuration    HH:MM:SS.fff converted to seconds
  BarDuration    HH:MM:SS.fff converted to seconds
  TotalDuration  FooDuration + BarDuration
  Address, Notes passed through

The header row is copied unchanged. A row that cannot be normalized is dropped
and reported on stderr; processing continues with the next row.

Example Usage:
  normalizer < sample.csv > output.csv
  normalizer --input export.xlsx --output output.csv
  normalizer --config ./normalizer.yaml --metrics-file /var/lib/node_exporter/normalizer.prom`,

	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return normalize(ctx, runOptions{
			ConfigFile:  cfgFile,
			Verbose:     verbose,
			Input:       inputPath,
			Output:      outputPath,
			MetricsFile: metricsFile,
		}, streams{
			In:  cmd.InOrStdin(),
			Out: cmd.OutOrStdout(),
			Err: cmd.ErrOrStderr(),
		})
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// RUN
// =============================================================================

// runOptions are the command-line settings of one run.
type runOptions struct {
	ConfigFile  string
	Verbose     bool
	Input       string
	Output      string
	MetricsFile string
}

// streams are the process streams of one run.
type streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// recordSource is a pipeline source that holds resources.
type recordSource interface {
	pipeline.Source
	Close() error
}

// normalize performs one run.
//
// PARAMETERS:
//   - ctx: Cancelled on SIGINT or SIGTERM.
//   - opts: The command-line settings.
//   - std: Where rows are read from and written to when no file is named.
//
// RETURNS:
//   - An error if the run could not start or a stream failed. Dropped rows are
//     not errors.
func normalize(ctx context.Context, opts runOptions, std streams) error {
	// ==========================================================================
	// STEP 1: Load configuration
	// ==========================================================================
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return err
	}
	if opts.MetricsFile != "" {
		cfg.MetricsFile = opts.MetricsFile
	}

	// ==========================================================================
	// STEP 2: Set up logging
	// ==========================================================================
	level := cfg.Log.Level
	if opts.Verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Config{
		Level:  level,
		Format: cfg.Log.Format,
		Output: std.Err,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	logger = logger.With(logging.String("run_id", uuid.New().String()))
	logger.Debug("configuration loaded",
		logging.String("config_file", opts.ConfigFile),
		logging.String("timestamp_layout", cfg.Timestamp.Layout),
		logging.String("delimiter", cfg.CSV.Delimiter),
		logging.String("encoding", cfg.CSV.Encoding),
	)

	// ==========================================================================
	// STEP 3: Build the column transform table
	// ==========================================================================
	table, err := normalizer.NewTable(normalizer.Options{TimestampLayout: cfg.Timestamp.Layout})
	if err != nil {
		return fmt.Errorf("failed to build column table: %w", err)
	}

	delimiter, err := csvparser.Delimiter(cfg.CSV.Delimiter)
	if err != nil {
		return err
	}

	// ==========================================================================
	// STEP 4: Open the streams
	// ==========================================================================
	src, err := openSource(opts.Input, cfg, std.In)
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := utils.CreateOutput(opts.Output, std.Out)
	if err != nil {
		return err
	}
	defer out.Abort()

	// ==========================================================================
	// STEP 5: Run the pipeline
	// ==========================================================================
	collector := metrics.NewCollector()
	p := pipeline.New(table,
		pipeline.NewWriterDiagnostics(std.Err),
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(collector),
	)

	result, runErr := p.Run(ctx, src, csvwriter.New(out, csvwriter.Options{Delimiter: delimiter}))

	// Metrics are written for failed runs too.
	if cfg.MetricsFile != "" {
		if err := collector.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("metrics not written", logging.String("path", cfg.MetricsFile), logging.Error(err))
		}
	}

	if runErr != nil {
		return runErr
	}

	if err := out.Commit(); err != nil {
		return err
	}

	logger.Debug("output written",
		logging.String("output", opts.Output),
		logging.Int("rows_written", result.Stats.RowsWritten),
		logging.Duration("elapsed", result.Stats.ProcessingTime),
	)
	return nil
}

// openSource picks the decoder for path: XLSX by extension, CSV otherwise.
func openSource(path string, cfg *config.Config, stdin io.Reader) (recordSource, error) {
	if !utils.IsStdio(path) && utils.IsXLSX(path) {
		reader, err := xlsxparser.Open(path, cfg.XLSX)
		if err != nil {
			return nil, err
		}
		return reader, nil
	}

	in, err := utils.OpenInput(path, stdin)
	if err != nil {
		return nil, err
	}

	parser, err := csvparser.NewStreamingParser(in, cfg.CSV)
	if err != nil {
		in.Close()
		return nil, err
	}
	return &csvSource{StreamingParser: parser, closer: in}, nil
}

// csvSource ties a parser to the file it reads.
type csvSource struct {
	*csvparser.StreamingParser
	closer io.Closer
}

func (s *csvSource) Close() error {
	return s.closer.Close()
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init is called automatically when the package is loaded.
// It sets up the global flags.
func init() {
	// --config flag: Allows the user to specify a configuration file.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"Path to a YAML configuration file (built-in defaults when omitted)",
	)

	// --verbose flag: Enables debug logging on stderr.
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)

	rootCmd.Flags().StringVarP(&inputPath, "input", "i", utils.StdioPath,
		"Input file; '-' reads stdin, a .xlsx file is read as a workbook")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", utils.StdioPath,
		"Output file; '-' writes stdout")
	rootCmd.Flags().StringVar(&metricsFile, "metrics-file", "",
		"Write Prometheus metrics to this file when the run ends")
}
