// =============================================================================
// Record Normalizer - Pipeline Module
// =============================================================================
//
// This module wires a record source to the row dispatcher and the dispatcher
// to a record sink, strictly one row at a time and in input order.
//
// PROCESSING PIPELINE:
//   1. Read the next record from the source (blocks on upstream)
//   2. Skip records the decoder could not read, reporting each one
//   3. Forward the header row unchanged
//   4. Transform each data row; drop and report rows that fail
//   5. Write the row to the sink (blocks on downstream)
//   6. Flush the sink once the source is exhausted
//
// ERROR HANDLING:
//   - Row failures and decode failures never stop the run
//   - Read errors, write errors and cancellation stop the run and are returned
//
// =============================================================================

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dispatchrabbi/truss-interview/internal/logging"
	"github.com/dispatchrabbi/truss-interview/internal/metrics"
	"github.com/dispatchrabbi/truss-interview/internal/normalizer"
	"github.com/dispatchrabbi/truss-interview/internal/types"
)

// =============================================================================
// STREAM INTERFACES
// =============================================================================

// Source yields decoded records in input order.
type Source interface {
	// Next advances to the next record. False means end of input or a
	// read error reported by Err.
	Next() bool

	// Record returns the current record.
	Record() types.Record

	// DecodeErr is non-nil when the current record could not be decoded.
	DecodeErr() error

	// Err returns the error that stopped the source, if any.
	Err() error
}

// Sink accepts output rows.
type Sink interface {
	Write(row []string) error
	Flush() error
}

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of one run.
type Result struct {
	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// RowsRead is the number of rows decoded, header included.
	RowsRead int

	// HeaderForwarded is true once the header row has been written.
	HeaderForwarded bool

	// RowsWritten is the number of rows written, header included.
	RowsWritten int

	// RowsDropped is the number of data rows dropped by a failing transform.
	RowsDropped int

	// DecodeErrors is the number of records the decoder skipped.
	DecodeErrors int

	// ProcessingTime is the wall time of the run.
	ProcessingTime time.Duration
}

// =============================================================================
// PIPELINE STRUCTURE
// =============================================================================

// Pipeline runs records from a Source through a Dispatcher into a Sink.
type Pipeline struct {
	transformer RowTransformer
	diagnostics Diagnostics
	logger      logging.Logger
	metrics     *metrics.Collector
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the structured logger. Default: a no-op logger.
func WithLogger(logger logging.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector. Default: a private collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(p *Pipeline) {
		p.metrics = collector
	}
}

// New creates a Pipeline.
//
// PARAMETERS:
//   - transformer: Applied to every data row (normally a *normalizer.Table).
//   - diagnostics: Receives one report per dropped row or skipped record.
//   - opts: Optional logger and metrics collector.
func New(transformer RowTransformer, diagnostics Diagnostics, opts ...Option) *Pipeline {
	p := &Pipeline{
		transformer: transformer,
		diagnostics: diagnostics,
		logger:      logging.NewNop(),
		metrics:     metrics.NewCollector(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run processes src into dst until src is exhausted, a stream error occurs,
// or ctx is cancelled. Rows already handed to dst are flushed in every case
// except a write failure.
func (p *Pipeline) Run(ctx context.Context, src Source, dst Sink) (result Result, err error) {
	startTime := time.Now()
	stats := &result.Stats

	defer func() {
		stats.ProcessingTime = time.Since(startTime)
		p.metrics.Finish(time.Now())
	}()

	dispatcher := NewDispatcher(p.transformer, p.diagnostics)

	for src.Next() {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("run cancelled", logging.Int("rows_read", stats.RowsRead))
			return result, p.finish(dst, err)
		}

		rec := src.Record()

		if decodeErr := src.DecodeErr(); decodeErr != nil {
			stats.DecodeErrors++
			p.metrics.DecodeError()
			p.diagnostics.DecodeFailed(rec.Line, decodeErr)
			continue
		}

		stats.RowsRead++
		p.metrics.RowRead()

		header := dispatcher.InHeader()
		rowStart := time.Now()
		row, err := dispatcher.Dispatch(rec)
		if !header {
			p.metrics.ObserveTransform(time.Since(rowStart))
		}

		if err != nil {
			stats.RowsDropped++
			p.metrics.RowDropped(dropReason(err))
			p.logger.Debug("row dropped",
				logging.Int("ordinal", rec.Ordinal),
				logging.Int("line", rec.Line),
				logging.Error(err),
			)
			continue
		}

		if err := dst.Write(row); err != nil {
			p.logger.Error("write failed", logging.Int("ordinal", rec.Ordinal), logging.Error(err))
			return result, fmt.Errorf("failed to write output: %w", err)
		}

		stats.RowsWritten++
		p.metrics.RowWritten()
		if header {
			stats.HeaderForwarded = true
		}
	}

	if err := src.Err(); err != nil {
		p.logger.Error("read failed", logging.Int("rows_read", stats.RowsRead), logging.Error(err))
		return result, p.finish(dst, fmt.Errorf("failed to read input: %w", err))
	}

	if err := p.finish(dst, nil); err != nil {
		return result, err
	}

	p.logger.Info("run complete",
		logging.Int("rows_read", stats.RowsRead),
		logging.Int("rows_written", stats.RowsWritten),
		logging.Int("rows_dropped", stats.RowsDropped),
		logging.Int("decode_errors", stats.DecodeErrors),
		logging.Duration("elapsed", time.Since(startTime)),
	)

	return result, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// finish flushes dst and joins any flush failure onto cause.
func (p *Pipeline) finish(dst Sink, cause error) error {
	if err := dst.Flush(); err != nil {
		p.logger.Error("flush failed", logging.Error(err))
		return errors.Join(cause, err)
	}
	return cause
}

// dropReason labels a row failure for metrics.
func dropReason(err error) string {
	var widthErr *normalizer.WidthError
	if errors.As(err, &widthErr) {
		return "width"
	}
	var parseErr *normalizer.ParseError
	if errors.As(err, &parseErr) {
		return "parse"
	}
	return "other"
}
