package snapshot

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/sheet-snapshot/internal/report"
	"github.com/garyjia/sheet-snapshot/internal/spreadsheet"
)

// Info describes a report independently of its record type.
type Info struct {
	Name       string
	Title      string
	SourcePath string
	OutputPath string
	StartRow   int
}

// RunResult summarizes one successful build-and-publish.
type RunResult struct {
	Report        string
	OutputPath    string
	Records       int
	MalformedRows int
	Bytes         int
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Refresher rebuilds and republishes one report's snapshot.
type Refresher interface {
	Name() string
	Info() Info
	Refresh(ctx context.Context) (*RunResult, error)
}

// Pipeline is the spreadsheet-to-snapshot pipeline for one report.
type Pipeline[T any] struct {
	def       report.Definition[T]
	reader    spreadsheet.Reader
	publisher *Publisher
	logger    *zap.Logger
}

// NewPipeline creates a new Pipeline
func NewPipeline[T any](def report.Definition[T], reader spreadsheet.Reader, publisher *Publisher, logger *zap.Logger) *Pipeline[T] {
	return &Pipeline[T]{
		def:       def,
		reader:    reader,
		publisher: publisher,
		logger:    logger.With(zap.String("report", def.Name)),
	}
}

// Name returns the report name
func (p *Pipeline[T]) Name() string {
	return p.def.Name
}

// Info returns the report description
func (p *Pipeline[T]) Info() Info {
	return Info{
		Name:       p.def.Name,
		Title:      p.def.Title,
		SourcePath: p.def.SourcePath,
		OutputPath: p.def.OutputPath,
		StartRow:   p.def.StartRow,
	}
}

// Refresh reads the source spreadsheet, maps it and publishes the snapshot.
// Any failure leaves the previous snapshot in place. Panics from the
// spreadsheet library are converted into errors.
func (p *Pipeline[T]) Refresh(ctx context.Context) (result *RunResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("refresh %s panicked: %v", p.def.Name, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	started := time.Now()
	p.logger.Info("Starting snapshot refresh",
		zap.String("source", p.def.SourcePath),
		zap.Int("start_row", p.def.StartRow))

	built, err := BuildFromSource(p.reader, p.def.SourcePath, p.def.StartRow, p.def.Map)
	if err != nil {
		return nil, err
	}

	if built.MalformedRows > 0 {
		p.logger.Warn("Rows with malformed fields",
			zap.Int("malformed_rows", built.MalformedRows),
			zap.Int("records", len(built.Records)))
		for _, rowErr := range built.RowErrors {
			p.logger.Debug("Malformed row", zap.Int("row", rowErr.Row), zap.Error(rowErr.Err))
		}
	}

	// Build is not interruptible; a cancelled run must still not publish.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	size, err := p.publisher.Publish(p.def.OutputPath, built.Records)
	if err != nil {
		return nil, err
	}

	result = &RunResult{
		Report:        p.def.Name,
		OutputPath:    p.def.OutputPath,
		Records:       len(built.Records),
		MalformedRows: built.MalformedRows,
		Bytes:         size,
		StartedAt:     started,
		FinishedAt:    time.Now(),
	}

	p.logger.Info("Snapshot refreshed",
		zap.String("output", p.def.OutputPath),
		zap.Int("records", result.Records),
		zap.Duration("duration", result.FinishedAt.Sub(started)))

	return result, nil
}
