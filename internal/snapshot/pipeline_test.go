package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/sheet-snapshot/internal/report"
	"github.com/garyjia/sheet-snapshot/internal/spreadsheet"
)

func writeBlocosWorkbook(t *testing.T, path string) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	rows := [][]interface{}{
		{"Relatorio de blocos"},
		{"Data", "Material", "Chapas", "M2", "Custo", "Venda"},
		{45000, "Granito Preto", 12, 48.75, 1500, 2999.9},
		{45001, "Marmore <Branco>", 3, 10.5, 400, 820},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
}

func TestPipeline_Refresh(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "BLOCOS.xlsx")
	output := filepath.Join(dir, "responses.json")
	writeBlocosWorkbook(t, source)

	logger := zap.NewNop()
	pipeline := NewPipeline(
		report.Blocos(source, output, 3),
		spreadsheet.NewExcelReader(logger),
		NewPublisher(logger),
		logger,
	)

	result, err := pipeline.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.NameBlocos, result.Report)
	assert.Equal(t, 2, result.Records)
	assert.Zero(t, result.MalformedRows)

	first, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"data":"2023-03-15","material":"Granito Preto","chapasVendidas":12,"m2Vendido":48.75,"custo":1500,"venda":2999.9},
		{"data":"2023-03-16","material":"Marmore <Branco>","chapasVendidas":3,"m2Vendido":10.5,"custo":400,"venda":820}
	]`, string(first))

	t.Run("unchanged source gives byte-identical output", func(t *testing.T) {
		_, err := pipeline.Refresh(context.Background())
		require.NoError(t, err)

		second, err := os.ReadFile(output)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("info describes the report", func(t *testing.T) {
		info := pipeline.Info()
		assert.Equal(t, "BLOCOS", info.Title)
		assert.Equal(t, output, info.OutputPath)
		assert.Equal(t, 3, info.StartRow)
	})
}

func TestPipeline_SourceUnavailableKeepsSnapshot(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "output.json")
	logger := zap.NewNop()

	t.Run("no snapshot is created", func(t *testing.T) {
		pipeline := NewPipeline(
			report.Ledger(filepath.Join(dir, "missing.xlsx"), output, 3),
			spreadsheet.NewExcelReader(logger),
			NewPublisher(logger),
			logger,
		)

		_, err := pipeline.Refresh(context.Background())
		assert.True(t, errors.Is(err, ErrSourceUnavailable))
		assert.NoFileExists(t, output)
	})

	t.Run("prior snapshot is unchanged", func(t *testing.T) {
		prior := []byte("[\n  {\"cliente\": \"old\"}\n]\n")
		require.NoError(t, os.WriteFile(output, prior, 0644))

		pipeline := NewPipeline(
			report.Ledger("missing.xlsx", output, 3),
			&gridReader{err: spreadsheet.ErrSourceUnavailable},
			NewPublisher(logger),
			logger,
		)

		_, err := pipeline.Refresh(context.Background())
		assert.True(t, errors.Is(err, ErrSourceUnavailable))

		after, err := os.ReadFile(output)
		require.NoError(t, err)
		assert.Equal(t, prior, after)
	})
}

func TestPipeline_CancelledContextDoesNotPublish(t *testing.T) {
	output := filepath.Join(t.TempDir(), "output.json")
	reader := &gridReader{grid: fiveRowLedger()}
	logger := zap.NewNop()
	pipeline := NewPipeline(report.Ledger("in.xlsx", output, 3), reader, NewPublisher(logger), logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.Refresh(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, reader.calls)
	assert.NoFileExists(t, output)
}

func TestPipeline_RecoversFromPanic(t *testing.T) {
	logger := zap.NewNop()
	def := report.Definition[int]{
		Name:       "broken",
		OutputPath: filepath.Join(t.TempDir(), "out.json"),
		StartRow:   1,
		Map: func(spreadsheet.Row) (int, error) {
			panic("bad row")
		},
	}
	pipeline := NewPipeline(def, &gridReader{grid: spreadsheet.Grid{{"x"}}}, NewPublisher(logger), logger)

	result, err := pipeline.Refresh(context.Background())
	assert.Nil(t, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}
