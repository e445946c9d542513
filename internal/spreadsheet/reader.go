package spreadsheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Row is one sheet row. Trailing empty cells may be absent.
type Row []string

// Cell returns the raw value at the 0-based column index, or "" when the
// row is shorter than that.
func (r Row) Cell(col int) string {
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// IsBlank reports whether every cell in the row is empty.
func (r Row) IsBlank() bool {
	for _, v := range r {
		if v != "" {
			return false
		}
	}
	return true
}

// Grid holds the rows of a sheet; index i is 1-based row i+1.
type Grid []Row

// Reader loads the first sheet of a workbook as a grid of raw cell values.
type Reader interface {
	ReadFirstSheet(path string) (Grid, error)
}

// ExcelReader reads xlsx workbooks with excelize.
type ExcelReader struct {
	logger *zap.Logger
}

// NewExcelReader creates a new ExcelReader
func NewExcelReader(logger *zap.Logger) *ExcelReader {
	return &ExcelReader{logger: logger}
}

// ReadFirstSheet returns every row of the first sheet, header rows included.
// Cell values are raw: date cells come back as their numeric serial rather
// than the display format of the workbook.
func (r *ExcelReader) ReadFirstSheet(path string) (Grid, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %v", path, ErrSourceUnavailable, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			r.logger.Warn("Failed to close workbook", zap.String("path", path), zap.Error(cerr))
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s has no sheets: %w", path, ErrSourceUnavailable)
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q of %s: %w: %v", sheet, path, ErrSourceUnavailable, err)
	}

	grid := make(Grid, len(rows))
	for i, row := range rows {
		grid[i] = Row(row)
	}

	r.logger.Debug("Workbook loaded",
		zap.String("path", path),
		zap.String("sheet", sheet),
		zap.Int("rows", len(grid)))

	return grid, nil
}
