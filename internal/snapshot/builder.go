package snapshot

import (
	"fmt"

	"github.com/garyjia/sheet-snapshot/internal/report"
	"github.com/garyjia/sheet-snapshot/internal/spreadsheet"
)

// maxRowErrors bounds how many per-row errors a build keeps for logging.
const maxRowErrors = 20

// RowError describes a row whose fields did not decode as expected.
type RowError struct {
	Row int // 1-based sheet row
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// BuildResult is the ordered record sequence of one build.
type BuildResult[T any] struct {
	Records       []T
	MalformedRows int
	RowErrors     []RowError // first maxRowErrors only
}

// Build maps every row from startRow (1-based, inclusive) onward, keeping
// sheet order. Blank rows are mapped like any other row. A malformed row is
// counted and still emitted; it never aborts the build.
func Build[T any](grid spreadsheet.Grid, startRow int, mapRow report.RowMapper[T]) *BuildResult[T] {
	if startRow < 1 {
		startRow = 1
	}

	var rows spreadsheet.Grid
	if startRow-1 < len(grid) {
		rows = grid[startRow-1:]
	}

	result := &BuildResult[T]{Records: make([]T, 0, len(rows))}
	for i, row := range rows {
		rec, err := mapRow(row)
		if err != nil {
			result.MalformedRows++
			if len(result.RowErrors) < maxRowErrors {
				result.RowErrors = append(result.RowErrors, RowError{Row: startRow + i, Err: err})
			}
		}
		result.Records = append(result.Records, rec)
	}
	return result
}

// BuildFromSource reads the first sheet at path and builds it. A missing or
// unreadable source returns an error wrapping ErrSourceUnavailable.
func BuildFromSource[T any](reader spreadsheet.Reader, path string, startRow int, mapRow report.RowMapper[T]) (*BuildResult[T], error) {
	grid, err := reader.ReadFirstSheet(path)
	if err != nil {
		return nil, err
	}
	return Build(grid, startRow, mapRow), nil
}
