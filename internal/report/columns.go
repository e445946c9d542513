package report

import (
	"math"
	"strconv"
	"strings"

	"github.com/garyjia/sheet-snapshot/internal/spreadsheet"
)

// Text returns the cell as a string, or nil when the cell is empty.
func Text(row spreadsheet.Row, col int) interface{} {
	v := row.Cell(col)
	if v == "" {
		return nil
	}
	return v
}

// Number returns the cell as float64 when it parses as a finite number,
// nil when empty, and the raw string otherwise. Values are not validated.
func Number(row spreadsheet.Row, col int) interface{} {
	v := row.Cell(col)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return v
	}
	return f
}

// Date decodes the cell as a date serial. A malformed cell yields "" and
// the decoding error.
func Date(row spreadsheet.Row, col int) (string, error) {
	return spreadsheet.DecodeCellDate(row.Cell(col))
}
