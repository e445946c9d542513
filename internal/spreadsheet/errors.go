package spreadsheet

import "errors"

var (
	// ErrSourceUnavailable means the workbook is missing, unreadable or has no sheets.
	ErrSourceUnavailable = errors.New("source spreadsheet unavailable")

	// ErrMalformedDate means a cell does not hold a numeric date serial.
	ErrMalformedDate = errors.New("cell is not a date serial")
)
