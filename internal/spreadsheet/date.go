package spreadsheet

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar format every decoded serial is rendered in.
const DateLayout = "2006-01-02"

// serialEpoch is day zero of the spreadsheet date system. Serial 1 is the
// day after it. UTC keeps the day arithmetic free of DST shifts.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// DecodeSerialDate converts a spreadsheet day-count serial to YYYY-MM-DD.
// The time-of-day fraction is dropped.
func DecodeSerialDate(serial float64) string {
	days := int(math.Floor(serial))
	return serialEpoch.AddDate(0, 0, days).Format(DateLayout)
}

// DecodeCellDate decodes a raw cell value holding a date serial. Empty and
// non-numeric values return "" with ErrMalformedDate.
func DecodeCellDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty cell: %w", ErrMalformedDate)
	}

	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(serial) || math.IsInf(serial, 0) {
		return "", fmt.Errorf("%q: %w", raw, ErrMalformedDate)
	}
	return DecodeSerialDate(serial), nil
}
