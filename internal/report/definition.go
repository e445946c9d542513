package report

import (
	"fmt"

	"github.com/garyjia/sheet-snapshot/internal/spreadsheet"
)

// Report names, used in config keys, logs and run history.
const (
	NameLedger = "ledger"
	NameBlocos = "blocos"
)

// First usable 1-based rows of each source sheet.
const (
	DefaultLedgerStartRow = 3
	DefaultBlocosStartRow = 18310
)

// RowMapper converts one sheet row into a typed record.
type RowMapper[T any] func(row spreadsheet.Row) (T, error)

// Definition describes one spreadsheet-to-snapshot report: where it is read
// from, where its snapshot lives, and how each row is mapped.
type Definition[T any] struct {
	Name       string
	Title      string
	SourcePath string
	OutputPath string
	StartRow   int
	Map        RowMapper[T]
}

// NotFoundMessage is the error returned to readers when the snapshot is absent.
func (d Definition[T]) NotFoundMessage() string {
	return NotFoundMessage(d.Title)
}

// NotFoundMessage formats the missing-snapshot message for a report title.
func NotFoundMessage(title string) string {
	return fmt.Sprintf("Arquivo JSON de %s não encontrado", title)
}

// Ledger returns the "CRED E DEB" report definition.
func Ledger(sourcePath, outputPath string, startRow int) Definition[LedgerRecord] {
	return Definition[LedgerRecord]{
		Name:       NameLedger,
		Title:      "CRED E DEB",
		SourcePath: sourcePath,
		OutputPath: outputPath,
		StartRow:   startRow,
		Map:        MapLedgerRow,
	}
}

// Blocos returns the BLOCOS report definition.
func Blocos(sourcePath, outputPath string, startRow int) Definition[BlocRecord] {
	return Definition[BlocRecord]{
		Name:       NameBlocos,
		Title:      "BLOCOS",
		SourcePath: sourcePath,
		OutputPath: outputPath,
		StartRow:   startRow,
		Map:        MapBlocRow,
	}
}
