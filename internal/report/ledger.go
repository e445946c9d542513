package report

import "github.com/garyjia/sheet-snapshot/internal/spreadsheet"

// Ledger columns of the "CRED E DEB" sheet.
const (
	ledgerColCustomer = iota // A
	ledgerColDebit           // B
	ledgerColCredit          // C
	ledgerColDate            // D
)

// LedgerRecord is one customer debit/credit entry.
type LedgerRecord struct {
	CustomerName interface{} `json:"cliente"`
	Debit        interface{} `json:"debito"`
	Credit       interface{} `json:"credito"`
	Date         string      `json:"data"`
}

// MapLedgerRow converts one ledger row. The record is always returned; the
// error only reports a malformed date.
func MapLedgerRow(row spreadsheet.Row) (LedgerRecord, error) {
	date, err := Date(row, ledgerColDate)
	return LedgerRecord{
		CustomerName: Text(row, ledgerColCustomer),
		Debit:        Number(row, ledgerColDebit),
		Credit:       Number(row, ledgerColCredit),
		Date:         date,
	}, err
}
