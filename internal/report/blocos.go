package report

import "github.com/garyjia/sheet-snapshot/internal/spreadsheet"

const (
	blocColDate       = iota // A
	blocColMaterial          // B
	blocColSheetsSold        // C
	blocColAreaSold          // D
	blocColCost              // E
	blocColSale              // F
)

// BlocRecord is one material sale from the BLOCOS sheet.
type BlocRecord struct {
	Date       string      `json:"data"`
	Material   interface{} `json:"material"`
	SheetsSold interface{} `json:"chapasVendidas"`
	AreaSold   interface{} `json:"m2Vendido"`
	Cost       interface{} `json:"custo"`
	Sale       interface{} `json:"venda"`
}

// MapBlocRow converts one blocos row. The record is always returned; the
// error only reports a malformed date.
func MapBlocRow(row spreadsheet.Row) (BlocRecord, error) {
	date, err := Date(row, blocColDate)
	return BlocRecord{
		Date:       date,
		Material:   Text(row, blocColMaterial),
		SheetsSold: Number(row, blocColSheetsSold),
		AreaSold:   Number(row, blocColAreaSold),
		Cost:       Number(row, blocColCost),
		Sale:       Number(row, blocColSale),
	}, err
}
