package models

import "time"

const (
	// AllOption is the dropdown value that disables a categorical filter.
	AllOption = "Todos"
	// NotInformed replaces blank categorical cells.
	NotInformed = "Não Informado"
)

// NullFloat is a numeric cell that may be missing after cleaning.
type NullFloat struct {
	Value float64
	Valid bool
}

// Float wraps a parsed value.
func Float(v float64) NullFloat {
	return NullFloat{Value: v, Valid: true}
}

// InventoryRow is one stocked item as read from the source sheet.
type InventoryRow struct {
	Code                string
	ProductName         string
	StockGroup          string
	QuantityInStock     NullFloat
	WeeklyAverageSales  NullFloat
	StockAnalysisStatus string
}

// InventoryTable keeps rows in source order together with the header row they
// were read from.
type InventoryTable struct {
	Columns    []string
	Rows       []InventoryRow
	ModifiedAt *time.Time
}

// Clone returns a copy whose row slice can be modified independently.
func (t InventoryTable) Clone() InventoryTable {
	out := InventoryTable{ModifiedAt: t.ModifiedAt}
	out.Columns = append([]string(nil), t.Columns...)
	out.Rows = append([]InventoryRow(nil), t.Rows...)
	return out
}

// HasColumn reports whether the source header row contained name verbatim.
func (t InventoryTable) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// FilterCriteria holds the per-render filter selections.
type FilterCriteria struct {
	Code                string `form:"codigo" json:"code" bson:"code"`
	ProductName         string `form:"produto" json:"product_name" bson:"product_name"`
	StockAnalysisStatus string `form:"situacao" json:"stock_analysis_status" bson:"stock_analysis_status"`
	StockGroup          string `form:"grupo" json:"stock_group" bson:"stock_group"`
}

// FilterOptions lists the dropdown values offered for each categorical column.
type FilterOptions struct {
	ProductNames []string `json:"product_names"`
	Statuses     []string `json:"statuses"`
	Groups       []string `json:"groups"`
}

// DisplayRow is a row rendered with Brazilian number formatting, in the fixed
// presentation column order.
type DisplayRow struct {
	Code                string `json:"code"`
	ProductName         string `json:"product_name"`
	StockGroup          string `json:"stock_group"`
	QuantityInStock     string `json:"quantity_in_stock"`
	WeeklyAverageSales  string `json:"weekly_average_sales"`
	StockAnalysisStatus string `json:"stock_analysis_status"`
}

// Cells returns the row values in presentation order.
func (r DisplayRow) Cells() []string {
	return []string{r.Code, r.ProductName, r.StockGroup, r.QuantityInStock, r.WeeklyAverageSales, r.StockAnalysisStatus}
}
