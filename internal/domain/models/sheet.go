package models

import (
	"fmt"
	"time"
)

// SheetData is the raw content of the first worksheet: the header row and one
// record per data row keyed by header. Cell values keep the type the source
// returned (string, float64 or nil).
type SheetData struct {
	Headers    []string
	Records    []map[string]interface{}
	ModifiedAt *time.Time
}

// NewSheetData turns a grid of cell values into header-keyed records. The
// first row is the header; cells are kept verbatim so header whitespace
// survives. Short rows are padded with empty strings and blank header cells
// are ignored.
func NewSheetData(grid [][]interface{}) (SheetData, error) {
	if len(grid) == 0 {
		return SheetData{}, nil
	}

	headers := make([]string, len(grid[0]))
	seen := make(map[string]struct{}, len(grid[0]))
	for i, cell := range grid[0] {
		h := ""
		if cell != nil {
			h = fmt.Sprint(cell)
		}
		if h != "" {
			if _, dup := seen[h]; dup {
				return SheetData{}, fmt.Errorf("duplicate header %q", h)
			}
			seen[h] = struct{}{}
		}
		headers[i] = h
	}

	data := SheetData{
		Headers: make([]string, 0, len(headers)),
		Records: make([]map[string]interface{}, 0, len(grid)-1),
	}
	for _, h := range headers {
		if h != "" {
			data.Headers = append(data.Headers, h)
		}
	}

	for _, row := range grid[1:] {
		record := make(map[string]interface{}, len(data.Headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(row) && row[i] != nil {
				record[h] = row[i]
			} else {
				record[h] = ""
			}
		}
		data.Records = append(data.Records, record)
	}

	return data, nil
}

// ColumnSet names the source headers of the six presented columns. Header
// whitespace is significant.
type ColumnSet struct {
	Code                string
	ProductName         string
	StockGroup          string
	QuantityInStock     string
	WeeklyAverageSales  string
	StockAnalysisStatus string
}

// DefaultColumns returns the headers used by the inventory spreadsheet.
func DefaultColumns() ColumnSet {
	return ColumnSet{
		Code:                "Codigo",
		ProductName:         "Produto",
		StockGroup:          "Grupo_de_Estoque",
		QuantityInStock:     "Em_Estoque",
		WeeklyAverageSales:  "Media de venda semanal",
		StockAnalysisStatus: "Analise de estoque",
	}
}

// Ordered returns the headers in presentation order.
func (c ColumnSet) Ordered() []string {
	return []string{c.Code, c.ProductName, c.StockGroup, c.QuantityInStock, c.WeeklyAverageSales, c.StockAnalysisStatus}
}

// LookupEvent is the audit record stored for each rendered lookup.
type LookupEvent struct {
	RequestID   string         `bson:"request_id" json:"request_id"`
	At          time.Time      `bson:"at" json:"at"`
	Criteria    FilterCriteria `bson:"criteria" json:"criteria"`
	TotalRows   int            `bson:"total_rows" json:"total_rows"`
	MatchedRows int            `bson:"matched_rows" json:"matched_rows"`
	Failed      bool           `bson:"failed" json:"failed"`
}
