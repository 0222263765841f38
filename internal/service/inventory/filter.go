package inventory

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mamadbah2/estoque/internal/domain/models"
)

// Filter returns the rows of table matching every active criterion. The input
// is not modified and source order is kept.
func Filter(table models.InventoryTable, criteria models.FilterCriteria) models.InventoryTable {
	out := models.InventoryTable{
		Columns:    table.Columns,
		ModifiedAt: table.ModifiedAt,
		Rows:       make([]models.InventoryRow, 0, len(table.Rows)),
	}

	// Casers keep state, so each call gets its own.
	folder := cases.Fold()
	pattern := folder.String(strings.TrimSpace(criteria.Code))

	for _, row := range table.Rows {
		if pattern != "" && !strings.Contains(folder.String(row.Code), pattern) {
			continue
		}
		if !matchesOption(criteria.ProductName, row.ProductName) {
			continue
		}
		if !matchesOption(criteria.StockAnalysisStatus, row.StockAnalysisStatus) {
			continue
		}
		if !matchesOption(criteria.StockGroup, row.StockGroup) {
			continue
		}
		out.Rows = append(out.Rows, row)
	}

	return out
}

func matchesOption(selected, value string) bool {
	if selected == "" || selected == models.AllOption {
		return true
	}
	return selected == value
}

// Options enumerates the dropdown values for each categorical column:
// models.AllOption first, then the distinct observed values in Brazilian
// Portuguese collation order.
func Options(table models.InventoryTable) models.FilterOptions {
	products := make([]string, 0, len(table.Rows))
	statuses := make([]string, 0)
	groups := make([]string, 0)
	for _, row := range table.Rows {
		products = append(products, row.ProductName)
		statuses = append(statuses, row.StockAnalysisStatus)
		groups = append(groups, row.StockGroup)
	}

	return models.FilterOptions{
		ProductNames: optionList(products),
		Statuses:     optionList(statuses),
		Groups:       optionList(groups),
	}
}

func optionList(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	distinct := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		distinct = append(distinct, v)
	}

	collate.New(language.BrazilianPortuguese).SortStrings(distinct)
	return append([]string{models.AllOption}, distinct...)
}
