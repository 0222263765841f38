package inventory

import (
	"reflect"
	"testing"

	"github.com/mamadbah2/estoque/internal/domain/models"
)

func sampleTable() models.InventoryTable {
	return models.InventoryTable{
		Columns: models.DefaultColumns().Ordered(),
		Rows: []models.InventoryRow{
			{Code: "AB1234", ProductName: "Parafuso", StockGroup: "Ferragens", StockAnalysisStatus: "ok"},
			{Code: "cd-77", ProductName: "Prego", StockGroup: "Ferragens", StockAnalysisStatus: "baixo"},
			{Code: "xab9", ProductName: "Tinta", StockGroup: "Pintura", StockAnalysisStatus: "ok"},
			{Code: "Z1", ProductName: "Lixa", StockGroup: models.NotInformed, StockAnalysisStatus: "ok"},
		},
	}
}

func codes(table models.InventoryTable) []string {
	out := make([]string, 0, len(table.Rows))
	for _, r := range table.Rows {
		out = append(out, r.Code)
	}
	return out
}

func TestFilterCodeIsCaseInsensitiveSubstring(t *testing.T) {
	got := codes(Filter(sampleTable(), models.FilterCriteria{Code: "  ab "}))
	want := []string{"AB1234", "xab9"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFilterAllSentinelIsNoop(t *testing.T) {
	table := sampleTable()
	criteria := []models.FilterCriteria{
		{},
		{ProductName: models.AllOption},
		{StockAnalysisStatus: models.AllOption},
		{StockGroup: models.AllOption},
		{ProductName: models.AllOption, StockAnalysisStatus: models.AllOption, StockGroup: models.AllOption},
	}

	for _, c := range criteria {
		if got := Filter(table, c); !reflect.DeepEqual(got.Rows, table.Rows) {
			t.Fatalf("criteria %+v changed the table: %v", c, codes(got))
		}
	}
}

func TestFilterCombinesAsIntersection(t *testing.T) {
	table := sampleTable()
	code := models.FilterCriteria{Code: "ab"}
	status := models.FilterCriteria{StockAnalysisStatus: "ok"}
	group := models.FilterCriteria{StockGroup: "Ferragens"}
	all := models.FilterCriteria{Code: "ab", StockAnalysisStatus: "ok", StockGroup: "Ferragens"}

	combined := codes(Filter(table, all))
	if !reflect.DeepEqual(combined, []string{"AB1234"}) {
		t.Fatalf("unexpected combined result %v", combined)
	}

	orders := [][]models.FilterCriteria{
		{code, status, group},
		{group, status, code},
		{status, code, group},
	}
	for _, order := range orders {
		out := table
		for _, c := range order {
			out = Filter(out, c)
		}
		if got := codes(out); !reflect.DeepEqual(got, combined) {
			t.Fatalf("order %+v gave %v, want %v", order, got, combined)
		}
	}
}

func TestFilterKeepsNotInformedRowsMatchable(t *testing.T) {
	got := codes(Filter(sampleTable(), models.FilterCriteria{StockGroup: models.NotInformed}))
	if !reflect.DeepEqual(got, []string{"Z1"}) {
		t.Fatalf("got %v", got)
	}
}

func TestFilterDoesNotModifyInput(t *testing.T) {
	table := sampleTable()
	before := table.Clone()

	out := Filter(table, models.FilterCriteria{Code: "cd"})
	if len(out.Rows) != 1 {
		t.Fatalf("expected one row, got %v", codes(out))
	}
	if !reflect.DeepEqual(table, before) {
		t.Fatalf("input table was modified")
	}
}

func TestFilterNoMatches(t *testing.T) {
	out := Filter(sampleTable(), models.FilterCriteria{StockGroup: "Elétrica"})
	if len(out.Rows) != 0 {
		t.Fatalf("expected no rows, got %v", codes(out))
	}
	if !reflect.DeepEqual(out.Columns, sampleTable().Columns) {
		t.Fatalf("columns must be kept on empty results")
	}
}

func TestOptions(t *testing.T) {
	table := models.InventoryTable{Rows: []models.InventoryRow{
		{ProductName: "Zebra", StockGroup: "b", StockAnalysisStatus: "ok"},
		{ProductName: "Ábaco", StockGroup: "a", StockAnalysisStatus: "ok"},
		{ProductName: "abacate", StockGroup: models.NotInformed, StockAnalysisStatus: "baixo"},
		{ProductName: "Zebra", StockGroup: "a", StockAnalysisStatus: "ok"},
	}}

	opts := Options(table)

	wantProducts := []string{models.AllOption, "abacate", "Ábaco", "Zebra"}
	if !reflect.DeepEqual(opts.ProductNames, wantProducts) {
		t.Fatalf("products: got %v, want %v", opts.ProductNames, wantProducts)
	}
	wantGroups := []string{models.AllOption, "a", "b", models.NotInformed}
	if !reflect.DeepEqual(opts.Groups, wantGroups) {
		t.Fatalf("groups: got %v, want %v", opts.Groups, wantGroups)
	}
	wantStatuses := []string{models.AllOption, "baixo", "ok"}
	if !reflect.DeepEqual(opts.Statuses, wantStatuses) {
		t.Fatalf("statuses: got %v, want %v", opts.Statuses, wantStatuses)
	}

	empty := Options(models.InventoryTable{})
	if !reflect.DeepEqual(empty.Groups, []string{models.AllOption}) {
		t.Fatalf("empty table must still offer the sentinel, got %v", empty.Groups)
	}
}
