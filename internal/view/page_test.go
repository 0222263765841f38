package view

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/mamadbah2/estoque/internal/domain/models"
	"github.com/mamadbah2/estoque/internal/service/inventory"
)

func render(t *testing.T, res inventory.Result) string {
	t.Helper()
	var buf bytes.Buffer
	if err := InventoryPage(res).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func TestInventoryPageResults(t *testing.T) {
	res := inventory.Result{
		Criteria: models.FilterCriteria{Code: "a<1", StockGroup: "X"},
		Headers:  models.DefaultColumns().Ordered(),
		Rows: []models.DisplayRow{
			{Code: "A1", ProductName: "Parafuso & Porca", StockGroup: "X", QuantityInStock: "1.234,50", StockAnalysisStatus: "ok"},
		},
		Options: models.FilterOptions{
			ProductNames: []string{models.AllOption, "Parafuso & Porca"},
			Statuses:     []string{models.AllOption, "ok"},
			Groups:       []string{models.AllOption, "X", "Y"},
		},
		Count:       1,
		Total:       2,
		LastUpdated: "10/05/2024",
	}

	html := render(t, res)

	for _, want := range []string{
		"📦 Consulta de Estoque",
		"Resultados Encontrados (1 itens)",
		"Última atualização: 10/05/2024",
		"<td class=\"num\">1.234,50</td>",
		"Parafuso &amp; Porca",
		`value="a&lt;1"`,
		`<option value="X" selected>X</option>`,
		`<option value="Todos" selected>Todos</option>`,
		"Media de venda semanal",
		"/export.xlsx?",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(html, "a<1") {
		t.Errorf("user input must be escaped")
	}
}

func TestInventoryPageNoResults(t *testing.T) {
	html := render(t, inventory.Result{
		Options: models.FilterOptions{ProductNames: []string{models.AllOption}},
		Notice:  inventory.MessageNoResults,
	})

	if !strings.Contains(html, "Resultados Encontrados (0 itens)") {
		t.Errorf("count label missing")
	}
	if !strings.Contains(html, `class="alert warning"`) || !strings.Contains(html, inventory.MessageNoResults) {
		t.Errorf("no-results notice missing")
	}
	if strings.Contains(html, "<table>") {
		t.Errorf("table must not render without rows")
	}
}

func TestInventoryPageLoadFailure(t *testing.T) {
	html := render(t, inventory.Result{LoadFailed: true, Error: inventory.MessageLoadFailed})

	if !strings.Contains(html, `class="alert error"`) {
		t.Errorf("error block missing")
	}
	if strings.Contains(html, "Filtros de Consulta") || strings.Contains(html, "Resultados Encontrados") {
		t.Errorf("only the error is shown when loading fails")
	}
}

func TestInventoryPageMissingColumns(t *testing.T) {
	html := render(t, inventory.Result{Error: "Erro: A coluna 'Codigo' não foi encontrada"})

	if !strings.Contains(html, "Erro: A coluna &#39;Codigo&#39;") {
		t.Errorf("missing column message not rendered: %s", html)
	}
	if strings.Contains(html, "Resultados Encontrados") {
		t.Errorf("render must stop after the column error")
	}
}

func TestQuery(t *testing.T) {
	got := Query(models.FilterCriteria{Code: "ab", StockGroup: "Não Informado"})
	if got != "codigo=ab&grupo=N%C3%A3o+Informado" {
		t.Fatalf("unexpected query %q", got)
	}
}
