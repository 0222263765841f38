package view

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/a-h/templ"

	"github.com/mamadbah2/estoque/internal/domain/models"
	"github.com/mamadbah2/estoque/internal/service/inventory"
)

const pageTitle = "Consulta de Estoque"

// InventoryPage renders the lookup page for one result.
func InventoryPage(res inventory.Result) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}

		p.raw(`<!DOCTYPE html><html lang="pt-BR"><head><meta charset="utf-8">`)
		p.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.raw(`<title>`).text(pageTitle).raw(`</title>`)
		p.raw(`<style>` + pageCSS + `</style></head><body><main>`)
		p.raw(`<h1>📦 `).text(pageTitle).raw(`</h1><hr>`)

		if res.LoadFailed {
			alert(p, "error", res.Error)
			p.raw(`</main></body></html>`)
			return p.err
		}

		filters(p, res)

		if res.Error != "" {
			alert(p, "error", res.Error)
			p.raw(`</main></body></html>`)
			return p.err
		}

		p.raw(`<hr><h2>`).text(fmt.Sprintf("Resultados Encontrados (%d itens)", res.Count)).raw(`</h2>`)
		if res.Count > 0 {
			table(p, res)
			exports(p, res.Criteria)
		} else {
			alert(p, "warning", res.Notice)
		}

		if res.LastUpdated != "" {
			p.raw(`<p class="updated">`).text("Última atualização: " + res.LastUpdated).raw(`</p>`)
		}

		p.raw(`<form method="post" action="/refresh"><button type="submit">Atualizar dados</button></form>`)
		p.raw(`</main></body></html>`)
		return p.err
	})
}

func filters(p *printer, res inventory.Result) {
	p.raw(`<h2>Filtros de Consulta</h2><form method="get" action="/" class="filters">`)

	p.raw(`<label>🔍 Filtrar por Código do Produto:<input type="text" name="codigo" title="Filtro parcial (contém)" value="`)
	p.text(res.Criteria.Code).raw(`"></label>`)

	selectBox(p, "produto", "🏷️ Filtrar por Produto:", res.Options.ProductNames, res.Criteria.ProductName)
	selectBox(p, "situacao", "📝 Filtrar por Situação de Analise:", res.Options.Statuses, res.Criteria.StockAnalysisStatus)
	selectBox(p, "grupo", "🏭 Filtrar por Grupo de Estoque:", res.Options.Groups, res.Criteria.StockGroup)

	p.raw(`<button type="submit">Filtrar</button></form>`)
}

func selectBox(p *printer, name, label string, options []string, selected string) {
	if selected == "" {
		selected = models.AllOption
	}

	p.raw(`<label>`).text(label).raw(`<select name="` + name + `">`)
	for _, opt := range options {
		p.raw(`<option value="`).text(opt).raw(`"`)
		if opt == selected {
			p.raw(` selected`)
		}
		p.raw(`>`).text(opt).raw(`</option>`)
	}
	p.raw(`</select></label>`)
}

func table(p *printer, res inventory.Result) {
	p.raw(`<table><thead><tr>`)
	for _, h := range res.Headers {
		p.raw(`<th>`).text(h).raw(`</th>`)
	}
	p.raw(`</tr></thead><tbody>`)
	for _, row := range res.Rows {
		p.raw(`<tr>`)
		for i, cell := range row.Cells() {
			if i == 3 || i == 4 {
				p.raw(`<td class="num">`)
			} else {
				p.raw(`<td>`)
			}
			p.text(cell).raw(`</td>`)
		}
		p.raw(`</tr>`)
	}
	p.raw(`</tbody></table>`)
}

func exports(p *printer, c models.FilterCriteria) {
	q := Query(c)
	p.raw(`<p class="exports"><a href="/export.csv?`).text(q).raw(`">Baixar CSV</a> `)
	p.raw(`<a href="/export.xlsx?`).text(q).raw(`">Baixar Excel</a></p>`)
}

func alert(p *printer, kind, message string) {
	if message == "" {
		return
	}
	p.raw(`<div class="alert ` + kind + `" role="alert">`).text(message).raw(`</div>`)
}

// Query encodes the criteria as page query parameters.
func Query(c models.FilterCriteria) string {
	v := url.Values{}
	if c.Code != "" {
		v.Set("codigo", c.Code)
	}
	if c.ProductName != "" {
		v.Set("produto", c.ProductName)
	}
	if c.StockAnalysisStatus != "" {
		v.Set("situacao", c.StockAnalysisStatus)
	}
	if c.StockGroup != "" {
		v.Set("grupo", c.StockGroup)
	}
	return v.Encode()
}

// printer keeps the first write error so the page can be written without
// checking every call.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) raw(s string) *printer {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
	return p
}

func (p *printer) text(s string) *printer {
	return p.raw(templ.EscapeString(s))
}

const pageCSS = `body{font-family:system-ui,sans-serif;margin:0;background:#fafafa;color:#222}
main{max-width:1200px;margin:0 auto;padding:1.5rem}
.filters{display:grid;grid-template-columns:repeat(auto-fit,minmax(220px,1fr));gap:1rem;align-items:end}
.filters label{display:flex;flex-direction:column;gap:.3rem;font-size:.9rem}
input,select,button{padding:.4rem;font-size:1rem}
table{border-collapse:collapse;width:100%;background:#fff}
th,td{border:1px solid #ddd;padding:.4rem .6rem;text-align:left}
td.num{text-align:right}
.alert{padding:.8rem 1rem;border-radius:.3rem;margin:1rem 0}
.alert.error{background:#fde2e2;color:#8a1c1c}
.alert.warning{background:#fff4d6;color:#7a5b00}
.updated{color:#666;font-size:.85rem}`
