package output

import (
	"github.com/jedib0t/go-pretty/v6/table"
)

// Table renders rows with a header: box-drawn on a terminal, a markdown
// table otherwise. JSON callers render their own types.
func (r *Renderer) Table(header []string, rows [][]string) {
	t := table.NewWriter()

	h := make(table.Row, len(header))
	for i, c := range header {
		h[i] = c
	}
	t.AppendHeader(h)

	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, c := range row {
			tr[i] = c
		}
		t.AppendRow(tr)
	}

	if r.EffectiveMode() == ModeMarkdown {
		r.Println(t.RenderMarkdown())
		r.Println("")
		return
	}
	t.SetStyle(table.StyleLight)
	r.Println(t.Render())
}
