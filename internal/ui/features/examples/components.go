package examples

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/leapshader/internal/examples"
	"github.com/leapstack-labs/leapshader/internal/ui/features/common"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

// Menu renders the example picker. It is disabled while a load is pending.
func Menu(list []examples.Example, load core.LoadStatus) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := common.NewWriter(out)
		w.Raw("<div id=\"examples\" class=\"examples\"><select aria-label=\"Load example\"")
		w.Raw(" data-on:change=\"evt.target.value && @post('/examples/' + evt.target.value)\"")
		if load == core.LoadStatusLoading {
			w.Raw(" disabled")
		}
		w.Raw("><option value=\"\">Load example…</option>")
		for _, ex := range list {
			w.Raw("<option value=\"")
			w.Text(ex.Name)
			w.Raw("\">")
			if ex.Title != "" {
				w.Text(ex.Title)
			} else {
				w.Text(ex.Name)
			}
			w.Raw("</option>")
		}
		w.Raw("</select>")
		if load == core.LoadStatusLoading {
			w.Raw("<span class=\"muted\"> loading…</span>")
		}
		w.Raw("</div>")
		return w.Err()
	})
}
