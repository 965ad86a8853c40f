package history

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/leapshader/internal/ui/features/common"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

// AttemptTable renders compile attempts, newest first.
func AttemptTable(attempts []*core.CompileAttempt, enabled bool) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := common.NewWriter(out)
		w.Raw("<section id=\"history\"><h2>Compile history</h2>")
		switch {
		case !enabled:
			w.Raw("<p class=\"muted\">History is disabled. Set state_path to record attempts.</p>")
		case len(attempts) == 0:
			w.Raw("<p class=\"muted\">No compile attempts recorded yet.</p>")
		default:
			w.Raw("<table class=\"history\"><thead><tr>")
			w.Raw("<th>Seq</th><th>Status</th><th>Origin</th><th>Diagnostics</th><th>Duration</th><th>Hash</th><th>When</th>")
			w.Raw("</tr></thead><tbody>")
			for _, a := range attempts {
				w.Raw("<tr><td>")
				w.Text(common.Itoa(int(a.Seq)))
				w.Raw("</td><td><span")
				w.Class("status", "status-"+string(a.Status))
				w.Raw(">")
				w.Text(strings.ToUpper(string(a.Status)))
				w.Raw("</span></td><td>")
				w.Text(a.Origin)
				w.Raw("</td><td>")
				w.Text(common.Itoa(a.Diagnostics))
				w.Raw("</td><td>")
				w.Text(common.FormatDuration(a.Duration))
				w.Raw("</td><td><code>")
				w.Text(shortHash(a.PairHash))
				w.Raw("</code></td><td>")
				w.Text(a.CreatedAt.Format("2006-01-02 15:04:05"))
				w.Raw("</td></tr>")
			}
			w.Raw("</tbody></table>")
		}
		w.Raw("</section>")
		return w.Err()
	})
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
