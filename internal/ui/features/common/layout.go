package common

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/leapshader/internal/ui/resources"
)

// DatastarScript is the client runtime matching the datastar-go SDK.
const DatastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

// Page renders a full HTML document around body.
func Page(shell ShellData, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := NewWriter(out)
		w.Raw("<!doctype html>\n<html lang=\"en\"><head><meta charset=\"utf-8\">")
		w.Raw("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">")
		w.Raw("<title>")
		w.Text(shell.Title)
		w.Raw(" - LeapShader</title>")
		w.Raw("<link rel=\"stylesheet\"")
		w.Href(templ.URL(resources.StaticPath("style.css")))
		w.Raw("><script type=\"module\"")
		w.Attr("src", DatastarScript)
		w.Raw("></script><script")
		w.Attr("src", resources.StaticPath("preview.js"))
		w.Raw("></script>")
		w.Raw("</head><body")
		if shell.UpdatesURL != "" {
			w.Attr("data-init", "@get('"+shell.UpdatesURL+"')")
		}
		w.Raw(">")
		w.Render(ctx, NavBar(shell.CurrentPath))
		w.Raw("<main id=\"ui-content\">")
		w.Render(ctx, body)
		w.Raw("</main>")
		if shell.IsDev {
			w.Raw("<div data-init=\"@get('/reload')\" hidden></div>")
		}
		w.Raw("</body></html>")
		return w.Err()
	})
}

// NavBar renders the top navigation with the current page highlighted.
func NavBar(current string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := NewWriter(out)
		w.Raw("<nav class=\"nav\"><span class=\"brand\">LeapShader</span>")
		for _, item := range Nav {
			w.Raw("<a")
			w.Class("nav-link", templ.KV("active", item.Href == current))
			w.Href(templ.URL(item.Href))
			w.Raw(">")
			w.Text(item.Label)
			w.Raw("</a>")
		}
		w.Raw("</nav>")
		return w.Err()
	})
}
