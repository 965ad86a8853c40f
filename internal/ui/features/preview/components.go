package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/leapshader/internal/diagnostic"
	"github.com/leapstack-labs/leapshader/internal/preview"
	"github.com/leapstack-labs/leapshader/internal/session"
	"github.com/leapstack-labs/leapshader/internal/ui/features/common"
	examplesFeature "github.com/leapstack-labs/leapshader/internal/ui/features/examples"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

// Workbench renders the editor, diagnostics and preview canvas.
func Workbench(data WorkbenchData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		snap := data.Snapshot
		signals, err := json.Marshal(map[string]any{
			"stage":       snap.Active,
			"source":      snap.Editor.Get(snap.Active),
			"transparent": snap.Settings.TransparentBackground,
			"rotate":      snap.Settings.AutoRotate,
		})
		if err != nil {
			return err
		}

		w := common.NewWriter(out)
		w.Raw("<div class=\"workbench\" data-signals=\"")
		w.Text(string(signals))
		w.Raw("\">")

		w.Raw("<section class=\"editor\"><div class=\"toolbar\">")
		w.Render(ctx, StatusBadge(snap.Status))
		w.Render(ctx, examplesFeature.Menu(data.Examples, snap.Load))
		w.Raw("<button class=\"tab\" data-on:click=\"@post('/save')\">Save</button>")
		w.Raw("<span id=\"save-status\" class=\"muted\"></span>")
		w.Raw("</div>")
		w.Render(ctx, Tabs(snap))
		w.Raw("<textarea id=\"editor\" spellcheck=\"false\" data-bind:source data-on:input=\"@post('/edit')\">")
		w.Text(snap.Editor.Get(snap.Active))
		w.Raw("</textarea>")
		w.Render(ctx, Diagnostics(snap.Report))
		w.Raw("</section>")

		w.Raw("<section class=\"preview\"><canvas id=\"preview-canvas\"></canvas>")
		w.Render(ctx, SettingsForm())
		w.Render(ctx, FrameCounter(data.Frame))
		w.Raw("</section></div>")

		w.Render(ctx, InitScript(NewMaterialView(data.Frame.Material), snap.Settings))
		return w.Err()
	})
}

// StatusBadge renders the compile status.
func StatusBadge(status core.CompileStatus) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := common.NewWriter(out)
		w.Raw("<span id=\"status\"")
		w.Class("status", "status-"+string(status))
		w.Raw(">")
		w.Text(strings.ToUpper(string(status)))
		w.Raw("</span>")
		return w.Err()
	})
}

// Tabs renders one tab per stage with its diagnostic count.
func Tabs(snap session.Snapshot) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := common.NewWriter(out)
		w.Raw("<div id=\"stage-tabs\" class=\"tabs\">")
		for _, stage := range core.Stages {
			name := strings.ToLower(stage.String())
			w.Raw("<button")
			w.Class("tab", templ.KV("active", stage == snap.Active))
			w.Attr("data-on:click", "@post('/stage/"+name+"')")
			w.Raw(">")
			w.Text(stage.String())
			if n := len(snap.Report.ForStage(stage)); n > 0 {
				w.Raw("<span class=\"count\">")
				w.Text(common.Itoa(n))
				w.Raw("</span>")
			}
			w.Raw("</button>")
		}
		w.Raw("</div>")
		return w.Err()
	})
}

// Diagnostics renders the error report: compiler diagnostics first, then
// runtime ones.
func Diagnostics(report core.ErrorReport) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := common.NewWriter(out)
		w.Raw("<ul id=\"diagnostics\" class=\"diagnostics\">")
		for _, e := range report.Detailed {
			w.Raw("<li>")
			w.Text(diagnostic.Pretty(e))
			w.Raw("</li>")
		}
		for _, e := range report.Runtime {
			w.Raw("<li class=\"render\">")
			w.Text(diagnostic.Pretty(e))
			w.Raw("</li>")
		}
		w.Raw("</ul>")
		return w.Err()
	})
}

// SettingsForm renders the preview toggles bound to the settings signals.
func SettingsForm() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := common.NewWriter(out)
		w.Raw("<div id=\"settings\" class=\"settings\">")
		w.Raw("<label><input type=\"checkbox\" data-bind:transparent data-on:change=\"@post('/settings')\"> Transparent background</label> ")
		w.Raw("<label><input type=\"checkbox\" data-bind:rotate data-on:change=\"@post('/settings')\"> Auto rotate</label>")
		w.Raw("</div>")
		return w.Err()
	})
}

// FrameCounter renders the server render loop's frame number and time.
func FrameCounter(f preview.Frame) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := common.NewWriter(out)
		w.Raw("<span id=\"frame\" class=\"muted\">")
		w.Textf("frame %d · %.1fs", f.N, f.Time.Seconds())
		w.Raw("</span>")
		return w.Err()
	})
}

// SaveStatus renders the result of a save request.
func SaveStatus(msg string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := common.NewWriter(out)
		w.Raw("<span id=\"save-status\" class=\"muted\">")
		w.Text(msg)
		w.Raw("</span>")
		return w.Err()
	})
}

// InitScript hands the current material and settings to the WebGL preview.
func InitScript(m *MaterialView, settings session.Settings) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		js, err := initJS(m, settings)
		if err != nil {
			return err
		}
		w := common.NewWriter(out)
		w.Raw("<script>")
		w.Raw(js)
		w.Raw("</script>")
		return w.Err()
	})
}

func initJS(m *MaterialView, settings session.Settings) (string, error) {
	s, err := settingsJS(settings)
	if err != nil {
		return "", err
	}
	if m == nil {
		return s, nil
	}
	mat, err := materialJS(m)
	if err != nil {
		return "", err
	}
	return mat + s, nil
}

// json.Marshal escapes <, > and & so the output is safe inside a script tag.
func materialJS(m *MaterialView) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("window.leapshader.setMaterial(%s);", b), nil
}

func settingsJS(s session.Settings) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("window.leapshader.setSettings(%s);", b), nil
}
