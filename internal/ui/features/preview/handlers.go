package preview

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/leapshader/internal/engine"
	"github.com/leapstack-labs/leapshader/internal/notifier"
	"github.com/leapstack-labs/leapshader/internal/session"
	"github.com/leapstack-labs/leapshader/internal/ui/features/common"
	examplesFeature "github.com/leapstack-labs/leapshader/internal/ui/features/examples"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

const (
	cookieName    = "leapshader"
	frameInterval = time.Second
)

// Handlers provides HTTP handlers for the preview feature.
type Handlers struct {
	engine       *engine.Engine
	sessionStore sessions.Store
	notifier     *notifier.Notifier
	isDev        bool
}

// NewHandlers creates a new Handlers instance. notify is pinged whenever the
// editor text changes from outside the browser (file watcher, examples).
func NewHandlers(eng *engine.Engine, sessionStore sessions.Store, notify *notifier.Notifier, isDev bool) *Handlers {
	return &Handlers{
		engine:       eng,
		sessionStore: sessionStore,
		notifier:     notify,
		isDev:        isDev,
	}
}

// PreviewPage renders the workbench with full content.
func (h *Handlers) PreviewPage(w http.ResponseWriter, r *http.Request) {
	h.restoreStage(r)

	data, err := h.buildWorkbenchData()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	shell := common.ShellData{Title: "Preview", CurrentPath: "/", UpdatesURL: "/updates", IsDev: h.isDev}
	if err := common.Page(shell, Workbench(data)).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// restoreStage mounts the tab this browser last had open.
func (h *Handlers) restoreStage(r *http.Request) {
	sess, err := h.sessionStore.Get(r, cookieName)
	if err != nil {
		return
	}
	name, _ := sess.Values[SessionKeyStage].(string)
	if stage, ok := core.ParseStage(name); ok {
		_, _ = h.engine.Session().SwitchStage(stage)
	}
}

func (h *Handlers) buildWorkbenchData() (WorkbenchData, error) {
	snap, err := h.engine.Session().Snapshot()
	if err != nil {
		return WorkbenchData{}, err
	}
	return WorkbenchData{
		Snapshot: snap,
		Examples: h.engine.Catalog().List(),
		Frame:    h.engine.Loop().Frame(),
	}, nil
}

// Updates is the long-lived SSE endpoint for the workbench. It does not
// send initial state; PreviewPage already rendered it.
func (h *Handlers) Updates(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	sess := h.engine.Session()
	loop := h.engine.Loop()

	state := sess.Subscribe()
	defer sess.Unsubscribe(state)
	materials := loop.Subscribe()
	defer loop.Unsubscribe(materials)
	editor := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(editor)

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		var err error
		select {
		case <-ctx.Done():
			return
		case <-sess.Done():
			return
		case _, ok := <-state:
			if !ok {
				return
			}
			err = h.sendState(sse)
		case _, ok := <-materials:
			if !ok {
				return
			}
			err = h.sendMaterial(sse)
		case _, ok := <-editor:
			if !ok {
				return
			}
			err = h.sendEditor(sse)
		case <-ticker.C:
			err = sse.PatchElementTempl(FrameCounter(loop.Frame()))
		}
		if err != nil {
			_ = sse.ConsoleError(err)
		}
	}
}

func (h *Handlers) sendState(sse *datastar.ServerSentEventGenerator) error {
	snap, err := h.engine.Session().Snapshot()
	if err != nil {
		return err
	}
	if err := sse.PatchElementTempl(StatusBadge(snap.Status)); err != nil {
		return err
	}
	if err := sse.PatchElementTempl(Tabs(snap)); err != nil {
		return err
	}
	if err := sse.PatchElementTempl(Diagnostics(snap.Report)); err != nil {
		return err
	}
	return sse.PatchElementTempl(examplesFeature.Menu(h.engine.Catalog().List(), snap.Load))
}

func (h *Handlers) sendMaterial(sse *datastar.ServerSentEventGenerator) error {
	m := NewMaterialView(h.engine.Loop().Frame().Material)
	if m == nil {
		return nil
	}
	js, err := materialJS(m)
	if err != nil {
		return err
	}
	return sse.ExecuteScript(js)
}

// sendEditor replaces the editor signals with the session's text. It only
// runs for changes the browser did not make itself, so typing is never
// overwritten by an echo of an older edit.
func (h *Handlers) sendEditor(sse *datastar.ServerSentEventGenerator) error {
	snap, err := h.engine.Session().Snapshot()
	if err != nil {
		return err
	}
	return sse.MarshalAndPatchSignals(map[string]any{
		"stage":  snap.Active,
		"source": snap.Editor.Get(snap.Active),
	})
}

// Edit records the editor text as a draft for its stage.
func (h *Handlers) Edit(w http.ResponseWriter, r *http.Request) {
	var signals EditSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	stage, ok := core.ParseStage(signals.Stage)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown stage %q", signals.Stage), http.StatusBadRequest)
		return
	}
	if err := h.engine.Session().Edit(stage, signals.Source); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SwitchStage mounts a stage, remembers it for this browser and sends the
// seed text back as the editor source.
func (h *Handlers) SwitchStage(w http.ResponseWriter, r *http.Request) {
	stage, ok := core.ParseStage(chi.URLParam(r, "stage"))
	if !ok {
		http.Error(w, "unknown stage", http.StatusBadRequest)
		return
	}

	seed, err := h.engine.Session().SwitchStage(stage)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	if sess, err := h.sessionStore.Get(r, cookieName); err == nil {
		sess.Values[SessionKeyStage] = strings.ToLower(stage.String())
		_ = sess.Save(r, w)
	}

	snap, err := h.engine.Session().Snapshot()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	sse := datastar.NewSSE(w, r)
	if err := sse.MarshalAndPatchSignals(map[string]any{"stage": stage, "source": seed}); err != nil {
		return
	}
	_ = sse.PatchElementTempl(Tabs(snap))
}

// UpdateSettings applies the preview toggles.
func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var signals SettingsSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	settings := session.Settings{
		TransparentBackground: signals.Transparent,
		AutoRotate:            signals.Rotate,
	}
	if err := h.engine.Session().SetSettings(settings); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	js, err := settingsJS(settings)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	sse := datastar.NewSSE(w, r)
	_ = sse.ExecuteScript(js)
}

// RenderError records a WebGL failure reported by the browser as a runtime
// diagnostic. The stage defaults to fragment when the browser cannot tell.
func (h *Handlers) RenderError(w http.ResponseWriter, r *http.Request) {
	var req RenderErrorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}
	stage, ok := core.ParseStage(req.Stage)
	if !ok {
		stage = core.StageFragment
	}
	diag := core.StructuredError{
		Stage:   stage,
		Message: "browser preview: " + req.Message,
		Kind:    core.KindRender,
	}
	if err := h.engine.Session().ReportRender(diag); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Save writes the committed pair to the shaders directory. Only a passing
// session is saved, so files on disk always compile.
func (h *Handlers) Save(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.Session().Snapshot()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	sse := datastar.NewSSE(w, r)
	if snap.Status != core.CompileStatusPass {
		_ = sse.PatchElementTempl(SaveStatus("not saved: status is " + strings.ToUpper(string(snap.Status))))
		return
	}
	if err := engine.WriteShaders(h.engine.ShadersDir(), snap.Committed); err != nil {
		_ = sse.PatchElementTempl(SaveStatus("save failed: " + err.Error()))
		return
	}
	_ = sse.PatchElementTempl(SaveStatus("saved " + time.Now().Format("15:04:05")))
}

// State returns the session snapshot as JSON.
func (h *Handlers) State(w http.ResponseWriter, _ *http.Request) {
	snap, err := h.engine.Session().Snapshot()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, snap)
}

// Material returns the active material's GLSL as JSON.
func (h *Handlers) Material(w http.ResponseWriter, _ *http.Request) {
	m := NewMaterialView(h.engine.Loop().Frame().Material)
	if m == nil {
		http.Error(w, "no material built yet", http.StatusNotFound)
		return
	}
	writeJSON(w, m)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
