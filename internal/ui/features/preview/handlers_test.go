package preview

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapshader/internal/config"
	"github.com/leapstack-labs/leapshader/internal/engine"
	"github.com/leapstack-labs/leapshader/internal/notifier"
	"github.com/leapstack-labs/leapshader/internal/session"
	"github.com/leapstack-labs/leapshader/internal/ui/features"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

// =============================================================================
// Test Setup Helpers
// =============================================================================

func setupTestHandlers(t *testing.T) (*Handlers, *features.TestFixture, *notifier.Notifier) {
	t.Helper()
	fixture := features.SetupTestFixture(t)
	notify := notifier.New()
	return NewHandlers(fixture.Engine, fixture.SessionStore, notify, true), fixture, notify
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// =============================================================================
// PreviewPage
// =============================================================================

func TestPreviewPage(t *testing.T) {
	h, fixture, _ := setupTestHandlers(t)
	fixture.WaitStatus(core.CompileStatusPass)
	fixture.WaitMaterial()

	rec := httptest.NewRecorder()
	h.PreviewPage(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, want := range []string{
		"<!doctype html>",
		"<title>Preview - LeapShader</title>",
		"data-init",
		"/updates",
		"ui-content",
		`id="status"`,
		"status-pass",
		`id="stage-tabs"`,
		`id="editor"`,
		`id="preview-canvas"`,
		`id="examples"`,
		"window.leapshader.setMaterial(",
		"window.leapshader.setSettings(",
		"/reload",
	} {
		assert.Contains(t, body, want, "response should contain %q", want)
	}
}

func TestPreviewPage_RestoresStageFromCookie(t *testing.T) {
	h, fixture, _ := setupTestHandlers(t)
	fixture.WaitStatus(core.CompileStatusPass)

	req := features.RequestWithPathParam(httptest.NewRequest(http.MethodPost, "/stage/fragment", nil), "stage", "fragment")
	rec := httptest.NewRecorder()
	h.SwitchStage(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	_, err := fixture.Engine.Session().SwitchStage(core.StageVertex)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	h.PreviewPage(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	snap, err := fixture.Engine.Session().Snapshot()
	require.NoError(t, err)
	assert.Equal(t, core.StageFragment, snap.Active)
}

// =============================================================================
// Updates
// =============================================================================

func runUpdates(t *testing.T, h *Handlers, timeout time.Duration, during func()) string {
	t.Helper()
	req, cancel := features.RequestWithTimeout(httptest.NewRequest(http.MethodGet, "/updates", nil), timeout)
	defer cancel()
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.Updates(rec, req)
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	during()
	<-done
	return rec.Body.String()
}

func TestUpdates_PatchesStateOnEdit(t *testing.T) {
	h, fixture, _ := setupTestHandlers(t)
	fixture.WaitStatus(core.CompileStatusPass)

	body := runUpdates(t, h, 500*time.Millisecond, func() {
		require.NoError(t, fixture.Engine.Session().Edit(core.StageFragment, "@fragment fn fs_main( {"))
	})

	assert.GreaterOrEqual(t, strings.Count(body, "event:"), 1)
	assert.Contains(t, body, "status-fail")
	assert.Contains(t, body, "diagnostics")
}

func TestUpdates_PatchesEditorSignalsOnExternalChange(t *testing.T) {
	h, fixture, notify := setupTestHandlers(t)
	fixture.WaitStatus(core.CompileStatusPass)

	body := runUpdates(t, h, 300*time.Millisecond, func() {
		require.NoError(t, fixture.Engine.Session().Edit(core.StageVertex, "// from disk"))
		notify.Broadcast()
	})

	assert.Contains(t, body, "datastar-patch-signals")
	assert.Contains(t, body, "from disk")
}

func TestUpdates_NoEventsWithoutChanges(t *testing.T) {
	h, fixture, _ := setupTestHandlers(t)
	fixture.WaitStatus(core.CompileStatusPass)
	fixture.WaitMaterial()

	body := runUpdates(t, h, 100*time.Millisecond, func() {})
	assert.Equal(t, 0, strings.Count(body, "event:"))
}

// updatesReturns runs Updates with a long deadline, calls stop once the stream
// is open, and reports whether the handler returned well before the deadline.
func updatesReturns(t *testing.T, h *Handlers, stop func()) bool {
	t.Helper()
	req, cancel := features.RequestWithTimeout(httptest.NewRequest(http.MethodGet, "/updates", nil), 5*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		h.Updates(httptest.NewRecorder(), req)
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	stop()

	select {
	case <-done:
		return true
	case <-time.After(time.Second):
		return false
	}
}

func TestUpdates_EndsWhenEditorNotifierCloses(t *testing.T) {
	h, fixture, notify := setupTestHandlers(t)
	fixture.WaitStatus(core.CompileStatusPass)

	assert.True(t, updatesReturns(t, h, notify.Close))
}

func TestUpdates_EndsWhenRenderLoopStops(t *testing.T) {
	eng, err := engine.New(engine.Config{
		ShadersDir: filepath.Join(t.TempDir(), "shaders"),
		Compile:    config.CompileConfig{QuietPeriod: 10 * time.Millisecond},
		Preview:    config.PreviewConfig{FPS: 60},
	})
	require.NoError(t, err)

	sessCtx, sessCancel := context.WithCancel(context.Background())
	loopCtx, loopCancel := context.WithCancel(context.Background())
	sessDone := make(chan struct{})
	loopDone := make(chan struct{})
	go func() {
		defer close(sessDone)
		_ = eng.Session().Run(sessCtx)
	}()
	go func() {
		defer close(loopDone)
		_ = eng.Loop().Run(loopCtx)
	}()
	t.Cleanup(func() {
		loopCancel()
		sessCancel()
		<-loopDone
		<-sessDone
	})

	h := NewHandlers(eng, features.NewTestSessionStore(), notifier.New(), true)
	require.Eventually(t, func() bool {
		snap, err := eng.Session().Snapshot()
		return err == nil && snap.Status == core.CompileStatusPass
	}, 5*time.Second, 10*time.Millisecond)

	// The session keeps running; only the loop's notifier is closed.
	assert.True(t, updatesReturns(t, h, func() {
		loopCancel()
		<-loopDone
	}))
}

// =============================================================================
// Commands
// =============================================================================

func TestEdit(t *testing.T) {
	h, fixture, _ := setupTestHandlers(t)
	fixture.WaitStatus(core.CompileStatusPass)

	rec := httptest.NewRecorder()
	h.Edit(rec, jsonRequest(http.MethodPost, "/edit", `{"stage":"fragment","source":"// draft"}`))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	snap, err := fixture.Engine.Session().Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "// draft", snap.Editor.Fragment)

	rec = httptest.NewRecorder()
	h.Edit(rec, jsonRequest(http.MethodPost, "/edit", `{"stage":"geometry","source":""}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSwitchStage(t *testing.T) {
	h, fixture, _ := setupTestHandlers(t)
	snap := fixture.WaitStatus(core.CompileStatusPass)

	req := features.RequestWithPathParam(httptest.NewRequest(http.MethodPost, "/stage/fragment", nil), "stage", "fragment")
	rec := httptest.NewRecorder()
	h.SwitchStage(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "datastar-patch-signals")
	assert.Contains(t, body, "stage-tabs")

	var signals struct {
		Source string `json:"source"`
	}
	for _, line := range strings.Split(body, "\n") {
		if rest, ok := strings.CutPrefix(line, "data: signals "); ok {
			require.NoError(t, json.Unmarshal([]byte(rest), &signals))
		}
	}
	assert.Equal(t, snap.Committed.Fragment, signals.Source)

	req = features.RequestWithPathParam(httptest.NewRequest(http.MethodPost, "/stage/geometry", nil), "stage", "geometry")
	rec = httptest.NewRecorder()
	h.SwitchStage(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateSettings(t *testing.T) {
	h, fixture, _ := setupTestHandlers(t)
	fixture.WaitStatus(core.CompileStatusPass)

	rec := httptest.NewRecorder()
	h.UpdateSettings(rec, jsonRequest(http.MethodPost, "/settings", `{"transparent":true,"rotate":false}`))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "setSettings")

	settings, err := fixture.Engine.Session().Settings()
	require.NoError(t, err)
	assert.Equal(t, session.Settings{TransparentBackground: true, AutoRotate: false}, settings)
}

func TestRenderError(t *testing.T) {
	h, fixture, _ := setupTestHandlers(t)
	fixture.WaitStatus(core.CompileStatusPass)
	fixture.WaitMaterial()

	rec := httptest.NewRecorder()
	h.RenderError(rec, jsonRequest(http.MethodPost, "/render-error", `{"message":"link failed"}`))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	snap, err := fixture.Engine.Session().Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.Report.Runtime, 1)
	assert.Equal(t, core.KindRender, snap.Report.Runtime[0].Kind)
	assert.Equal(t, core.StageFragment, snap.Report.Runtime[0].Stage)
	assert.Contains(t, snap.Report.Runtime[0].Message, "link failed")

	rec = httptest.NewRecorder()
	h.RenderError(rec, jsonRequest(http.MethodPost, "/render-error", `{"message":"  "}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSave(t *testing.T) {
	h, fixture, _ := setupTestHandlers(t)
	snap := fixture.WaitStatus(core.CompileStatusPass)

	rec := httptest.NewRecorder()
	h.Save(rec, httptest.NewRequest(http.MethodPost, "/save", nil))
	assert.Contains(t, rec.Body.String(), "saved")

	got, err := engine.ReadShaders(fixture.ShadersDir)
	require.NoError(t, err)
	assert.Equal(t, snap.Committed, got)
}

func TestSave_RefusesFailingSession(t *testing.T) {
	h, fixture, _ := setupTestHandlers(t)
	fixture.WaitStatus(core.CompileStatusPass)
	require.NoError(t, fixture.Engine.Session().Edit(core.StageFragment, "@fragment fn fs_main( {"))
	fixture.WaitStatus(core.CompileStatusFail)

	rec := httptest.NewRecorder()
	h.Save(rec, httptest.NewRequest(http.MethodPost, "/save", nil))
	assert.Contains(t, rec.Body.String(), "not saved")
	assert.False(t, engine.ShadersExist(fixture.ShadersDir))
}

func TestStateAndMaterialJSON(t *testing.T) {
	h, fixture, _ := setupTestHandlers(t)
	fixture.WaitStatus(core.CompileStatusPass)
	fixture.WaitMaterial()

	rec := httptest.NewRecorder()
	h.State(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var state map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "pass", state["status"])

	rec = httptest.NewRecorder()
	h.Material(rec, httptest.NewRequest(http.MethodGet, "/api/material", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var m MaterialView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.NotEmpty(t, m.Hash)
	assert.NotEmpty(t, m.Fragment)
}

// =============================================================================
// Components
// =============================================================================

func TestComponents(t *testing.T) {
	ctx := context.Background()
	col := 4
	report := core.ErrorReport{
		Detailed: []core.StructuredError{{Stage: core.StageFragment, Line: 2, Column: &col, Message: "expected <expr>"}},
		Runtime:  []core.StructuredError{{Stage: core.StageVertex, Message: "boom", Kind: core.KindRender}},
	}

	var sb strings.Builder
	require.NoError(t, Diagnostics(report).Render(ctx, &sb))
	assert.Contains(t, sb.String(), "expected &lt;expr&gt;")
	assert.Contains(t, sb.String(), `class="render"`)

	sb.Reset()
	require.NoError(t, Tabs(session.Snapshot{Active: core.StageFragment, Report: report}).Render(ctx, &sb))
	html := sb.String()
	assert.Contains(t, html, `data-on:click="@post(&#39;/stage/vertex&#39;)"`)
	assert.Contains(t, html, `class="tab active" data-on:click="@post(&#39;/stage/fragment&#39;)"`)
	assert.Equal(t, 2, strings.Count(html, `class="count"`))

	js, err := materialJS(&MaterialView{Hash: "h", Fragment: "</script>"})
	require.NoError(t, err)
	assert.NotContains(t, js, "</script>")
}
