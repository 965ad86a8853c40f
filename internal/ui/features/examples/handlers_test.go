package examples

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapshader/internal/examples"
	"github.com/leapstack-labs/leapshader/internal/notifier"
	"github.com/leapstack-labs/leapshader/internal/ui/features"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

func setupTestHandlers(t *testing.T) (*Handlers, *features.TestFixture, *notifier.Notifier) {
	t.Helper()
	fixture := features.SetupTestFixture(t)
	notify := notifier.New()
	return NewHandlers(fixture.Engine, notify), fixture, notify
}

func TestList(t *testing.T) {
	h, _, _ := setupTestHandlers(t)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/examples", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var got []examples.Example
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.NotEmpty(t, got)
}

func TestLoad_UnknownExample(t *testing.T) {
	h, _, _ := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/examples/nope", nil)
	req = features.RequestWithPathParam(req, "name", "nope")
	rec := httptest.NewRecorder()
	h.Load(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLoad_CommitsExample(t *testing.T) {
	h, fixture, notify := setupTestHandlers(t)
	fixture.WaitStatus(core.CompileStatusPass)

	pings := notify.Subscribe()
	defer notify.Unsubscribe(pings)

	req := httptest.NewRequest(http.MethodPost, "/examples/circle", nil)
	req = features.RequestWithPathParam(req, "name", "circle")
	rec := httptest.NewRecorder()
	h.Load(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "event:")
	assert.Contains(t, rec.Body.String(), "examples")

	select {
	case <-pings:
	case <-time.After(time.Second):
		t.Fatal("editor listeners were not notified")
	}

	want, err := fixture.Engine.Catalog().Source("circle")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		snap, err := fixture.Engine.Session().Snapshot()
		return err == nil && snap.Committed == want && snap.Load == core.LoadStatusIdle
	}, 5*time.Second, 10*time.Millisecond)
}

func TestMenu(t *testing.T) {
	list := []examples.Example{{Name: "circle", Title: "Circle <1>"}, {Name: "plain"}}

	var sb strings.Builder
	require.NoError(t, Menu(list, core.LoadStatusIdle).Render(t.Context(), &sb))
	html := sb.String()
	assert.Contains(t, html, `id="examples"`)
	assert.Contains(t, html, `value="circle"`)
	assert.Contains(t, html, "Circle &lt;1&gt;")
	assert.Contains(t, html, ">plain</option>")
	assert.NotContains(t, html, "disabled")

	sb.Reset()
	require.NoError(t, Menu(list, core.LoadStatusLoading).Render(t.Context(), &sb))
	assert.Contains(t, sb.String(), "disabled")
}
