package history

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapshader/internal/engine"
	"github.com/leapstack-labs/leapshader/internal/ui/features"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

func TestHistoryPage(t *testing.T) {
	fixture := features.SetupTestFixture(t)
	fixture.WaitStatus(core.CompileStatusPass)
	require.Eventually(t, func() bool {
		attempts, err := fixture.Engine.GetStateStore().ListAttempts(0)
		return err == nil && len(attempts) > 0
	}, 5*time.Second, 10*time.Millisecond)

	h := NewHandlers(fixture.Engine, false)
	rec := httptest.NewRecorder()
	h.HistoryPage(rec, httptest.NewRequest(http.MethodGet, "/history", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<title>History - LeapShader</title>")
	assert.Contains(t, body, "status-pass")
	assert.Contains(t, body, "example")
	assert.NotContains(t, body, "/reload")
}

func TestHistoryJSON(t *testing.T) {
	fixture := features.SetupTestFixture(t)
	fixture.WaitStatus(core.CompileStatusPass)
	require.Eventually(t, func() bool {
		attempts, err := fixture.Engine.GetStateStore().ListAttempts(0)
		return err == nil && len(attempts) > 0
	}, 5*time.Second, 10*time.Millisecond)

	h := NewHandlers(fixture.Engine, false)
	rec := httptest.NewRecorder()
	h.HistoryJSON(rec, httptest.NewRequest(http.MethodGet, "/api/history?limit=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got []core.CompileAttempt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, core.CompileStatusPass, got[0].Status)
}

func TestHistory_Disabled(t *testing.T) {
	eng, err := engine.New(engine.Config{ShadersDir: filepath.Join(t.TempDir(), "shaders")})
	require.NoError(t, err)
	defer eng.Close()

	h := NewHandlers(eng, true)

	rec := httptest.NewRecorder()
	h.HistoryPage(rec, httptest.NewRequest(http.MethodGet, "/history", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "History is disabled")

	rec = httptest.NewRecorder()
	h.HistoryJSON(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLimitParam(t *testing.T) {
	tests := map[string]int{"": DefaultLimit, "?limit=3": 3, "?limit=-1": DefaultLimit, "?limit=x": DefaultLimit}
	for query, want := range tests {
		r := httptest.NewRequest(http.MethodGet, "/history"+query, nil)
		assert.Equal(t, want, limitParam(r), query)
	}
}

func TestAttemptTable_Empty(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, AttemptTable(nil, true).Render(t.Context(), &sb))
	assert.Contains(t, sb.String(), "No compile attempts")
}
