// Package features provides shared test utilities for UI feature tests.
package features

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapshader/internal/config"
	"github.com/leapstack-labs/leapshader/internal/engine"
	"github.com/leapstack-labs/leapshader/internal/session"
	"github.com/leapstack-labs/leapshader/internal/testutil"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Engine       *engine.Engine
	SessionStore *sessions.CookieStore
	ShadersDir   string

	t *testing.T
}

// SetupTestFixture creates a running engine backed by an in-memory history.
// The shaders directory starts empty, so the session is seeded from the
// default example.
func SetupTestFixture(t *testing.T) *TestFixture {
	t.Helper()

	shadersDir := filepath.Join(t.TempDir(), "shaders")

	eng, err := engine.New(engine.Config{
		ShadersDir: shadersDir,
		StatePath:  ":memory:",
		Compile:    config.CompileConfig{QuietPeriod: 10 * time.Millisecond},
		Preview:    config.PreviewConfig{FPS: 60},
		Logger:     testutil.NewTestLogger(t),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("engine did not stop")
		}
		_ = eng.Close()
	})

	return &TestFixture{
		Engine:       eng,
		SessionStore: NewTestSessionStore(),
		ShadersDir:   shadersDir,
		t:            t,
	}
}

// WaitStatus blocks until the session reaches want and returns its snapshot.
func (f *TestFixture) WaitStatus(want core.CompileStatus) session.Snapshot {
	f.t.Helper()
	var snap session.Snapshot
	require.Eventually(f.t, func() bool {
		var err error
		snap, err = f.Engine.Session().Snapshot()
		return err == nil && snap.Status == want
	}, 5*time.Second, 10*time.Millisecond)
	return snap
}

// WaitMaterial blocks until the render loop holds a material.
func (f *TestFixture) WaitMaterial() {
	f.t.Helper()
	require.Eventually(f.t, func() bool {
		return f.Engine.Loop().Frame().Material != nil
	}, 5*time.Second, 10*time.Millisecond)
}

// RequestWithPathParam wraps a request with chi URL params.
func RequestWithPathParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// RequestWithTimeout wraps a request with a context timeout. The returned
// cancel func must be called by the test.
func RequestWithTimeout(r *http.Request, timeout time.Duration) (*http.Request, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	return r.WithContext(ctx), cancel
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}
