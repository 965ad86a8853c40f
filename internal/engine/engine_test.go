package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapshader/internal/config"
	"github.com/leapstack-labs/leapshader/internal/examples"
	"github.com/leapstack-labs/leapshader/internal/session"
	"github.com/leapstack-labs/leapshader/internal/testutil"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

// startEngine runs e until the test ends.
func startEngine(t *testing.T, e *Engine) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- e.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("engine did not stop")
		}
		_ = e.Close()
	})
}

func waitStatus(t *testing.T, e *Engine, want core.CompileStatus) session.Snapshot {
	t.Helper()
	var snap session.Snapshot
	require.Eventually(t, func() bool {
		var err error
		snap, err = e.Session().Snapshot()
		return err == nil && snap.Status == want
	}, 5*time.Second, 10*time.Millisecond)
	return snap
}

func defaultPair(t *testing.T) core.SourcePair {
	t.Helper()
	pair, err := examples.Builtin().Default()
	require.NoError(t, err)
	return pair
}

func TestNew_SeedsFromDefaultExample(t *testing.T) {
	e, err := New(Config{ShadersDir: filepath.Join(t.TempDir(), "missing"), Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	defer e.Close()

	pair, origin := e.Initial()
	assert.Equal(t, session.OriginExample, origin)
	assert.Equal(t, defaultPair(t), pair)
	assert.Nil(t, e.History())
	assert.Nil(t, e.GetStateStore())
}

func TestNew_SeedsFromShadersDir(t *testing.T) {
	dir := t.TempDir()
	want := defaultPair(t)
	require.NoError(t, WriteShaders(dir, want))

	e, err := New(Config{ShadersDir: dir})
	require.NoError(t, err)
	defer e.Close()

	pair, origin := e.Initial()
	assert.Equal(t, session.OriginStartup, origin)
	assert.Equal(t, want, pair)
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(Config{Compile: config.CompileConfig{SPIRVVersion: "7"}})
	assert.Error(t, err)

	_, err = New(Config{Preview: config.PreviewConfig{GLSLVersion: "es100"}})
	assert.Error(t, err)
}

func TestRun_PassBuildsMaterial(t *testing.T) {
	e, err := New(Config{
		StatePath: ":memory:",
		Preview:   config.PreviewConfig{FPS: 60},
		Logger:    testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	startEngine(t, e)

	snap := waitStatus(t, e, core.CompileStatusPass)
	assert.True(t, snap.Report.Empty())
	assert.Equal(t, defaultPair(t), snap.Committed)

	require.Eventually(t, func() bool {
		return e.Loop().Frame().Material != nil
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, snap.Committed, e.Loop().Frame().Material.Pair)

	require.Eventually(t, func() bool {
		attempts, err := e.GetStateStore().ListAttempts(0)
		return err == nil && len(attempts) == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestRun_EditFailureKeepsCommitted(t *testing.T) {
	e, err := New(Config{
		Compile: config.CompileConfig{QuietPeriod: 10 * time.Millisecond},
		Logger:  testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	startEngine(t, e)

	committed := waitStatus(t, e, core.CompileStatusPass).Committed

	require.NoError(t, e.Session().Edit(core.StageFragment, "@fragment fn fs_main( { return vec4<f32>(1.0); }"))
	snap := waitStatus(t, e, core.CompileStatusFail)

	assert.Equal(t, committed, snap.Committed)
	require.NotEmpty(t, snap.Report.Detailed)
	assert.Equal(t, core.StageFragment, snap.Report.Detailed[0].Stage)
}

func TestLoadExample(t *testing.T) {
	e, err := New(Config{Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	startEngine(t, e)
	waitStatus(t, e, core.CompileStatusPass)

	err = e.LoadExample("nope")
	assert.True(t, errors.Is(err, examples.ErrNotFound))

	require.NoError(t, e.LoadExample("circle"))
	want, err := e.Catalog().Source("circle")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		snap, err := e.Session().Snapshot()
		return err == nil && snap.Status == core.CompileStatusPass && snap.Committed == want
	}, 5*time.Second, 10*time.Millisecond)
}

func TestResume(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.db")
	circle, err := examples.Builtin().Source("circle")
	require.NoError(t, err)

	first, err := New(Config{StatePath: statePath, Initial: &circle})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- first.Run(ctx) }()
	waitStatus(t, first, core.CompileStatusPass)
	require.Eventually(t, func() bool {
		_, ok, err := first.History().Resume()
		return err == nil && ok
	}, 5*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	require.NoError(t, first.Close())

	second, err := New(Config{StatePath: statePath, Resume: true})
	require.NoError(t, err)
	defer second.Close()

	pair, origin := second.Initial()
	assert.Equal(t, session.OriginResume, origin)
	assert.Equal(t, circle, pair)
}

func TestCheck(t *testing.T) {
	pair := defaultPair(t)

	out, err := Check(context.Background(), config.CompileConfig{}, pair, nil)
	require.NoError(t, err)
	assert.True(t, out.Passed())

	broken := pair.With(core.StageVertex, "fn nope(")
	out, err = Check(context.Background(), config.CompileConfig{}, broken, nil)
	require.NoError(t, err)
	assert.Equal(t, core.CompileStatusFail, out.Status)
	assert.Equal(t, core.StageVertex, out.Report.Detailed[0].Stage)

	_, err = Check(context.Background(), config.CompileConfig{SPIRVVersion: "bad"}, pair, nil)
	assert.Error(t, err)
}

func TestShaderFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shaders")
	assert.False(t, ShadersExist(dir))

	_, err := ReadShaders(dir)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	pair := core.SourcePair{Vertex: "v", Fragment: "f"}
	require.NoError(t, WriteShaders(dir, pair))
	assert.True(t, ShadersExist(dir))

	got, err := ReadShaders(dir)
	require.NoError(t, err)
	assert.Equal(t, pair, got)

	stage, ok := StageForFile(filepath.Join(dir, "fragment.wgsl"))
	assert.True(t, ok)
	assert.Equal(t, core.StageFragment, stage)
	_, ok = StageForFile("notes.txt")
	assert.False(t, ok)
}

func TestWatch_FeedsFileEdits(t *testing.T) {
	dir := t.TempDir()
	pair := defaultPair(t)
	require.NoError(t, WriteShaders(dir, pair))

	e, err := New(Config{
		ShadersDir: dir,
		Compile:    config.CompileConfig{QuietPeriod: 10 * time.Millisecond},
		Logger:     testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	startEngine(t, e)
	waitStatus(t, e, core.CompileStatusPass)

	ctx, cancel := context.WithCancel(context.Background())
	changed := make(chan core.Stage, 4)
	watchDone := make(chan error, 1)
	go func() { watchDone <- e.Watch(ctx, func(s core.Stage) { changed <- s }) }()
	defer func() {
		cancel()
		assert.NoError(t, <-watchDone)
	}()

	// Give the watcher time to register the directory.
	time.Sleep(50 * time.Millisecond)

	// Rewriting identical text is not an edit.
	require.NoError(t, WriteShaders(dir, pair))
	edited := pair.Fragment + "\n// tweak\n"
	require.NoError(t, os.WriteFile(ShaderPath(dir, core.StageFragment), []byte(edited), 0o600))

	select {
	case stage := <-changed:
		assert.Equal(t, core.StageFragment, stage)
	case <-time.After(5 * time.Second):
		t.Fatal("file change was not applied")
	}

	snap := waitStatus(t, e, core.CompileStatusPass)
	assert.Equal(t, edited, snap.Editor.Fragment)
	assert.Len(t, changed, 0)
}

func TestWatch_RequiresShadersDir(t *testing.T) {
	e, err := New(Config{})
	require.NoError(t, err)
	defer e.Close()
	assert.Error(t, e.Watch(context.Background(), nil))
}
