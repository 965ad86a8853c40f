package preview

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapshader/internal/testutil"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

func TestLoop_Step(t *testing.T) {
	s, st, _ := newTestSync(t)
	l := NewLoop(LoopConfig{Synchronizer: s, Logger: testutil.NewTestLogger(t)})

	ch := l.Subscribe()
	defer l.Unsubscribe(ch)

	l.Step(context.Background(), 0)
	assert.Equal(t, uint64(1), l.Frame().N)
	assert.Nil(t, l.Frame().Material)

	st.set(core.CompileStatusPass, core.SourcePair{Vertex: "v"})
	l.Step(context.Background(), 40*time.Millisecond)

	frame := l.Frame()
	assert.Equal(t, uint64(2), frame.N)
	assert.Equal(t, 40*time.Millisecond, frame.Time)
	require.NotNil(t, frame.Material)
	assert.Equal(t, "v", frame.Material.Pair.Vertex)

	select {
	case <-ch:
	default:
		t.Fatal("expected a ping for the new material")
	}
}

func TestLoop_RunTicksAtFPS(t *testing.T) {
	s, st, _ := newTestSync(t)
	st.set(core.CompileStatusPass, core.SourcePair{Vertex: "v"})
	mock := clock.NewMock()
	l := NewLoop(LoopConfig{Synchronizer: s, FPS: 10, Clock: mock, Logger: testutil.NewTestLogger(t)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = l.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		mock.Add(100 * time.Millisecond)
		return l.Frame().N >= 3
	}, time.Second, 5*time.Millisecond)

	assert.NotNil(t, l.Frame().Material)

	cancel()
	<-done
	assert.Equal(t, 1, s.Builds())
}
