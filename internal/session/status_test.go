package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/leapshader/internal/pipeline"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

func TestResolve(t *testing.T) {
	pair := core.SourcePair{Vertex: "v", Fragment: "f"}
	failReport := core.ErrorReport{
		Detailed: []core.StructuredError{{Stage: core.StageFragment, Line: 1, Message: "x"}},
		Pretty:   []string{"Fragment 1: x"},
	}
	pass := pipeline.Outcome{Status: core.CompileStatusPass, Pair: pair}
	fail := pipeline.Outcome{Status: core.CompileStatusFail, Pair: pair, Report: failReport}

	tests := []struct {
		name       string
		tok        Token
		latest     uint64
		out        pipeline.Outcome
		wantStale  bool
		wantStatus core.CompileStatus
		wantCommit bool
	}{
		{"latest pass commits", Token{Seq: 3}, 3, pass, false, core.CompileStatusPass, true},
		{"latest fail does not commit", Token{Seq: 3}, 3, fail, false, core.CompileStatusFail, false},
		{"older pass is stale", Token{Seq: 2}, 3, pass, true, "", false},
		{"older fail is stale", Token{Seq: 2}, 3, fail, true, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolve(tt.tok, tt.latest, tt.out)
			assert.Equal(t, tt.wantStale, got.stale)
			assert.Equal(t, tt.wantStatus, got.status)
			assert.Equal(t, tt.wantCommit, got.commit)
			if got.status == core.CompileStatusPass {
				assert.True(t, got.report.Empty())
				assert.Equal(t, pair, got.pair)
			}
			if got.status == core.CompileStatusFail {
				assert.NotEmpty(t, got.report.Detailed)
				assert.NotEmpty(t, got.report.Pretty)
			}
		})
	}
}
