package session

import (
	"time"

	"github.com/leapstack-labs/leapshader/internal/pipeline"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

// Token identifies one validation attempt. Seq is the draft sequence number
// the attempt observed.
type Token struct {
	Seq       uint64
	Stage     core.Stage
	Text      string
	Pair      core.SourcePair
	Origin    string
	Scheduled time.Time
}

// Stats counts scheduler and pipeline activity for the session.
type Stats struct {
	Edits      uint64 `json:"edits"`
	Cancelled  uint64 `json:"cancelled"`
	Dispatched uint64 `json:"dispatched"`
	Applied    uint64 `json:"applied"`
	Discarded  uint64 `json:"discarded"`
	Failures   uint64 `json:"failures"`
}

// transition is the state change a completed attempt is allowed to make.
type transition struct {
	stale  bool
	status core.CompileStatus
	report core.ErrorReport
	commit bool
	pair   core.SourcePair
}

// resolve decides what a completed attempt writes. An attempt whose token is
// not the latest scheduled sequence writes nothing.
func resolve(tok Token, latest uint64, out pipeline.Outcome) transition {
	if tok.Seq != latest {
		return transition{stale: true}
	}
	if out.Passed() {
		return transition{
			status: core.CompileStatusPass,
			report: core.ErrorReport{},
			commit: true,
			pair:   out.Pair,
		}
	}
	return transition{
		status: core.CompileStatusFail,
		report: out.Report.Clone(),
	}
}
