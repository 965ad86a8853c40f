package session

import (
	"github.com/leapstack-labs/leapshader/internal/pipeline"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

// schedule handles one keystroke: record the draft, go COMPILING and
// restart the quiet-period timer.
func (s *Session) schedule(stage core.Stage, text string) {
	s.workspace.SetDraft(stage, text)
	s.seq++
	s.stats.Edits++
	s.status = core.CompileStatusCompiling

	if s.stopTimer() {
		s.stats.Cancelled++
	}
	s.timerGen++
	gen, seq := s.timerGen, s.seq
	s.timer = s.clock.AfterFunc(s.quiet, func() {
		s.post(func() { s.fire(gen, stage) })
	})

	s.logger.Debug("compile scheduled", "seq", seq, "stage", stage, "quiet", s.quiet)
	s.changed()
}

// stopTimer cancels the pending timer and reports whether one was pending.
func (s *Session) stopTimer() bool {
	if s.timer == nil {
		return false
	}
	stopped := s.timer.Stop()
	s.timer = nil
	return stopped
}

// fire runs when the quiet period of timer generation gen elapses.
func (s *Session) fire(gen uint64, stage core.Stage) {
	if gen != s.timerGen || s.timer == nil {
		// superseded after the callback was already queued
		return
	}
	s.timer = nil

	pair := s.workspace.Union()
	s.dispatch(Token{
		Seq:       s.seq,
		Stage:     stage,
		Text:      pair.Get(stage),
		Pair:      pair,
		Origin:    OriginEdit,
		Scheduled: s.clock.Now(),
	})
}

// loadPair replaces the source wholesale and validates it immediately.
func (s *Session) loadPair(pair core.SourcePair, origin string) {
	if s.stopTimer() {
		s.stats.Cancelled++
	}
	s.timerGen++
	s.seq++
	s.status = core.CompileStatusCompiling
	s.workspace.Reset(pair)
	s.load = core.LoadStatusLoading
	s.origin = origin

	active := s.workspace.Active()
	s.dispatch(Token{
		Seq:       s.seq,
		Stage:     active,
		Text:      pair.Get(active),
		Pair:      pair,
		Origin:    origin,
		Scheduled: s.clock.Now(),
	})
	s.changed()
}

// dispatch hands tok to a worker. The worker posts the outcome back to the
// loop; the attempt itself is never canceled by later edits.
func (s *Session) dispatch(tok Token) {
	s.stats.Dispatched++
	s.logger.Debug("validation dispatched", "seq", tok.Seq, "origin", tok.Origin)

	ctx := s.ctx
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		out := s.validate(tok)
		if ctx.Err() != nil {
			return
		}
		s.post(func() { s.complete(tok, out) })
	}()
}

func (s *Session) validate(tok Token) pipeline.Outcome {
	if s.validator == nil {
		return pipeline.New(pipeline.Config{Logger: s.logger}).Validate(s.ctx, tok.Pair)
	}
	return s.validator.Validate(s.ctx, tok.Pair)
}

// complete applies out if tok is still the latest attempt. The staleness
// check and the write happen in the same loop event.
func (s *Session) complete(tok Token, out pipeline.Outcome) {
	t := resolve(tok, s.seq, out)
	if t.stale {
		s.stats.Discarded++
		s.logger.Debug("stale result discarded", "seq", tok.Seq, "latest", s.seq, "status", out.Status)
		return
	}

	runtime := s.report.Runtime
	s.status = t.status
	s.report = t.report
	s.report.Runtime = runtime
	if t.commit {
		s.committed = t.pair
		s.workspace.Commit(t.pair)
	}
	if out.Status == core.CompileStatusFail {
		s.stats.Failures++
	}
	s.stats.Applied++
	s.load = core.LoadStatusIdle
	s.lastApply = s.clock.Now()

	s.logger.Info("compile applied",
		"seq", tok.Seq,
		"status", t.status,
		"diagnostics", len(t.report.Detailed),
		"origin", tok.Origin)

	if s.recorder != nil {
		if err := s.recorder.RecordOutcome(s.ctx, tok, out); err != nil {
			s.logger.Warn("failed to record compile outcome", "seq", tok.Seq, "error", err)
		}
	}
	s.changed()
}
