package session

import "github.com/leapstack-labs/leapshader/pkg/core"

// Workspace tracks the editing surface: which stage is mounted, the
// uncommitted draft per stage, and the nominal pair drafts fall back to.
//
// The nominal pair equals the committed pair except after a tab switch
// folded a draft into it. The union of nominal and drafts is what the
// scheduler validates.
type Workspace struct {
	active  core.Stage
	nominal core.SourcePair
	drafts  [2]*string
}

// NewWorkspace creates a workspace mounted on the vertex stage.
func NewWorkspace(committed core.SourcePair) *Workspace {
	return &Workspace{
		active:  core.StageVertex,
		nominal: committed,
	}
}

// Active returns the mounted stage.
func (w *Workspace) Active() core.Stage {
	return w.active
}

// Nominal returns the nominal pair.
func (w *Workspace) Nominal() core.SourcePair {
	return w.nominal
}

// SetDraft records text as the pending draft for stage.
func (w *Workspace) SetDraft(stage core.Stage, text string) {
	w.drafts[stage] = &text
}

// Draft returns the pending draft for stage, if any.
func (w *Workspace) Draft(stage core.Stage) (string, bool) {
	if d := w.drafts[stage]; d != nil {
		return *d, true
	}
	return "", false
}

// Text returns what the editor for stage shows: its draft, else nominal text.
func (w *Workspace) Text(stage core.Stage) string {
	if d, ok := w.Draft(stage); ok {
		return d
	}
	return w.nominal.Get(stage)
}

// Union returns the nominal pair overlaid with every pending draft.
func (w *Workspace) Union() core.SourcePair {
	return core.SourcePair{
		Vertex:   w.Text(core.StageVertex),
		Fragment: w.Text(core.StageFragment),
	}
}

// Switch mounts stage to and returns its seed text.
//
// When status is not PASS the leaving stage's draft is folded into the
// nominal pair, so it is reapplied when that stage is mounted again. The
// other stage keeps its nominal text. Switch never triggers a compile and
// never touches the status.
func (w *Workspace) Switch(to core.Stage, status core.CompileStatus) (seed string, merged bool) {
	if to == w.active {
		return w.Text(to), false
	}
	leaving := w.active
	if status != core.CompileStatusPass {
		if d, ok := w.Draft(leaving); ok {
			w.nominal = w.nominal.With(leaving, d)
			w.drafts[leaving] = nil
			merged = true
		}
	}
	w.active = to
	return w.Text(to), merged
}

// Commit makes pair the nominal pair and drops drafts it already contains.
func (w *Workspace) Commit(pair core.SourcePair) {
	w.nominal = pair
	for _, stage := range core.Stages {
		if d, ok := w.Draft(stage); ok && d == pair.Get(stage) {
			w.drafts[stage] = nil
		}
	}
}

// Reset replaces the nominal pair and discards every draft.
func (w *Workspace) Reset(pair core.SourcePair) {
	w.nominal = pair
	w.drafts = [2]*string{}
}
