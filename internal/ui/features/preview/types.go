package preview

import (
	"github.com/leapstack-labs/leapshader/internal/examples"
	"github.com/leapstack-labs/leapshader/internal/preview"
	"github.com/leapstack-labs/leapshader/internal/session"
)

// SessionKeyStage is the cookie session key holding the browser's tab.
const SessionKeyStage = "stage"

// EditSignals is posted by the editor on every input.
type EditSignals struct {
	Stage  string `json:"stage"`
	Source string `json:"source"`
}

// SettingsSignals is posted when a preview toggle changes.
type SettingsSignals struct {
	Transparent bool `json:"transparent"`
	Rotate      bool `json:"rotate"`
}

// RenderErrorRequest is posted by the browser when WebGL rejects a material.
type RenderErrorRequest struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// MaterialView is the part of a material the browser needs.
type MaterialView struct {
	Hash     string `json:"hash"`
	Vertex   string `json:"vertex"`
	Fragment string `json:"fragment"`
}

// NewMaterialView returns nil when m is nil.
func NewMaterialView(m *preview.Material) *MaterialView {
	if m == nil {
		return nil
	}
	return &MaterialView{Hash: m.Hash, Vertex: m.VertexGLSL, Fragment: m.FragmentGLSL}
}

// WorkbenchData is everything the preview page renders.
type WorkbenchData struct {
	Snapshot session.Snapshot
	Examples []examples.Example
	Frame    preview.Frame
}
