package core

import (
	"fmt"
	"strings"
)

// Stage identifies one programmable stage of a render pipeline.
type Stage int

// Shader stages edited by the tool.
const (
	StageVertex Stage = iota
	StageFragment
)

// Stages lists every editable stage in tab order.
var Stages = []Stage{StageVertex, StageFragment}

// String returns the display name of the stage.
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "Vertex"
	case StageFragment:
		return "Fragment"
	default:
		return "Unknown"
	}
}

// Other returns the opposite stage.
func (s Stage) Other() Stage {
	if s == StageVertex {
		return StageFragment
	}
	return StageVertex
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	return s == StageVertex || s == StageFragment
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(s.String())), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stage) UnmarshalText(text []byte) error {
	stage, ok := ParseStage(string(text))
	if !ok {
		return fmt.Errorf("unknown stage: %q", string(text))
	}
	*s = stage
	return nil
}

// ParseStage converts a string to a Stage value.
// Accepts full names and the common short forms (vert, frag, vs, fs).
func ParseStage(s string) (Stage, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vertex", "vert", "vs":
		return StageVertex, true
	case "fragment", "frag", "fs":
		return StageFragment, true
	default:
		return StageVertex, false
	}
}
