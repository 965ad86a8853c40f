package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// SourcePair is a complete vertex + fragment source snapshot.
// It is a value type: sessions replace it wholesale and compare it by value.
type SourcePair struct {
	Vertex   string `json:"vertex"`
	Fragment string `json:"fragment"`
}

// Get returns the text for the given stage.
func (p SourcePair) Get(stage Stage) string {
	if stage == StageFragment {
		return p.Fragment
	}
	return p.Vertex
}

// With returns a copy of p with the given stage replaced.
func (p SourcePair) With(stage Stage, text string) SourcePair {
	if stage == StageFragment {
		p.Fragment = text
	} else {
		p.Vertex = text
	}
	return p
}

// IsZero reports whether both stages are empty.
func (p SourcePair) IsZero() bool {
	return p.Vertex == "" && p.Fragment == ""
}

// Hash returns a stable content hash of the pair.
func (p SourcePair) Hash() string {
	h := sha256.New()
	_, _ = h.Write([]byte(p.Vertex))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(p.Fragment))
	return hex.EncodeToString(h.Sum(nil))
}
