// Package output renders command results for terminals, pipes and scripts.
//
// Output adapts to the environment: styled text on a TTY, markdown when
// piped, and JSON on request.
package output

import (
	"fmt"
	"strings"
)

// Mode selects how results are rendered.
type Mode string

// OutputMode is kept for callers that spell the type out in full.
type OutputMode = Mode

// Output modes.
const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

// ParseMode validates a --output value. The empty string means auto.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeText, ModeMarkdown, ModeJSON:
		return m, nil
	case "md":
		return ModeMarkdown, nil
	default:
		return "", fmt.Errorf("unknown output mode %q", s)
	}
}
