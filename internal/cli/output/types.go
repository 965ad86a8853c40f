package output

import "time"

// DiagnosticInfo is one structured error in JSON output.
type DiagnosticInfo struct {
	Stage   string `json:"stage"`
	Line    int    `json:"line"`
	Column  *int   `json:"column,omitempty"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

// CheckOutput is the JSON output for the check command.
type CheckOutput struct {
	Status      string           `json:"status"`
	Vertex      string           `json:"vertex"`
	Fragment    string           `json:"fragment"`
	Hash        string           `json:"hash"`
	DurationMS  int64            `json:"duration_ms"`
	Diagnostics []DiagnosticInfo `json:"diagnostics"`
	Pretty      []string         `json:"pretty"`
}

// AttemptInfo is one compile attempt in JSON output.
type AttemptInfo struct {
	ID          string    `json:"id"`
	Seq         uint64    `json:"seq"`
	Status      string    `json:"status"`
	Hash        string    `json:"hash"`
	Diagnostics int       `json:"diagnostics"`
	Origin      string    `json:"origin"`
	DurationMS  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// HistoryOutput is the JSON output for the history command.
type HistoryOutput struct {
	Attempts []AttemptInfo  `json:"attempts"`
	Summary  HistorySummary `json:"summary"`
}

// HistorySummary counts attempts by status.
type HistorySummary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// ExampleInfo is one example in JSON output.
type ExampleInfo struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Builtin     bool   `json:"builtin"`
	Default     bool   `json:"default"`
}

// ExamplesOutput is the JSON output for the examples command.
type ExamplesOutput struct {
	Examples []ExampleInfo `json:"examples"`
}
