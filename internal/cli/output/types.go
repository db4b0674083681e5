package output

import "time"

// CompileOutput is the JSON form of a compile command result.
type CompileOutput struct {
	Config     string   `json:"config"`
	Output     string   `json:"output,omitempty"`
	Written    bool     `json:"written"`
	Skipped    bool     `json:"skipped"`
	Device     string   `json:"device,omitempty"`
	Tokens     []string `json:"tokens"`
	Imports    []string `json:"imports,omitempty"`
	Constants  []string `json:"constants,omitempty"`
	Source     string   `json:"source,omitempty"`
	DurationMs int64    `json:"duration_ms"`
}

// CatalogOutput is the JSON form of the driver catalog.
type CatalogOutput struct {
	Display  []string `json:"display"`
	Indev    []string `json:"indev"`
	Expander []string `json:"io_expander"`
}

// BuildInfo is one build history entry.
type BuildInfo struct {
	ID         string    `json:"id"`
	Config     string    `json:"config"`
	Status     string    `json:"status"`
	Device     string    `json:"device,omitempty"`
	Tokens     []string  `json:"tokens,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
}

// HistoryOutput is the JSON form of the history command.
type HistoryOutput struct {
	Builds []BuildInfo `json:"builds"`
	Pruned int64       `json:"pruned,omitempty"`
}
