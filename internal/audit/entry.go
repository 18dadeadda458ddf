// Package audit keeps an append-only, hash-chained JSONL record of executed
// command lines.
package audit

import "time"

// Entry is a single audit log record.
type Entry struct {
	Seq        uint64    `json:"seq"`
	Time       time.Time `json:"ts"`
	PrevHash   string    `json:"prev_hash"`
	Invocation string    `json:"invocation"`       // correlates with log lines
	Line       string    `json:"line"`             // command line as typed
	Commands   []string  `json:"commands"`         // command name of every stage
	Outcome    string    `json:"outcome"`          // success, failure or notified
	ExitCode   int       `json:"exit_code"`        // 0 = success
	Error      string    `json:"error,omitempty"`  // failure message
	Duration   float64   `json:"duration_ms"`      // execution time in milliseconds
	Cwd        string    `json:"cwd,omitempty"`    // working directory
	Source     string    `json:"source,omitempty"` // interactive, command, mcp
	Hash       string    `json:"hash"`             // SHA-256 of this entry with Hash empty
}

// Record is what the caller knows about one executed line.
type Record struct {
	Invocation string
	Line       string
	Commands   []string
	Outcome    string
	ExitCode   int
	Err        error
	Duration   time.Duration
	Cwd        string
	Source     string
}
