package audit

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const genesisInput = "gsh-genesis"

// Logger is an append-only, hash-chained audit log writer. It is safe for
// concurrent use within one process.
type Logger struct {
	mu       sync.Mutex
	path     string
	seq      uint64
	prevHash string
}

// NewLogger opens or creates an audit log at the given path.
// It reads the last entry to resume the hash chain.
func NewLogger(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}

	l := &Logger{
		path:     path,
		prevHash: genesisHash(),
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	if lines := splitLines(data); len(lines) > 0 {
		var last Entry
		if err := json.Unmarshal(lines[len(lines)-1], &last); err != nil {
			return nil, &ChainError{Line: len(lines), Reason: "last entry is not valid JSON"}
		}
		l.seq = last.Seq
		l.prevHash = last.Hash
	}
	return l, nil
}

// Log appends r to the log.
func (l *Logger) Log(r Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{
		Seq:        l.seq + 1,
		Time:       time.Now().UTC(),
		PrevHash:   l.prevHash,
		Invocation: r.Invocation,
		Line:       r.Line,
		Commands:   r.Commands,
		Outcome:    r.Outcome,
		ExitCode:   r.ExitCode,
		Duration:   float64(r.Duration.Microseconds()) / 1000.0,
		Cwd:        r.Cwd,
		Source:     r.Source,
	}
	if r.Err != nil {
		entry.Error = r.Err.Error()
	}
	entry.Hash = computeHash(entry)

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}

	// Advance only once the entry is on disk.
	l.seq = entry.Seq
	l.prevHash = entry.Hash
	return nil
}

// Path returns the audit log file path.
func (l *Logger) Path() string {
	return l.path
}

func genesisHash() string {
	h := sha256.Sum256([]byte(genesisInput))
	return fmt.Sprintf("%x", h)
}

func computeHash(e Entry) string {
	e.Hash = ""
	data, _ := json.Marshal(e)
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h)
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				lines = append(lines, data[start:i])
			}
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}
