package audit

import (
	"encoding/json"
	"fmt"
	"os"
)

// ChainError reports the first entry that breaks the hash chain.
type ChainError struct {
	Line   int
	Reason string
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Verify reads the audit log and checks the hash chain integrity.
// Returns nil if the chain is valid, or a *ChainError for the first violation.
func Verify(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read audit log: %w", err)
	}

	expectedPrev := genesisHash()
	var prevSeq uint64

	for i, line := range splitLines(data) {
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return &ChainError{Line: i + 1, Reason: fmt.Sprintf("invalid JSON: %v", err)}
		}

		if entry.Seq != prevSeq+1 {
			return &ChainError{Line: i + 1, Reason: fmt.Sprintf("sequence gap: expected %d, got %d", prevSeq+1, entry.Seq)}
		}
		if entry.PrevHash != expectedPrev {
			return &ChainError{Line: i + 1, Reason: fmt.Sprintf("prev_hash mismatch: expected %s, got %s", short(expectedPrev), short(entry.PrevHash))}
		}
		if computed := computeHash(entry); entry.Hash != computed {
			return &ChainError{Line: i + 1, Reason: fmt.Sprintf("hash mismatch: expected %s, got %s", short(computed), short(entry.Hash))}
		}

		expectedPrev = entry.Hash
		prevSeq = entry.Seq
	}
	return nil
}

func short(hash string) string {
	if len(hash) > 16 {
		return hash[:16] + "..."
	}
	return hash
}

// Tail returns the last n entries from the audit log. Lines that do not
// decode are skipped.
func Tail(path string, n int) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	lines := splitLines(data)
	n = min(max(n, 0), len(lines))

	entries := make([]Entry, 0, n)
	for _, line := range lines[len(lines)-n:] {
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
