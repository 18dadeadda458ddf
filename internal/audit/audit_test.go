package audit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func record(line string) Record {
	return Record{
		Invocation: "test-invocation",
		Line:       line,
		Commands:   []string{"echo", "cat"},
		Outcome:    "success",
		Duration:   time.Millisecond,
		Cwd:        "/tmp",
		Source:     "command",
	}
}

func TestLogAndVerify(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")

	logger, err := NewLogger(path)
	if err != nil {
		t.Fatal(err)
	}

	// Write several entries.
	for i := 0; i < 5; i++ {
		r := record("echo hi | cat")
		r.Duration = time.Duration(i) * time.Millisecond
		if err := logger.Log(r); err != nil {
			t.Fatalf("log entry %d: %v", i, err)
		}
	}

	// Verify the chain.
	if err := Verify(path); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
}

func TestLogRecordsFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	logger, err := NewLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	r := record("nope")
	r.Outcome = "failure"
	r.ExitCode = 1
	r.Err = errors.New("command or path was not found: nope")
	if err := logger.Log(r); err != nil {
		t.Fatal(err)
	}

	entries, err := Tail(path, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Error != r.Err.Error() || e.ExitCode != 1 || e.Outcome != "failure" || e.Line != "nope" {
		t.Errorf("unexpected entry %+v", e)
	}
	if e.Invocation != "test-invocation" {
		t.Errorf("expected invocation id, got %q", e.Invocation)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")

	logger, err := NewLogger(path)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		_ = logger.Log(record("cat"))
	}

	// Tamper with the file: modify a byte in the middle.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	mid := len(data) / 2
	if data[mid] == 'a' {
		data[mid] = 'b'
	} else {
		data[mid] = 'a'
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	err = Verify(path)
	var ce *ChainError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ChainError, got %v", err)
	}
}

func TestVerifyDetectsSequenceGap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")

	logger, err := NewLogger(path)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		_ = logger.Log(record("cat"))
	}

	// Delete the middle line (line 3 of 5).
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := splitLines(data)
	remaining := append(lines[:2], lines[3:]...)
	var newData []byte
	for _, line := range remaining {
		newData = append(newData, line...)
		newData = append(newData, '\n')
	}
	if err := os.WriteFile(path, newData, 0o600); err != nil {
		t.Fatal(err)
	}

	err = Verify(path)
	var ce *ChainError
	if !errors.As(err, &ce) || ce.Line != 3 {
		t.Fatalf("expected ChainError at line 3, got %v", err)
	}
}

func TestVerifyEmptyLog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")

	if err := os.WriteFile(path, []byte{}, 0o600); err != nil {
		t.Fatal(err)
	}

	if err := Verify(path); err != nil {
		t.Fatalf("empty log should be valid: %v", err)
	}
}

func TestLoggerResumesChain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")

	logger1, err := NewLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = logger1.Log(record("first"))
	_ = logger1.Log(record("second"))

	// Create a new logger (simulating process restart).
	logger2, err := NewLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = logger2.Log(record("third"))

	if err := Verify(path); err != nil {
		t.Fatalf("chain should be valid after restart: %v", err)
	}

	entries, err := Tail(path, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[2].Seq != 3 || entries[2].Line != "third" {
		t.Errorf("expected seq 3 third, got %d %q", entries[2].Seq, entries[2].Line)
	}
}

func TestNewLoggerRejectsCorruptTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	if err := os.WriteFile(path, []byte("not json\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewLogger(path); err == nil {
		t.Fatal("expected error resuming from a corrupt log")
	}
}

func TestTailBounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	logger, err := NewLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = logger.Log(record("one"))

	for _, n := range []int{-1, 0} {
		entries, err := Tail(path, n)
		if err != nil || len(entries) != 0 {
			t.Errorf("Tail(%d) = %d entries, %v", n, len(entries), err)
		}
	}
	if _, err := Tail(filepath.Join(t.TempDir(), "missing"), 1); err == nil {
		t.Error("expected error for a missing log")
	}
}
