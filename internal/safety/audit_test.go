package safety

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// NewAuditLogger tests
// ---------------------------------------------------------------------------

func Test_NewAuditLogger_NilWriter(t *testing.T) {
	if l := NewAuditLogger(nil); l != nil {
		t.Error("expected nil logger for nil writer")
	}
}

// ---------------------------------------------------------------------------
// Log tests
// ---------------------------------------------------------------------------

func Test_Log_WritesNDJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewAuditLogger(&buf)

	entry := AuditEntry{
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Tool:      "projects_list",
		Params:    map[string]any{"status": "active"},
		Result:    "ok",
		Duration:  42 * time.Millisecond,
	}
	if err := l.Log(entry); err != nil {
		t.Fatalf("Log: %v", err)
	}

	line := buf.String()
	if !strings.HasSuffix(line, "\n") {
		t.Error("expected entry to end with a newline")
	}

	var decoded AuditEntry
	if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &decoded); err != nil {
		t.Fatalf("entry is not valid JSON: %v", err)
	}
	if decoded.Tool != "projects_list" {
		t.Errorf("Tool = %q, want projects_list", decoded.Tool)
	}
	if decoded.Result != "ok" {
		t.Errorf("Result = %q, want ok", decoded.Result)
	}
}

func Test_Log_MultipleEntriesOnSeparateLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewAuditLogger(&buf)

	for i := 0; i < 3; i++ {
		if err := l.Log(AuditEntry{Tool: "staff_list", Result: "ok"}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	for i, line := range lines {
		var e AuditEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Errorf("line %d is not valid JSON: %v", i, err)
		}
	}
}

func Test_Log_NilLogger(t *testing.T) {
	var l *AuditLogger
	err := l.Log(AuditEntry{Tool: "projects_list"})
	if !errors.Is(err, ErrNilWriter) {
		t.Errorf("error = %v, want ErrNilWriter", err)
	}
}

func Test_Log_WriterError(t *testing.T) {
	l := NewAuditLogger(&failingWriter{})
	if err := l.Log(AuditEntry{Tool: "projects_list"}); err == nil {
		t.Error("expected error from failing writer")
	}
}

type failingWriter struct{}

func (*failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

// ---------------------------------------------------------------------------
// Concurrency
// ---------------------------------------------------------------------------

func Test_Log_ConcurrentWrites(t *testing.T) {
	var buf syncBuffer
	l := NewAuditLogger(&buf)

	const goroutines = 20
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			_ = l.Log(AuditEntry{Tool: "equipment_list", Result: "ok"})
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != goroutines {
		t.Fatalf("got %d lines, want %d", len(lines), goroutines)
	}
	for i, line := range lines {
		var e AuditEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Errorf("line %d corrupted by concurrent writes: %v", i, err)
		}
	}
}

// syncBuffer is a bytes.Buffer safe for concurrent Write and String.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
