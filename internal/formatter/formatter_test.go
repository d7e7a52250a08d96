package formatter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ChrisT3B/beats-repeats-test/internal/probe"
	"github.com/ChrisT3B/beats-repeats-test/internal/report"
	"github.com/ChrisT3B/beats-repeats-test/internal/trace"
)

func sampleRun() *report.Run {
	started := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return &report.Run{
		ID:            "run-1",
		StartedAt:     started,
		FinishedAt:    started.Add(time.Minute),
		Outcome:       "pass",
		Authenticated: true,
		SessionState:  "ready",
		DeviceID:      "dev1",
		Verdict:       probe.Verdict{SystemAudio: true, Recorder: true, MixGraph: false, Err: "graph construction failed"},
		Entries: []trace.Entry{
			{At: started, Severity: trace.SeverityInfo, Message: "authenticated"},
			{At: started.Add(time.Second), Severity: trace.SeverityWarn, Message: "message, with comma"},
		},
	}
}

func TestExportToCSV(t *testing.T) {
	data, err := ExportToCSV(sampleRun())
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header plus 2 entries", len(lines))
	}
	if lines[0] != "Time,Severity,Message" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[2], `"message, with comma"`) {
		t.Errorf("comma not quoted: %q", lines[2])
	}
}

func TestExportToMarkdown(t *testing.T) {
	data, err := ExportToMarkdown(sampleRun())
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	text := string(data)
	for _, want := range []string{
		"# Diagnostic run run-1",
		"**Outcome**: pass",
		"- Device: `dev1`",
		"- Mix graph: false",
		"- Error: graph construction failed",
		"## Trace",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in markdown:\n%s", want, text)
		}
	}
}

func TestExportToText(t *testing.T) {
	data, err := ExportToText(sampleRun())
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(string(data), "Outcome: pass") {
		t.Errorf("missing outcome: %s", data)
	}
	if !strings.Contains(string(data), "[warn] message, with comma") {
		t.Errorf("missing entry: %s", data)
	}
}

func TestWriteExport(t *testing.T) {
	t.Run("writes the rendered file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out", "run.md")
		if err := WriteExport(sampleRun(), "markdown", path); err != nil {
			t.Fatalf("write failed: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read back failed: %v", err)
		}
		if !strings.Contains(string(data), "# Diagnostic run run-1") {
			t.Error("file content mangled")
		}
	})

	t.Run("rejects an unknown format", func(t *testing.T) {
		err := WriteExport(sampleRun(), "pdf", filepath.Join(t.TempDir(), "run.pdf"))
		if err == nil || !strings.Contains(err.Error(), "unknown export format") {
			t.Errorf("expected unknown-format error, got %v", err)
		}
	})
}
