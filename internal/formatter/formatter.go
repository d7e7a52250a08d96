// package formatter exports diagnostic runs to shareable formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ChrisT3B/beats-repeats-test/internal/report"
)

const timestampLayout = "2006-01-02 15:04:05"

// ExportToCSV converts a run's trace to CSV format with columns: Time, Severity, Message
func ExportToCSV(run *report.Run) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Time", "Severity", "Message"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, entry := range run.Entries {
		record := []string{
			entry.At.Format(time.RFC3339),
			string(entry.Severity),
			entry.Message,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a run to a Markdown report.
func ExportToMarkdown(run *report.Run) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Diagnostic run %s\n\n", run.ID))
	buf.WriteString(fmt.Sprintf("**Outcome**: %s\n", run.Outcome))
	buf.WriteString(fmt.Sprintf("**Started**: %s\n", run.StartedAt.Format(timestampLayout)))
	if !run.FinishedAt.IsZero() {
		buf.WriteString(fmt.Sprintf("**Finished**: %s\n", run.FinishedAt.Format(timestampLayout)))
	}
	buf.WriteString("\n## Session\n\n")
	buf.WriteString(fmt.Sprintf("- Authenticated: %s\n", strconv.FormatBool(run.Authenticated)))
	buf.WriteString(fmt.Sprintf("- State: %s\n", run.SessionState))
	if run.DeviceID != "" {
		buf.WriteString(fmt.Sprintf("- Device: `%s`\n", run.DeviceID))
	}

	buf.WriteString("\n## Capture verdict\n\n")
	buf.WriteString(fmt.Sprintf("- System audio: %s\n", strconv.FormatBool(run.Verdict.SystemAudio)))
	buf.WriteString(fmt.Sprintf("- Recorder: %s\n", strconv.FormatBool(run.Verdict.Recorder)))
	buf.WriteString(fmt.Sprintf("- Mix graph: %s\n", strconv.FormatBool(run.Verdict.MixGraph)))
	if run.Verdict.Err != "" {
		buf.WriteString(fmt.Sprintf("- Error: %s\n", run.Verdict.Err))
	}

	if len(run.Entries) > 0 {
		buf.WriteString("\n## Trace\n\n")
		for _, entry := range run.Entries {
			buf.WriteString(fmt.Sprintf("- `%s` **%s** %s\n", entry.At.Format("15:04:05"), entry.Severity, entry.Message))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a run to plain text format
func ExportToText(run *report.Run) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Run: %s\n", run.ID))
	buf.WriteString(fmt.Sprintf("Outcome: %s\n", run.Outcome))
	buf.WriteString(fmt.Sprintf("Authenticated: %t\n", run.Authenticated))
	buf.WriteString(fmt.Sprintf("Session state: %s\n", run.SessionState))
	buf.WriteString(fmt.Sprintf("System audio: %t, recorder: %t, mix graph: %t\n",
		run.Verdict.SystemAudio, run.Verdict.Recorder, run.Verdict.MixGraph))
	if run.Verdict.Err != "" {
		buf.WriteString(fmt.Sprintf("Probe error: %s\n", run.Verdict.Err))
	}

	if len(run.Entries) > 0 {
		buf.WriteString("\n")
		for _, entry := range run.Entries {
			buf.WriteString(fmt.Sprintf("%s [%s] %s\n", entry.At.Format("15:04:05"), entry.Severity, entry.Message))
		}
	}

	return buf.Bytes(), nil
}

// WriteExport renders a run in the given format ("csv", "markdown" or
// "text") and writes it to path. The parent directory is created if needed.
func WriteExport(run *report.Run, format, path string) error {
	var data []byte
	var err error

	switch format {
	case "csv":
		data, err = ExportToCSV(run)
	case "markdown", "md":
		data, err = ExportToMarkdown(run)
	case "text", "txt":
		data, err = ExportToText(run)
	default:
		return fmt.Errorf("unknown export format: %q", format)
	}
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}
