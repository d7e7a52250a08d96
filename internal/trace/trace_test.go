package trace

import (
	"testing"
	"time"
)

func TestLog(t *testing.T) {
	t.Run("Append preserves insertion order", func(t *testing.T) {
		l := New(nil)
		l.Infof("first")
		l.Warnf("second %d", 2)
		l.Errorf("third")

		entries := l.Entries()
		if len(entries) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(entries))
		}

		want := []struct {
			sev Severity
			msg string
		}{
			{SeverityInfo, "first"},
			{SeverityWarn, "second 2"},
			{SeverityError, "third"},
		}
		for i, w := range want {
			if entries[i].Severity != w.sev {
				t.Errorf("entry %d severity = %s, want %s", i, entries[i].Severity, w.sev)
			}
			if entries[i].Message != w.msg {
				t.Errorf("entry %d message = %q, want %q", i, entries[i].Message, w.msg)
			}
			if entries[i].At.IsZero() {
				t.Errorf("entry %d has zero timestamp", i)
			}
		}
	})

	t.Run("Entries returns a snapshot", func(t *testing.T) {
		l := New(nil)
		l.Infof("one")

		snapshot := l.Entries()
		l.Infof("two")

		if len(snapshot) != 1 {
			t.Errorf("snapshot grew after later append: got %d entries", len(snapshot))
		}
		if l.Len() != 2 {
			t.Errorf("expected 2 entries in log, got %d", l.Len())
		}
	})

	t.Run("Subscribe receives later appends", func(t *testing.T) {
		l := New(nil)
		l.Infof("before subscribe")

		ch := l.Subscribe()
		l.Warnf("after subscribe")

		select {
		case entry := <-ch:
			if entry.Message != "after subscribe" {
				t.Errorf("expected entry appended after subscribe, got %q", entry.Message)
			}
			if entry.Severity != SeverityWarn {
				t.Errorf("expected warn severity, got %s", entry.Severity)
			}
		case <-time.After(time.Second):
			t.Fatal("no entry delivered to subscriber")
		}
	})

	t.Run("slow subscriber does not block appends", func(t *testing.T) {
		l := New(nil)
		l.Subscribe() // never drained

		for i := 0; i < 200; i++ {
			l.Infof("entry %d", i)
		}
		if l.Len() != 200 {
			t.Errorf("expected 200 entries, got %d", l.Len())
		}
	})
}
