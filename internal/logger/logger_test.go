package logger

import (
	"bytes"
	"os"
	"testing"
	"time"
)

var fixedTime = time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)

func setup(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	now = func() time.Time { return fixedTime }
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
		now = time.Now
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	setup(t)

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false initially")
	}

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose to be true after SetVerbose(true)")
	}

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false after SetVerbose(false)")
	}
}

func TestDebug_WhenVerbose(t *testing.T) {
	buf := setup(t)
	SetVerbose(true)

	Debug("test message %s", "arg")

	if got := buf.String(); got != "2024-03-09T14:05:00Z [DEBUG] test message arg\n" {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	buf := setup(t)
	SetVerbose(false)

	Debug("test message %s", "arg")

	if buf.Len() != 0 {
		t.Errorf("expected no output when verbose is disabled, got: %q", buf.String())
	}
}

func TestInfo_AlwaysPrinted(t *testing.T) {
	buf := setup(t)
	SetVerbose(false)

	Info("syncing %d streams", 3)

	if got := buf.String(); got != "2024-03-09T14:05:00Z [INFO] syncing 3 streams\n" {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestWarn(t *testing.T) {
	buf := setup(t)

	Warn("custom fields for %s unavailable", "deal")

	if got := buf.String(); got != "2024-03-09T14:05:00Z [WARN] custom fields for deal unavailable\n" {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestError(t *testing.T) {
	buf := setup(t)

	Error("stream %s failed: %v", "events", "boom")

	if got := buf.String(); got != "2024-03-09T14:05:00Z [ERROR] stream events failed: boom\n" {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestSection(t *testing.T) {
	buf := setup(t)

	Section("Hidden")
	if buf.Len() != 0 {
		t.Errorf("expected no section header when not verbose, got %q", buf.String())
	}

	SetVerbose(true)
	Section("Sync")
	if got := buf.String(); got != "\n=== Sync ===\n" {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestOutput(t *testing.T) {
	buf := setup(t)
	if Output() != buf {
		t.Error("expected Output to return the configured writer")
	}
}
