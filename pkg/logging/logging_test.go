package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/windowsadmins/autoinstaller/pkg/config"
)

func newTestLogger(t *testing.T, cfg LoggerConfig) *Logger {
	t.Helper()
	if cfg.BaseDir == "" {
		cfg.BaseDir = t.TempDir()
	}
	l, err := newLoggerWithConfig(cfg)
	if err != nil {
		t.Fatalf("newLoggerWithConfig failed: %v", err)
	}
	t.Cleanup(l.close)
	return l
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"error":   LevelError,
		"WARN":    LevelWarn,
		"warning": LevelWarn,
		"Info":    LevelInfo,
		" debug ": LevelDebug,
		"":        LevelInfo,
		"bogus":   LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestMainLogFormatAndLevelFilter(t *testing.T) {
	var console bytes.Buffer
	l := newTestLogger(t, LoggerConfig{
		Component:     "test",
		Level:         LevelInfo,
		EnableConsole: true,
		Console:       &console,
	})

	l.logMessage(LevelInfo, "Committed selection", "software", 2)
	l.logMessage(LevelDebug, "should be filtered")

	out := console.String()
	if !strings.Contains(out, "INFO  Committed selection software=2") {
		t.Errorf("Unexpected console output: %q", out)
	}
	if strings.Contains(out, "should be filtered") {
		t.Error("Debug message should be dropped at INFO level")
	}

	data, err := os.ReadFile(filepath.Join(l.logDir, "autoinstaller.log"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != out {
		t.Errorf("Log file and console should match:\nfile:    %q\nconsole: %q", data, out)
	}
}

func TestJSONStream(t *testing.T) {
	l := newTestLogger(t, LoggerConfig{
		Component:  "test",
		SessionID:  "session-1",
		Level:      LevelDebug,
		EnableJSON: true,
	})

	l.logMessage(LevelWarn, "Catalog source unavailable", "path", "software.json")
	l.logMessage(LevelDebug, "Tracked entries", "count", 4)

	f, err := os.Open(filepath.Join(l.logDir, "events.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var entries []LogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e LogEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("Invalid JSON line %q: %v", scanner.Text(), err)
		}
		entries = append(entries, e)
	}

	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != "WARN" || entries[0].SessionID != "session-1" {
		t.Errorf("Unexpected first entry: %+v", entries[0])
	}
	if entries[0].Properties["path"] != "software.json" {
		t.Errorf("Expected path property, got %v", entries[0].Properties)
	}
}

func TestYAMLStream(t *testing.T) {
	l := newTestLogger(t, LoggerConfig{Level: LevelInfo, EnableYAML: true})

	l.logMessage(LevelError, "Persistence failure", "path", "user_selection.json")

	data, err := os.ReadFile(filepath.Join(l.logDir, "events.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "---\n") || !strings.Contains(string(data), "message: Persistence failure") {
		t.Errorf("Unexpected YAML stream: %q", data)
	}
}

func TestPruneSessions(t *testing.T) {
	base := t.TempDir()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)

	names := []string{
		"2026-03-10-115900", // current
		"2026-03-10-110000",
		"2026-03-09-110000",
		"2026-01-01-000000", // too old
		"not-a-session",
	}
	for _, n := range names {
		if err := os.MkdirAll(filepath.Join(base, n), 0755); err != nil {
			t.Fatal(err)
		}
	}

	current := filepath.Join(base, names[0])
	pruneSessions(base, current, RetentionPolicy{KeepSessions: 2, MaxAgeDays: 30}, now)

	exists := func(n string) bool {
		_, err := os.Stat(filepath.Join(base, n))
		return err == nil
	}

	if !exists(names[0]) || !exists(names[1]) {
		t.Error("Newest sessions should be kept")
	}
	if exists(names[2]) {
		t.Error("Session beyond KeepSessions should be removed")
	}
	if exists(names[3]) {
		t.Error("Session older than MaxAgeDays should be removed")
	}
	if !exists(names[4]) {
		t.Error("Non-session directories must be left alone")
	}
}

func TestInitAfterCloseStartsNewSession(t *testing.T) {
	first := &config.Configuration{LogDir: t.TempDir(), LogLevel: "DEBUG"}
	second := &config.Configuration{LogDir: t.TempDir(), LogLevel: "INFO"}

	if err := Init(first); err != nil {
		t.Fatal(err)
	}
	if GetSessionID() == "" || !strings.HasPrefix(GetCurrentLogDir(), first.LogDir) {
		t.Fatalf("Unexpected session %q in %q", GetSessionID(), GetCurrentLogDir())
	}
	Debug("Toggled entry", "entry", "browsers/chrome")
	firstDir := GetCurrentLogDir()
	CloseLogger()

	if GetCurrentLogDir() != "" || GetSessionID() != "" {
		t.Error("CloseLogger should end the session")
	}

	if err := Init(second); err != nil {
		t.Fatal(err)
	}
	defer CloseLogger()
	if !strings.HasPrefix(GetCurrentLogDir(), second.LogDir) {
		t.Errorf("Second Init should log under %s, got %q", second.LogDir, GetCurrentLogDir())
	}
	Info("Second session")

	data, err := os.ReadFile(filepath.Join(firstDir, "autoinstaller.log"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "DEBUG Toggled entry entry=browsers/chrome") {
		t.Errorf("First session log missing debug line: %q", data)
	}
	if strings.Contains(string(data), "Second session") {
		t.Error("Second session must not write to the first session's log")
	}
}
