package obslog

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLoggerWritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	l := New(Info, &buf)
	l.Infof("bloom", "grow", "appended filter", map[string]interface{}{"filters": 2})

	var entry Entry
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("log output is not valid JSON: %v", err)
	}
	if entry.Component != "bloom" || entry.Action != "grow" {
		t.Fatalf("entry = %+v, want component=bloom action=grow", entry)
	}
	if entry.TraceID == "" {
		t.Fatal("entry should carry a trace ID")
	}
}

func TestLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Warn, &buf)
	l.Infof("bloom", "grow", "should be suppressed", nil)
	if buf.Len() != 0 {
		t.Fatalf("Infof below configured level should write nothing, got %q", buf.String())
	}
	l.Warnf("bloom", "evict", "should be written", nil)
	if buf.Len() == 0 {
		t.Fatal("Warnf at configured level should write an entry")
	}
}

func TestNilLoggerIsInert(t *testing.T) {
	var l *Logger
	l.Infof("bloom", "grow", "nil logger should not panic", nil)
}

func TestDiscardWritesNothing(t *testing.T) {
	l := Discard()
	l.Warnf("cuckoo", "evict", "this should be dropped", nil)
}

func TestDefaultIsInfoLevel(t *testing.T) {
	l := Default()
	if l.level != Info {
		t.Fatalf("Default() level = %v, want Info", l.level)
	}
}

func TestLevelString(t *testing.T) {
	cases := map[Level]string{Debug: "DEBUG", Info: "INFO", Warn: "WARN", Error: "ERROR", Level(99): "UNKNOWN"}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Fatalf("Level(%d).String() = %q, want %q", level, got, want)
		}
	}
}

func TestNewTraceIDIsUnique(t *testing.T) {
	a, b := NewTraceID(), NewTraceID()
	if a == b {
		t.Fatal("NewTraceID should not repeat across calls")
	}
	if strings.Count(a, "-") != 4 {
		t.Fatalf("NewTraceID() = %q, want a UUID-shaped string", a)
	}
}
