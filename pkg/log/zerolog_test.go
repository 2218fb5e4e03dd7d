package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	return m
}

func TestZerologAdapter_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologAdapterWithLogger(zerolog.New(&buf))

	l.Error("fetch failed",
		String("key", "homeInfoCache"),
		Int("attempt", 1),
		Bool("loading", true),
		Duration("elapsed", 1500*time.Millisecond),
		RawJSON("resource", []byte(`{"id":1}`)),
		Err(errors.New("boom")),
	)

	m := decodeLine(t, &buf)
	if m["level"] != "error" {
		t.Errorf("level = %v, want error", m["level"])
	}
	if m["message"] != "fetch failed" {
		t.Errorf("message = %v", m["message"])
	}
	if m["key"] != "homeInfoCache" {
		t.Errorf("key = %v", m["key"])
	}
	if m["error"] != "boom" {
		t.Errorf("error = %v, want boom", m["error"])
	}
	res, ok := m["resource"].(map[string]any)
	if !ok || res["id"] != float64(1) {
		t.Errorf("resource = %v, want raw object", m["resource"])
	}
}

func TestZerologAdapter_With(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologAdapterWithLogger(zerolog.New(&buf)).With(String("component", "store"))

	l.Info("mounted")

	m := decodeLine(t, &buf)
	if m["component"] != "store" {
		t.Errorf("component = %v, want store", m["component"])
	}
}

func TestZerologAdapter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologAdapterWithLogger(zerolog.New(&buf).Level(zerolog.WarnLevel))

	l.Debug("hidden")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}

	l.Warn("shown")
	if buf.Len() == 0 {
		t.Fatal("expected warn output")
	}
}

func TestNoopLogger(t *testing.T) {
	var l Logger = NewNoopLogger()
	l.Info("discarded", String("k", "v"))
	if _, ok := l.With(String("k", "v")).(NoopLogger); !ok {
		t.Error("With on NoopLogger should return a NoopLogger")
	}
}
