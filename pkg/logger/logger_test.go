package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestFieldsAreWrittenAsJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "debug").With(String("resource", "overview"))

	l.Warn("query fetch failed",
		Int("attempt", 2),
		Int64("bytes", 512),
		Bool("manual", true),
		Duration("took", 1500*time.Millisecond),
		Error(errors.New("boom")),
	)

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	want := map[string]any{
		"level":    "warn",
		"message":  "query fetch failed",
		"resource": "overview",
		"attempt":  float64(2),
		"bytes":    float64(512),
		"manual":   true,
		"took":     float64(1500),
		"error":    "boom",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v, want %v", k, got[k], v)
		}
	}
}

func TestNewWriterFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "info")
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug written at info level: %s", buf.String())
	}
	l.Info("shown")
	if buf.Len() == 0 {
		t.Fatal("info not written")
	}
}
