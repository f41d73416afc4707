package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{" WARN ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, c := range cases {
		got, err := ParseLevel(c.in)
		if (err != nil) != c.wantErr || got != c.want {
			t.Fatalf("ParseLevel(%q) = %v, %v", c.in, got, err)
		}
	}
}

func TestNewJSONTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: FormatJSON, Component: ComponentReconcile, Output: &buf})
	l.Debug("Hidden")
	l.Info("Planned write", FieldAddress, "AR5")

	line := strings.TrimSpace(buf.String())
	if strings.Contains(line, "Hidden") {
		t.Fatal("debug record should be filtered at info level")
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatalf("not json: %v (%s)", err, line)
	}
	if rec["component"] != ComponentReconcile || rec["address"] != "AR5" {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestFromContextFallback(t *testing.T) {
	if l := FromContext(context.Background()); l.Component() != "unknown" {
		t.Fatalf("unexpected component %q", l.Component())
	}
	want := New(Config{Component: "x", Output: &bytes.Buffer{}})
	if got := FromContext(WithContext(context.Background(), want)); got != want {
		t.Fatal("logger not retrieved from context")
	}
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: FormatText, Output: &buf})

	var seen *Logger
	h := Middleware(base, func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = FromContext(r.Context())
			w.WriteHeader(http.StatusTeapot)
		}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/runs?limit=2", nil))

	if seen == nil || seen.Component() != ComponentHTTP {
		t.Fatal("handler should see the http logger")
	}
	out := buf.String()
	for _, want := range []string{"HTTP request completed", "status_code=418", "request_id=req-1", "level=WARN"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q: %s", want, out)
		}
	}
}
