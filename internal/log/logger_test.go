package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerComponentAppearsOnce(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentDashboard, Output: &buf})
	l.WithComponent(ComponentCache).Info("hit")

	out := buf.String()
	if strings.Count(out, "component=") != 1 {
		t.Fatalf("expected exactly one component attribute, got %q", out)
	}
	if !strings.Contains(out, "component=cache") {
		t.Fatalf("expected cache component, got %q", out)
	}
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Component: ComponentHTTP, Output: &buf})
	ctx := NewContext(context.Background(), base.With(FieldRequestID, "req-1"))

	got := FromContext(ctx)
	got.Info("handled")
	if got.Component() != ComponentHTTP {
		t.Fatalf("expected http logger from context, got %q", got.Component())
	}
	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Fatalf("expected request id in output, got %q", buf.String())
	}
}

func TestAccessLoggerLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "level=INFO"},
		{404, "level=WARN"},
		{502, "level=ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		a := NewAccessLogger(New(Config{Level: slog.LevelDebug, Output: &buf}))
		r := httptest.NewRequest(http.MethodGet, "/api/games?q=zel", nil)
		a.LogHTTPEnd(context.Background(), r, tt.status, 12, "10.0.0.1")

		out := buf.String()
		if !strings.Contains(out, tt.level) {
			t.Errorf("status %d: expected %s in %q", tt.status, tt.level, out)
		}
		if !strings.Contains(out, "path=/api/games") || !strings.Contains(out, "client_ip=10.0.0.1") {
			t.Errorf("status %d: missing request fields in %q", tt.status, out)
		}
	}
}

func TestFromContextDefault(t *testing.T) {
	if l := FromContext(context.Background()); l.Component() != "unknown" {
		t.Fatalf("unexpected component %q", l.Component())
	}
}
