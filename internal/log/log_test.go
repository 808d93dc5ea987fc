package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBufferLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{
		Component: component,
		Handler:   slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogger_ComponentField(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, ComponentDataset)

	logger.Info("Dataset loaded", FieldRecords, 1000)

	out := buf.String()
	if !strings.Contains(out, "component=dataset") {
		t.Errorf("expected component field in %q", out)
	}
	if !strings.Contains(out, "records=1000") {
		t.Errorf("expected records field in %q", out)
	}
}

func TestMiddleware_FromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, ComponentHTTP)

	var got *Logger
	handler := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = FromContext(r.Context())
			got.Info("inside handler")
		})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got == nil {
		t.Fatal("logger not found in context")
	}
	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Errorf("expected request id in %q", buf.String())
	}

	if FromContext(context.Background()).Component() != "unknown" {
		t.Error("expected fallback logger outside a request")
	}
}

func TestComponentMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, ComponentHTTP)

	handler := Middleware(logger)(ComponentMiddleware(ComponentDataset)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := FromContext(r.Context())
			if l.Component() != ComponentDataset {
				t.Errorf("Component() = %q, want %q", l.Component(), ComponentDataset)
			}
			l.Info("reloading")
		})))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/admin/reload", nil))

	if !strings.Contains(buf.String(), "component=dataset") {
		t.Errorf("expected dataset component in %q", buf.String())
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newBufferLogger(&buf, ComponentApp))
	ctx := context.Background()

	r := httptest.NewRequest(http.MethodGet, "/api/dashboard?month=2024-01", nil)
	r.Header.Set("User-Agent", "curl/8.0")
	sl.LogHTTPStart(ctx, r, "req-7", "10.0.0.1")
	sl.LogHTTPEnd(ctx, r, "req-7", http.StatusServiceUnavailable, 12, "10.0.0.1")
	sl.LogDatasetLoaded(ctx, "file:vendas.csv", 1000, 2, 3)
	sl.LogError(ctx, "Dashboard build failed", errors.New("boom"), ComponentHTTP, OpRender,
		NewFields().WithDashboard("2024-01", "weekly"))
	sl.LogError(ctx, "Reload failed", errors.New("gone"), ComponentDataset, OpReload, nil)

	out := buf.String()
	for _, want := range []string{
		"level=DEBUG",
		`msg="HTTP request started"`,
		"user_agent=curl/8.0",
		"level=ERROR",
		"request_id=req-7",
		"status_code=503",
		"duration_ms=12",
		"source=file:vendas.csv",
		"skipped=2",
		"version=3",
		"error=boom",
		"month=2024-01",
		"view=weekly",
		"operation=render",
		"error=gone",
		"operation=reload",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in log output:\n%s", want, out)
		}
	}
}

func TestStructuredLogger_HTTPEndLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusTooManyRequests, "level=WARN"},
		{http.StatusInternalServerError, "level=ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		sl := NewStructuredLogger(newBufferLogger(&buf, ComponentHTTP))
		sl.LogHTTPEnd(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil), "id", tt.status, 1, "")
		if !strings.Contains(buf.String(), tt.level) {
			t.Errorf("status %d: expected %s in %q", tt.status, tt.level, buf.String())
		}
	}
}
