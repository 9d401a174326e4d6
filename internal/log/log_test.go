package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"

	"github.com/folio-labs/folio-web/internal/xerrors"
)

func newTestLogger(t *testing.T, buf *bytes.Buffer, opts Options) Logger {
	t.Helper()
	opts.Writer = buf
	opts.JSON = true
	if opts.App == "" {
		opts.App = "test"
	}
	l, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

// lastRecord parses the last JSON line written to buf.
func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &m); err != nil {
		t.Fatalf("parse log line: %v\nraw: %s", err, buf.String())
	}
	return m
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"Error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseLevel_Invalid(t *testing.T) {
	_, err := ParseLevel("verbose")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "verbose") {
		t.Fatalf("error should name the bad level: %v", err)
	}
}

func TestNew_BaseAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(t, &buf, Options{App: "folio-web", Version: "1.2.3", Commit: "abc"})
	l.Info(context.Background(), "hello", "k", "v")

	m := lastRecord(t, &buf)
	for key, want := range map[string]string{"app": "folio-web", "version": "1.2.3", "commit": "abc", "msg": "hello", "k": "v"} {
		if m[key] != want {
			t.Errorf("%s = %v, want %q", key, m[key], want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(t, &buf, Options{Level: slog.LevelWarn})
	ctx := context.Background()

	l.Debug(ctx, "d")
	l.Info(ctx, "i")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing below warn, got %s", buf.String())
	}
	l.Warn(ctx, "w")
	if m := lastRecord(t, &buf); m["msg"] != "w" {
		t.Fatalf("msg = %v", m["msg"])
	}
}

func TestWith_CopyOnWrite(t *testing.T) {
	var buf bytes.Buffer
	base := newTestLogger(t, &buf, Options{})
	child := base.With("component", "content", 42, "dropped", "odd")

	child.Info(context.Background(), "child")
	m := lastRecord(t, &buf)
	if m["component"] != "content" {
		t.Fatalf("component = %v", m["component"])
	}
	if _, ok := m["odd"]; ok {
		t.Fatal("dangling key should be ignored")
	}

	buf.Reset()
	base.Info(context.Background(), "parent")
	if _, ok := lastRecord(t, &buf)["component"]; ok {
		t.Fatal("With must not mutate the parent")
	}
}

func TestError_EnrichesRecord(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(t, &buf, Options{IncludeErrorLinks: true})

	root := errors.New("disk full")
	err := xerrors.Wrap(fmt.Errorf("write project: %w", root), "export site")
	l.Error(context.Background(), err, "export failed")

	m := lastRecord(t, &buf)
	if m["cause_type"] != "*errors.errorString" {
		t.Errorf("cause_type = %v", m["cause_type"])
	}
	chain, ok := m["error_chain"].([]any)
	if !ok || len(chain) < 2 {
		t.Fatalf("error_chain = %v", m["error_chain"])
	}
	if chain[len(chain)-1] != "disk full" {
		t.Errorf("chain tail = %v", chain[len(chain)-1])
	}
	if _, ok := m["error_links"]; !ok {
		t.Error("error_links missing")
	}
	if s, _ := m["stack"].(string); s == "" {
		t.Error("stack missing at error level")
	}
}

func TestError_NilErr(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(t, &buf, Options{})
	l.Error(context.Background(), nil, "no error")

	m := lastRecord(t, &buf)
	if _, ok := m["err"]; ok {
		t.Fatal("nil error should not add err attr")
	}
}

func TestStackHandler_BelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(t, &buf, Options{})
	l.Warn(context.Background(), "warn")
	if _, ok := lastRecord(t, &buf)["stack"]; ok {
		t.Fatal("stack attached below stacktrace level")
	}
}

func TestTraceHandler_AddsIDs(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(t, &buf, Options{})

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		SpanID:     trace.SpanID{1, 2, 3, 4, 5, 6, 7, 8},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	l.Info(ctx, "traced")

	m := lastRecord(t, &buf)
	if m["trace_id"] != sc.TraceID().String() {
		t.Errorf("trace_id = %v", m["trace_id"])
	}
	if m["span_id"] != sc.SpanID().String() {
		t.Errorf("span_id = %v", m["span_id"])
	}
}

func TestErrorChain_Dedupes(t *testing.T) {
	e := errors.New("same")
	got := errorChain(e)
	if len(got) != 1 || got[0] != "same" {
		t.Fatalf("chain = %v", got)
	}
	joined := errors.Join(errors.New("a"), errors.New("b"))
	got = errorChain(joined)
	if len(got) != 3 {
		t.Fatalf("joined chain = %v", got)
	}
}

func TestContext_RoundTrip(t *testing.T) {
	if _, ok := FromContext(context.Background()).(nopLogger); !ok {
		t.Fatal("empty context should yield the nop logger")
	}
	var buf bytes.Buffer
	l := newTestLogger(t, &buf, Options{})
	ctx := WithContext(context.Background(), l)
	if FromContext(ctx) != l {
		t.Fatal("FromContext did not return stored logger")
	}
}

func TestNop_Discards(t *testing.T) {
	l := Nop().With("a", 1)
	l.Error(context.Background(), errors.New("x"), "ignored")
	if err := l.Sync(); err != nil {
		t.Fatal(err)
	}
}
