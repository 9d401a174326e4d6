package httpmw

import (
	"context"
	"net/http"
	"sync"

	"github.com/folio-labs/folio-web/internal/log"
)

type captured struct {
	level string
	msg   string
	err   error
	kv    []any
}

// recLogger records every call; With accumulates fields into the copies it
// returns while sharing the sink.
type recLogger struct {
	mu     *sync.Mutex
	sink   *[]captured
	fields []any
}

func newRecLogger() *recLogger {
	return &recLogger{mu: &sync.Mutex{}, sink: &[]captured{}}
}

func (l *recLogger) With(kv ...any) log.Logger {
	f := append(append([]any{}, l.fields...), kv...)
	return &recLogger{mu: l.mu, sink: l.sink, fields: f}
}

func (l *recLogger) add(level string, err error, msg string, kv []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	all := append(append([]any{}, l.fields...), kv...)
	*l.sink = append(*l.sink, captured{level: level, msg: msg, err: err, kv: all})
}

func (l *recLogger) Debug(_ context.Context, msg string, kv ...any) { l.add("debug", nil, msg, kv) }
func (l *recLogger) Info(_ context.Context, msg string, kv ...any)  { l.add("info", nil, msg, kv) }
func (l *recLogger) Warn(_ context.Context, msg string, kv ...any)  { l.add("warn", nil, msg, kv) }
func (l *recLogger) Error(_ context.Context, err error, msg string, kv ...any) {
	l.add("error", err, msg, kv)
}
func (l *recLogger) Sync() error { return nil }

func (l *recLogger) entries() []captured {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]captured(nil), *l.sink...)
}

func field(kv []any, key string) (any, bool) {
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i] == key {
			return kv[i+1], true
		}
	}
	return nil, false
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})
