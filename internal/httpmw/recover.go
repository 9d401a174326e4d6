package httpmw

import (
	"fmt"
	"net/http"

	"github.com/folio-labs/folio-web/internal/log"
	"github.com/folio-labs/folio-web/internal/xerrors"
)

// Recover turns a handler panic into a 500 and an error log with stack.
// onPanic, if set, runs after logging (the metrics counter).
// http.ErrAbortHandler is re-panicked so net/http can abort the connection.
func Recover(L log.Logger, onPanic func()) func(http.Handler) http.Handler {
	if L == nil {
		L = log.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				var err error
				switch v := rec.(type) {
				case error:
					err = xerrors.WithStack(fmt.Errorf("panic: %w", v))
				default:
					err = xerrors.Newf("panic: %v", v)
				}
				L.Error(r.Context(), err, "panic recovered",
					"http.request.method", r.Method,
					"url.path", r.URL.Path,
					"request_id", RequestIDFromContext(r.Context()),
				)
				if onPanic != nil {
					onPanic()
				}

				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.Header().Set("Cache-Control", "no-store")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("internal server error\n"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
