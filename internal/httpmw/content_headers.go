package httpmw

import (
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ContentInfo describes the active content snapshot. content.Manager
// implements it.
type ContentInfo interface {
	ContentVersion() string
	ContentHash() string
	ProjectCount() int
}

// ContentHeaders stamps responses with the version and short hash of the
// snapshot that served them, and tags the span with the same values.
func ContentHeaders(info ContentInfo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if info == nil {
				next.ServeHTTP(w, r)
				return
			}
			v, h := info.ContentVersion(), info.ContentHash()
			if v != "" {
				w.Header().Set("X-Content-Version", v)
			}
			if h != "" {
				w.Header().Set("X-Content-Hash", shortHash(h))
			}
			if span := trace.SpanFromContext(r.Context()); span.IsRecording() {
				span.SetAttributes(
					attribute.String("content.version", v),
					attribute.String("content.hash", h),
					attribute.String("content.projects", strconv.Itoa(info.ProjectCount())),
				)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
