package httpmw

import "net/http"

// MaxBody caps request bodies. The site only serves GET and HEAD, so the
// limit is small; reads past it fail and the handler answers 413.
func MaxBody(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
