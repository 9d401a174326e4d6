package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/folio-labs/folio-web/internal/health"
	"github.com/folio-labs/folio-web/internal/httpmw"
	"github.com/folio-labs/folio-web/internal/log"
)

type Options struct {
	Logger       log.Logger
	Port         int
	UseRecoverMW bool
	OnPanic      func()
	MetricsMW    func(http.Handler) http.Handler
	RateLimitMW  func(http.Handler) http.Handler
	ClientIPOpts httpmw.ClientIPOptions
	Health       health.Probe
	Readiness    health.Probe
	ContentInfo  httpmw.ContentInfo // X-Content-Version and X-Content-Hash headers

	// APIRoutes registers the JSON API. SiteRoutes registers the public
	// pages and installs the NotFound fallback, so it runs last.
	APIRoutes  func(chi.Router)
	SiteRoutes func(chi.Router)

	// MaxBodyBytes caps request bodies. Defaults to DefaultMaxBodyBytes.
	MaxBodyBytes int64
}
