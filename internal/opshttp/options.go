package opshttp

import (
	"net/http"

	"github.com/folio-labs/folio-web/internal/health"
)

type Options struct {
	Port        int
	Metrics     http.Handler
	EnablePprof bool
	Health      health.Probe
	Readiness   health.Probe

	// Content, when set, is served as JSON on /-/content.
	Content http.Handler

	// AllowPublic disables the private-network check. Tests only.
	AllowPublic bool
}
