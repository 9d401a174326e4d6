package httpserver_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/folio-labs/folio-web/internal/content"
	"github.com/folio-labs/folio-web/internal/health"
	"github.com/folio-labs/folio-web/internal/httpserver"
	"github.com/folio-labs/folio-web/internal/log"
	"github.com/folio-labs/folio-web/internal/projecthttp"
	"github.com/folio-labs/folio-web/internal/site"
	"github.com/folio-labs/folio-web/internal/sitehandler"
	"github.com/folio-labs/folio-web/internal/sitehttp"
	"github.com/folio-labs/folio-web/internal/webassets"
)

// newStack wires the public handler the way cmd/server does, minus
// metrics and rate limiting.
func newStack(t *testing.T, loaded bool) http.Handler {
	t.Helper()
	mgr := content.NewManager()
	if loaded {
		snap, err := content.LoadSeed(site.Options{BaseURL: "https://folio.example.com"})
		if err != nil {
			t.Fatalf("LoadSeed: %v", err)
		}
		mgr.Set(*snap)
	}

	static, err := sitehandler.New(sitehandler.Options{
		Logger:     log.Nop(),
		Content:    mgr,
		FallbackFS: webassets.FallbackFS(),
	})
	if err != nil {
		t.Fatalf("sitehandler.New: %v", err)
	}

	return httpserver.NewHandler(httpserver.Options{
		Logger:       log.Nop(),
		UseRecoverMW: true,
		Health:       health.Fixed(true, ""),
		Readiness:    health.Readiness(mgr),
		ContentInfo:  mgr,
		APIRoutes:    projecthttp.NewAPI(mgr, nil, nil).RegisterRoutes,
		SiteRoutes:   sitehttp.New(static, mgr, nil).RegisterRoutes,
	})
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, http.NoBody))
	return rec
}

func TestIntegration_FullStack(t *testing.T) {
	h := newStack(t, true)

	tests := []struct {
		name     string
		method   string
		target   string
		status   int
		contains string
	}{
		{"home", http.MethodGet, "/", http.StatusOK, "Kafka event streams"},
		{"about", http.MethodGet, "/about/", http.StatusOK, "<html"},
		{"project page", http.MethodGet, "/projects/robot-teleoperation/", http.StatusOK, "VR robot teleoperation"},
		{"project without slash redirects", http.MethodGet, "/projects/robot-teleoperation", http.StatusPermanentRedirect, ""},
		{"filtered listing", http.MethodGet, "/projects/?tag=robotics", http.StatusOK, "VR robot teleoperation"},
		{"stylesheet", http.MethodGet, "/static/css/site.css", http.StatusOK, ""},
		{"sitemap", http.MethodGet, "/sitemap.xml", http.StatusOK, "https://folio.example.com/projects/kafka-event-streams/"},
		{"robots", http.MethodGet, "/robots.txt", http.StatusOK, "Sitemap:"},
		{"api list", http.MethodGet, "/api/projects?q=clinic", http.StatusOK, `"clinic-app-redesign"`},
		{"api missing project", http.MethodGet, "/api/projects/nope", http.StatusNotFound, `"project not found"`},
		{"missing page", http.MethodGet, "/does-not-exist/", http.StatusNotFound, ""},
		{"post rejected", http.MethodPost, "/", http.StatusMethodNotAllowed, ""},
		{"post to routed path rejected", http.MethodPost, "/projects/", http.StatusMethodNotAllowed, ""},
		{"ready", http.MethodGet, "/-/ready", http.StatusOK, "ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.method, tt.target)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.contains != "" && !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("body missing %q", tt.contains)
			}
			if rec.Header().Get("Strict-Transport-Security") == "" {
				t.Error("security headers missing")
			}
			if rec.Header().Get("X-Request-Id") == "" {
				t.Error("X-Request-Id missing")
			}
			if rec.Header().Get("X-Content-Version") == "" {
				t.Error("X-Content-Version missing")
			}
		})
	}
}

func TestIntegration_HeadMatchesGet(t *testing.T) {
	h := newStack(t, true)

	for _, target := range []string{"/", "/projects/", "/projects/?tag=design"} {
		get := serve(h, http.MethodGet, target)
		head := serve(h, http.MethodHead, target)
		if head.Code != get.Code {
			t.Errorf("%s: HEAD %d, GET %d", target, head.Code, get.Code)
		}
		if head.Body.Len() != 0 {
			t.Errorf("%s: HEAD wrote a body", target)
		}
	}
}

func TestIntegration_NoContent(t *testing.T) {
	h := newStack(t, false)

	if rec := serve(h, http.MethodGet, "/"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("page status = %d, want maintenance 503", rec.Code)
	}
	if rec := serve(h, http.MethodGet, "/projects/?tag=go"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("filtered listing status = %d, want 503", rec.Code)
	}
	if rec := serve(h, http.MethodGet, "/api/projects"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("api status = %d, want 503", rec.Code)
	}
	if rec := serve(h, http.MethodGet, "/-/ready"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready status = %d, want 503", rec.Code)
	}
}
