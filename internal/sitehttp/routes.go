// Package sitehttp mounts the public site on the router: the live project
// filter at /projects/ and the rendered snapshot for everything else.
package sitehttp

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/folio-labs/folio-web/internal/filter"
	"github.com/folio-labs/folio-web/internal/httpmw"
	"github.com/folio-labs/folio-web/internal/log"
	"github.com/folio-labs/folio-web/internal/site"
)

// SiteProvider is satisfied by content.Manager.
type SiteProvider interface {
	Site() *site.Site
}

// FilterObserver is satisfied by metrics.ServerMetrics.
type FilterObserver interface {
	ObserveFilter(surface string, matched int)
}

type Routes struct {
	// Static serves the rendered snapshot, maintenance page and 404s.
	Static  http.Handler
	Content SiteProvider
	Metrics FilterObserver
}

func New(static http.Handler, content SiteProvider, metrics FilterObserver) *Routes {
	return &Routes{Static: static, Content: content, Metrics: metrics}
}

// RegisterRoutes must run after every other registrar: the static handler
// becomes chi's NotFound so it never shadows /api or health routes.
func (rt *Routes) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(httpmw.Scope("projects-filter"))
		r.Get("/projects/", rt.projectIndex)
		r.Head("/projects/", rt.projectIndex)
	})
	r.NotFound(rt.Static.ServeHTTP)
	r.MethodNotAllowed(rt.Static.ServeHTTP)
}

// projectIndex renders the listing for ?tag=&q= on demand. The unfiltered
// listing is already in the snapshot and is served from there.
func (rt *Routes) projectIndex(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has(filter.TagParam) && !q.Has(filter.SearchParam) {
		rt.Static.ServeHTTP(w, r)
		return
	}
	s := rt.Content.Site()
	if s == nil {
		rt.Static.ServeHTTP(w, r)
		return
	}

	c := filter.FromQuery(q)
	var buf bytes.Buffer
	if err := s.RenderProjectIndex(&buf, c); err != nil {
		ctx := r.Context()
		log.FromContext(ctx).Error(ctx, err, "render filtered project index")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if rt.Metrics != nil {
		rt.Metrics.ObserveFilter("page", len(filter.Apply(s.Projects.ListAll(), c)))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(buf.Bytes())
}
