// Package projecthttp serves the project repository as JSON under /api.
package projecthttp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/folio-labs/folio-web/internal/content"
	"github.com/folio-labs/folio-web/internal/filter"
	"github.com/folio-labs/folio-web/internal/httpmw"
	"github.com/folio-labs/folio-web/internal/log"
	"github.com/folio-labs/folio-web/internal/pathutil"
	"github.com/folio-labs/folio-web/internal/project"
	"github.com/folio-labs/folio-web/internal/toc"
)

// SnapshotProvider is satisfied by content.Manager.
type SnapshotProvider interface {
	Get() (*content.Snapshot, bool)
}

// FilterObserver is satisfied by metrics.ServerMetrics.
type FilterObserver interface {
	ObserveFilter(surface string, matched int)
}

type API struct {
	content SnapshotProvider
	metrics FilterObserver
	logger  log.Logger
}

func NewAPI(content SnapshotProvider, metrics FilterObserver, logger log.Logger) *API {
	if logger == nil {
		logger = log.Nop()
	}
	return &API{content: content, metrics: metrics, logger: logger}
}

func (api *API) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(httpmw.Scope("api"))
		r.Get("/projects", api.HandleProjects)
		r.Get("/projects/{slug}", api.HandleProject)
		r.Get("/projects/{slug}/toc", api.HandleOutline)
		r.Get("/tags", api.HandleTags)
		r.Get("/content", api.HandleContent)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			api.writeError(r.Context(), w, http.StatusNotFound, "not found")
		})
	})
}

// ProjectResponse is a project entry plus its page link.
type ProjectResponse struct {
	project.Project
	URL string `json:"url"`
}

type ProjectListResponse struct {
	Projects []ProjectResponse `json:"projects"`
	Count    int               `json:"count"`
	Total    int               `json:"total"`
	Tags     []string          `json:"tags,omitempty"`
	Query    string            `json:"q,omitempty"`
}

type ProjectDetailResponse struct {
	ProjectResponse
	Outline []toc.Heading `json:"toc"`
}

type OutlineResponse struct {
	Slug    string        `json:"slug"`
	Outline []toc.Heading `json:"toc"`
}

type TagsResponse struct {
	Tags []string `json:"tags"`
}

type ContentResponse struct {
	content.Meta
	LoadedAt   time.Time `json:"loaded_at"`
	ServerTime time.Time `json:"server_time"`
	Projects   int       `json:"projects"`
	Featured   int       `json:"featured"`
	Tags       int       `json:"tags"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HandleProjects lists projects, newest first, narrowed by ?tag= and ?q=.
func (api *API) HandleProjects(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap, ok := api.snapshot(ctx, w)
	if !ok {
		return
	}

	c := filter.FromQuery(r.URL.Query())
	all := snap.Site.Projects.ListAll()
	matched := filter.Apply(all, c)

	resp := ProjectListResponse{
		Projects: make([]ProjectResponse, 0, len(matched)),
		Count:    len(matched),
		Total:    len(all),
		Tags:     c.Tags.Tags(),
		Query:    c.Search,
	}
	for _, p := range matched {
		resp.Projects = append(resp.Projects, ProjectResponse{Project: p, URL: snap.Site.ProjectURL(p.Slug)})
	}
	if !c.IsZero() && api.metrics != nil {
		api.metrics.ObserveFilter("api", len(matched))
	}
	api.writeJSON(ctx, w, http.StatusOK, resp)
}

func (api *API) HandleProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap, p, ok := api.lookup(w, r)
	if !ok {
		return
	}
	outline, _ := snap.Site.Outline(p.Slug)
	api.writeJSON(ctx, w, http.StatusOK, ProjectDetailResponse{
		ProjectResponse: ProjectResponse{Project: p, URL: snap.Site.ProjectURL(p.Slug)},
		Outline:         nonNil(outline),
	})
}

func (api *API) HandleOutline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap, p, ok := api.lookup(w, r)
	if !ok {
		return
	}
	outline, _ := snap.Site.Outline(p.Slug)
	api.writeJSON(ctx, w, http.StatusOK, OutlineResponse{Slug: p.Slug, Outline: nonNil(outline)})
}

func (api *API) HandleTags(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap, ok := api.snapshot(ctx, w)
	if !ok {
		return
	}
	tags := snap.Site.Projects.Tags()
	if tags == nil {
		tags = []string{}
	}
	api.writeJSON(ctx, w, http.StatusOK, TagsResponse{Tags: tags})
}

// HandleContent describes the active snapshot.
func (api *API) HandleContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap, ok := api.snapshot(ctx, w)
	if !ok {
		return
	}
	repo := snap.Site.Projects
	api.writeJSON(ctx, w, http.StatusOK, ContentResponse{
		Meta:       snap.Meta,
		LoadedAt:   snap.LoadedAt.UTC().Truncate(time.Second),
		ServerTime: time.Now().UTC().Truncate(time.Second),
		Projects:   repo.Len(),
		Featured:   len(repo.ListFeatured()),
		Tags:       len(repo.Tags()),
	})
}

func (api *API) snapshot(ctx context.Context, w http.ResponseWriter) (*content.Snapshot, bool) {
	snap, ok := api.content.Get()
	if !ok {
		api.writeError(ctx, w, http.StatusServiceUnavailable, "no content loaded")
		return nil, false
	}
	return snap, true
}

func (api *API) lookup(w http.ResponseWriter, r *http.Request) (*content.Snapshot, project.Project, bool) {
	ctx := r.Context()
	snap, ok := api.snapshot(ctx, w)
	if !ok {
		return nil, project.Project{}, false
	}
	slug := chi.URLParam(r, "slug")
	if !pathutil.IsSlug(slug) {
		api.writeError(ctx, w, http.StatusNotFound, "project not found")
		return nil, project.Project{}, false
	}
	p, ok := snap.Site.Projects.Get(slug)
	if !ok {
		api.logger.Debug(ctx, "project not found", "slug", slug)
		api.writeError(ctx, w, http.StatusNotFound, "project not found")
		return nil, project.Project{}, false
	}
	return snap, p, true
}

func nonNil(h []toc.Heading) []toc.Heading {
	if h == nil {
		return []toc.Heading{}
	}
	return h
}

func (api *API) writeError(ctx context.Context, w http.ResponseWriter, status int, msg string) {
	api.writeJSON(ctx, w, status, errorResponse{Error: msg})
}

func (api *API) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		api.logger.Warn(ctx, "failed to encode JSON response", "error", err)
	}
}
