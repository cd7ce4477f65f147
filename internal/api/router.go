package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/larpo1/davidlarpent.com/internal/docservice"
	"github.com/larpo1/davidlarpent.com/internal/gitsnap"
)

// RouterConfig controls the editing gate and rate limiting.
type RouterConfig struct {
	EditingEnabled bool
	Token          string
	RatePerSecond  float64
	RateBurst      int
}

// NewRouter creates a chi router with all API routes mounted. Read routes
// are always available; editing routes sit behind the edit gate and a
// per-instance rate limiter. sseHandler, if non-nil, is mounted at
// GET /events. imagesRoot is the public images directory for post images.
func NewRouter(svc *docservice.Service, snap *gitsnap.Snapshotter, cfg RouterConfig, sseHandler http.Handler, imagesRoot string) chi.Router {
	h := NewHandler(svc, snap)
	ih := NewImageHandler(imagesRoot)

	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 10
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 20
	}

	r := chi.NewRouter()

	// Read routes.
	r.Get("/sources", h.ListSources)
	r.Get("/sources/{slug}", h.GetSource)
	r.Get("/posts", h.ListPosts)
	r.Get("/posts/{slug}", h.GetPost)
	r.Get("/posts/{slug}/markdown", h.GetPostMarkdown)
	r.Get("/posts/{slug}/images", ih.List)
	r.Get("/search", h.Search)

	// Editing routes.
	r.Group(func(r chi.Router) {
		r.Use(EditGate(cfg.EditingEnabled, cfg.Token))
		r.Use(RateLimit(rate.Limit(cfg.RatePerSecond), cfg.RateBurst))

		r.Post("/sources", h.CreateSource)
		r.Put("/sources/{slug}", h.SaveSource)
		r.Post("/sources/{slug}/archive", h.ArchiveSource)
		r.Post("/sources/{slug}/notes", h.AppendNote)
		r.Post("/sources/{slug}/notes/{action}", h.NoteAction)
		r.Put("/posts/{slug}", h.SavePost)
		r.Post("/posts/{slug}/images", ih.Upload)
		r.Post("/git/push", h.GitPush)
	})

	// SSE endpoint (open: it only reports change notifications).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
