// Package handlers provides HTTP handlers for the web application.
package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"path"

	"github.com/patricktcoakley/folio/internal/posts"
	"github.com/patricktcoakley/folio/internal/site"
	"github.com/rs/zerolog"
)

// App holds application dependencies for handlers.
type App struct {
	Posts     *posts.Loader
	Renderer  *site.Renderer
	HomeCount int
	// StaticDir holds extra files served from the site root, as the static
	// build copies them into its output.
	StaticDir string
	Logger    zerolog.Logger
}

func (a *App) homeCount() int {
	if a.HomeCount <= 0 {
		return posts.DefaultRecent
	}
	return a.HomeCount
}

// render buffers the page so template failures turn into a clean 500.
func (a *App) render(w http.ResponseWriter, status int, contentType string, fn func(io.Writer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		a.Logger.Error().Err(err).Msg("render page")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		a.Logger.Warn().Err(err).Msg("write response")
	}
}

func (a *App) notFound(w http.ResponseWriter) {
	a.render(w, http.StatusNotFound, "text/html; charset=utf-8", a.Renderer.NotFound)
}

// HomeHandler shows the home page with the most recent posts.
type HomeHandler struct {
	app *App
}

// NewHomeHandler creates a new home handler.
func NewHomeHandler(app *App) *HomeHandler {
	return &HomeHandler{app: app}
}

// Home shows the home page.
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	recent, err := h.app.Posts.Recent(h.app.homeCount())
	if err != nil {
		h.app.Logger.Error().Err(err).Msg("load recent posts")
		http.Error(w, "Failed to load posts", http.StatusInternalServerError)
		return
	}

	h.app.render(w, http.StatusOK, "text/html; charset=utf-8", func(out io.Writer) error {
		return h.app.Renderer.Home(out, recent)
	})
}

// NotFound serves a matching file from the static directory, or renders the
// 404 page for any other unmatched route.
func (h *HomeHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	if h.serveStatic(w, r) {
		return
	}
	h.app.notFound(w)
}

// serveStatic writes the regular file at the request path, if there is one.
func (h *HomeHandler) serveStatic(w http.ResponseWriter, r *http.Request) bool {
	if h.app.StaticDir == "" || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
		return false
	}

	f, err := http.Dir(h.app.StaticDir).Open(path.Clean("/" + r.URL.Path))
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return true
}

// PostHandler serves the post index and post detail pages.
type PostHandler struct {
	app *App
}

// NewPostHandler creates a new post handler.
func NewPostHandler(app *App) *PostHandler {
	return &PostHandler{app: app}
}

// List shows every post, newest first.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.app.Posts.SortedPosts()
	if err != nil {
		h.app.Logger.Error().Err(err).Msg("load posts")
		http.Error(w, "Failed to load posts", http.StatusInternalServerError)
		return
	}

	h.app.render(w, http.StatusOK, "text/html; charset=utf-8", func(out io.Writer) error {
		return h.app.Renderer.PostsIndex(out, all)
	})
}

// Show renders a single post.
func (h *PostHandler) Show(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	post, err := h.app.Posts.Post(id)
	if errors.Is(err, posts.ErrNotFound) || errors.Is(err, posts.ErrInvalidID) {
		h.app.Logger.Debug().Err(err).Str("id", id).Msg("post not found")
		h.app.notFound(w)
		return
	}
	if err != nil {
		h.app.Logger.Error().Err(err).Str("id", id).Msg("load post")
		http.Error(w, "Failed to load post", http.StatusInternalServerError)
		return
	}

	h.app.render(w, http.StatusOK, "text/html; charset=utf-8", func(out io.Writer) error {
		return h.app.Renderer.Post(out, post)
	})
}

// FeedHandler serves the RSS feed.
type FeedHandler struct {
	app *App
}

// NewFeedHandler creates a new feed handler.
func NewFeedHandler(app *App) *FeedHandler {
	return &FeedHandler{app: app}
}

// RSS writes the feed of all posts.
func (h *FeedHandler) RSS(w http.ResponseWriter, r *http.Request) {
	all, err := h.app.Posts.SortedPosts()
	if err != nil {
		h.app.Logger.Error().Err(err).Msg("load posts for feed")
		http.Error(w, "Failed to load posts", http.StatusInternalServerError)
		return
	}

	h.app.render(w, http.StatusOK, "application/rss+xml; charset=utf-8", func(out io.Writer) error {
		return h.app.Renderer.Feed(out, all)
	})
}
