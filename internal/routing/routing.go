// Package routing handles HTTP route configuration.
package routing

import (
	"io/fs"
	"net/http"

	"github.com/patricktcoakley/folio/internal/web/handlers"
	"github.com/patricktcoakley/folio/public"
)

// SetupRoutes configures all HTTP routes for the application.
func SetupRoutes(app *handlers.App) *http.ServeMux {
	homeHandler := handlers.NewHomeHandler(app)
	postHandler := handlers.NewPostHandler(app)
	feedHandler := handlers.NewFeedHandler(app)

	mux := http.NewServeMux()

	// Static files with proper MIME type handling
	staticFS, err := fs.Sub(public.StaticFS, "static")
	if err != nil {
		panic("failed to create static sub-filesystem: " + err.Error())
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	mux.HandleFunc("GET /{$}", homeHandler.Home)
	mux.HandleFunc("GET /posts", postHandler.List)
	mux.HandleFunc("GET /posts/{$}", postHandler.List)
	mux.HandleFunc("GET /posts/{id}", postHandler.Show)
	mux.HandleFunc("GET /posts/{id}/{$}", postHandler.Show)
	mux.HandleFunc("GET /feed.xml", feedHandler.RSS)

	mux.HandleFunc("/", homeHandler.NotFound)

	return mux
}
