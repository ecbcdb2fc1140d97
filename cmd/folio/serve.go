package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/patricktcoakley/folio/internal/routing"
	"github.com/patricktcoakley/folio/internal/web/handlers"
	"github.com/patricktcoakley/folio/internal/web/middleware"
)

func newServeCmd(c *cli) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the blog, reading posts from disk on every request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.cfg.Server.Addr
			}
			return c.serve(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP server address (overrides server.addr)")
	return cmd
}

func (c *cli) serve(ctx context.Context, addr string) error {
	logger := c.logger

	renderer, err := c.renderer()
	if err != nil {
		return err
	}

	app := &handlers.App{
		Posts:     c.loader(),
		Renderer:  renderer,
		HomeCount: c.cfg.Home.PostCount,
		StaticDir: c.cfg.Content.StaticDir,
		Logger:    logger,
	}

	handler := middleware.Chain(
		middleware.Recover(logger),
		middleware.Logger(logger),
		middleware.NoCache,
	)(routing.SetupRoutes(app))

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Graceful shutdown
	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		logger.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		shutdownErr <- server.Shutdown(shutdownCtx)
	}()

	logger.Info().
		Str("addr", addr).
		Str("posts_dir", c.cfg.Content.PostsDir).
		Msg("starting server")
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-shutdownErr
}
