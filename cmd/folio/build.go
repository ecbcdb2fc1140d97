package main

import (
	"context"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/patricktcoakley/folio/internal/build"
	"github.com/patricktcoakley/folio/public"
)

func newBuildCmd(c *cli) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render the site into the output directory",
		Long: `build renders the home page, the posts index, every post, the RSS feed and
a 404 page into build.outputDir. With --watch it keeps running and rebuilds
whenever a post or static file changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			b, err := c.builder()
			if err != nil {
				return err
			}
			if _, err := b.Build(ctx); err != nil {
				if !watch {
					return err
				}
				c.logger.Error().Err(err).Msg("initial build failed")
			}
			if !watch {
				return nil
			}

			w := &build.Watcher{
				Dirs:   []string{c.cfg.Content.PostsDir, c.cfg.Content.StaticDir},
				Logger: c.logger,
				Rebuild: func(ctx context.Context) {
					c.logger.Info().Msg("rebuilding site")
					if _, err := b.Build(ctx); err != nil {
						c.logger.Error().Err(err).Msg("rebuild failed")
					}
				},
			}
			return w.Run(ctx)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "rebuild when posts or static files change")
	return cmd
}

func (c *cli) builder() (*build.Builder, error) {
	renderer, err := c.renderer()
	if err != nil {
		return nil, err
	}
	assets, err := fs.Sub(public.StaticFS, "static")
	if err != nil {
		return nil, err
	}

	return &build.Builder{
		Posts:     c.loader(),
		Renderer:  renderer,
		OutputDir: c.cfg.Build.OutputDir,
		Assets:    assets,
		StaticDir: c.cfg.Content.StaticDir,
		PostsDir:  c.cfg.Content.PostsDir,
		HomeCount: c.cfg.Home.PostCount,
		Logger:    c.logger,
	}, nil
}
