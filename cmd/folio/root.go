package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/patricktcoakley/folio/internal/config"
	"github.com/patricktcoakley/folio/internal/posts"
	"github.com/patricktcoakley/folio/internal/site"
	"github.com/patricktcoakley/folio/public"
)

// cli holds what every subcommand needs once the root has loaded the config.
type cli struct {
	cfgFile  string
	logLevel string

	cfg    config.Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "folio",
		Short: "A small markdown blog",
		Long: `folio renders a directory of markdown posts as a blog. It can serve the
site directly, rendering every request from disk, or build a static copy.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default is ./folio.yaml)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (overrides log.level)")

	root.AddCommand(
		newBuildCmd(c),
		newServeCmd(c),
		newPostsCmd(c),
	)
	return root
}

func (c *cli) init(stderr io.Writer) error {
	cfg, err := config.Load(c.cfgFile)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}

	logger, err := newLogger(cfg.Log, stderr)
	if err != nil {
		return err
	}

	c.cfg = cfg
	c.logger = logger
	return nil
}

func newLogger(cfg config.LogConfig, out io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("%w: log level %q", config.ErrInvalid, cfg.Level)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger(), nil
}

func (c *cli) loader() *posts.Loader {
	return posts.NewLoader(os.DirFS(c.cfg.Content.PostsDir))
}

func (c *cli) renderer() (*site.Renderer, error) {
	r, err := site.NewRenderer(public.TemplatesFS, c.cfg.Meta())
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return r, nil
}
