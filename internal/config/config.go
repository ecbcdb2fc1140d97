// Package config loads folio settings from a YAML file and FOLIO_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/patricktcoakley/folio/internal/build"
	"github.com/patricktcoakley/folio/internal/posts"
	"github.com/patricktcoakley/folio/internal/site"
)

// DefaultFile is the config file name looked up in the working directory.
const DefaultFile = "folio"

// EnvPrefix prefixes environment overrides, e.g. FOLIO_SITE_TITLE.
const EnvPrefix = "FOLIO"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full folio configuration, one field per top-level key.
type Config struct {
	Site    SiteConfig    `mapstructure:"site"`
	Content ContentConfig `mapstructure:"content"`
	Build   BuildConfig   `mapstructure:"build"`
	Home    HomeConfig    `mapstructure:"home"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
}

// SiteConfig describes the site shown in page heads, the home page and the feed.
type SiteConfig struct {
	Title       string   `mapstructure:"title"`
	Description string   `mapstructure:"description"`
	Author      string   `mapstructure:"author"`
	BaseURL     string   `mapstructure:"baseURL"`
	Language    string   `mapstructure:"language"`
	Intro       []string `mapstructure:"intro"`
}

// ContentConfig locates the markdown posts and the extra static files.
type ContentConfig struct {
	PostsDir  string `mapstructure:"postsDir"`
	StaticDir string `mapstructure:"staticDir"`
}

// BuildConfig controls static generation.
type BuildConfig struct {
	OutputDir string `mapstructure:"outputDir"`
}

// HomeConfig controls the home page.
type HomeConfig struct {
	PostCount int `mapstructure:"postCount"`
}

// ServerConfig controls the request-time server.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig selects the zerolog level and output format.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Meta converts the site section into renderer metadata.
func (c Config) Meta() site.Meta {
	return site.Meta{
		Title:       c.Site.Title,
		Description: c.Site.Description,
		Author:      c.Site.Author,
		BaseURL:     c.Site.BaseURL,
		Language:    c.Site.Language,
		Intro:       c.Site.Intro,
	}
}

// SetDefaults registers every key so environment overrides apply on Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("site.title", "My Blog")
	v.SetDefault("site.description", "")
	v.SetDefault("site.author", "")
	v.SetDefault("site.baseURL", "http://localhost:8080")
	v.SetDefault("site.language", "en")
	v.SetDefault("site.intro", []string{})
	v.SetDefault("content.postsDir", "posts")
	v.SetDefault("content.staticDir", "static")
	v.SetDefault("build.outputDir", "out")
	v.SetDefault("home.postCount", posts.DefaultRecent)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads configuration from file (or ./folio.yaml when file is empty) and the
// environment. A missing default file is not an error; a missing explicit file is.
func Load(file string) (Config, error) {
	v := viper.New()
	SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(DefaultFile)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || file != "" {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required settings, rejects an output directory that overlaps
// a source directory, and normalizes the home post count.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Site.Title) == "" {
		return fmt.Errorf("%w: site.title must not be empty", ErrInvalid)
	}
	if strings.TrimSpace(c.Content.PostsDir) == "" {
		return fmt.Errorf("%w: content.postsDir must not be empty", ErrInvalid)
	}
	if strings.TrimSpace(c.Build.OutputDir) == "" {
		return fmt.Errorf("%w: build.outputDir must not be empty", ErrInvalid)
	}
	if err := build.CheckOutputDir(c.Build.OutputDir, c.Content.PostsDir, c.Content.StaticDir); err != nil {
		return fmt.Errorf("%w: build.outputDir: %v", ErrInvalid, err)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log.format must be console or json, got %q", ErrInvalid, c.Log.Format)
	}
	if c.Home.PostCount <= 0 {
		c.Home.PostCount = posts.DefaultRecent
	}
	return nil
}
