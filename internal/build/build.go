// Package build generates the static site: every page rendered once and written
// as an index.html file under the output directory.
package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/patricktcoakley/folio/internal/posts"
	"github.com/patricktcoakley/folio/internal/site"
)

// Builder renders every page of the site into OutputDir.
type Builder struct {
	Posts     *posts.Loader
	Renderer  *site.Renderer
	OutputDir string
	// Assets are the bundled static files, copied to OutputDir/static.
	Assets fs.FS
	// StaticDir is an optional directory copied verbatim into OutputDir.
	StaticDir string
	// PostsDir is the directory behind Posts. When set, Build refuses an
	// OutputDir that overlaps it.
	PostsDir  string
	HomeCount int
	Logger    zerolog.Logger
}

// Result summarizes a build.
type Result struct {
	Posts  int
	Pages  int
	Assets int
}

// Build cleans the output directory and writes the home page, the posts index,
// one page per post, the RSS feed and the 404 page. Any failure aborts the build.
func (b *Builder) Build(ctx context.Context) (Result, error) {
	var res Result
	if err := ctx.Err(); err != nil {
		return res, err
	}
	if err := CheckOutputDir(b.OutputDir, b.PostsDir, b.StaticDir); err != nil {
		return res, err
	}

	all, err := b.Posts.SortedPosts()
	if err != nil {
		return res, fmt.Errorf("load posts: %w", err)
	}
	res.Posts = len(all)

	b.Logger.Debug().Str("dir", b.OutputDir).Msg("cleaning output directory")
	if err := os.RemoveAll(b.OutputDir); err != nil {
		return res, fmt.Errorf("remove output directory %s: %w", b.OutputDir, err)
	}
	if err := os.MkdirAll(b.OutputDir, 0o755); err != nil {
		return res, fmt.Errorf("create output directory %s: %w", b.OutputDir, err)
	}

	if b.Assets != nil {
		n, err := copyFS(filepath.Join(b.OutputDir, "static"), b.Assets)
		if err != nil {
			return res, fmt.Errorf("copy bundled assets: %w", err)
		}
		res.Assets += n
	}
	if b.StaticDir != "" {
		n, err := copyDir(b.OutputDir, b.StaticDir)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			b.Logger.Debug().Str("dir", b.StaticDir).Msg("static directory not found, skipping copy")
		case err != nil:
			return res, fmt.Errorf("copy static directory: %w", err)
		default:
			res.Assets += n
		}
	}

	pages := []struct {
		path   string
		render func(io.Writer) error
	}{
		{"index.html", func(w io.Writer) error { return b.Renderer.Home(w, posts.Limit(all, b.homeCount())) }},
		{"posts/index.html", func(w io.Writer) error { return b.Renderer.PostsIndex(w, all) }},
		{"feed.xml", func(w io.Writer) error { return b.Renderer.Feed(w, all) }},
		{"404.html", b.Renderer.NotFound},
	}
	for _, page := range pages {
		if err := b.write(page.path, page.render); err != nil {
			return res, err
		}
		res.Pages++
	}

	for _, summary := range all {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		post, err := b.Posts.Post(summary.ID)
		if err != nil {
			return res, fmt.Errorf("load post %s: %w", summary.ID, err)
		}
		path := filepath.Join("posts", post.ID, "index.html")
		if err := b.write(path, func(w io.Writer) error { return b.Renderer.Post(w, post) }); err != nil {
			return res, err
		}
		res.Pages++
	}

	b.Logger.Info().
		Int("posts", res.Posts).
		Int("pages", res.Pages).
		Int("assets", res.Assets).
		Str("dir", b.OutputDir).
		Msg("site built")
	return res, nil
}

func (b *Builder) homeCount() int {
	if b.HomeCount <= 0 {
		return posts.DefaultRecent
	}
	return b.HomeCount
}

// write renders into memory first so a failing template leaves no partial file.
func (b *Builder) write(rel string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return fmt.Errorf("render %s: %w", rel, err)
	}

	path := filepath.Join(b.OutputDir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	b.Logger.Debug().Str("path", path).Msg("generated")
	return nil
}

// copyDir copies the contents of src into dst.
func copyDir(dst, src string) (int, error) {
	info, err := os.Stat(src)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%s is not a directory", src)
	}
	return copyFS(dst, os.DirFS(src))
}

// copyFS recursively copies every file of fsys under dst and returns the number
// of files written.
func copyFS(dst string, fsys fs.FS) (int, error) {
	count := 0
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dst, filepath.FromSlash(path))
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if err := copyFile(target, fsys, path); err != nil {
			return fmt.Errorf("copy %s: %w", path, err)
		}
		count++
		return nil
	})
	return count, err
}

func copyFile(target string, fsys fs.FS, name string) error {
	src, err := fsys.Open(name)
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
