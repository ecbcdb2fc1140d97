// Package site renders the blog's HTML pages and RSS feed from loaded posts.
package site

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/patricktcoakley/folio/internal/feed"
	"github.com/patricktcoakley/folio/internal/posts"
)

// Page templates, each parsed into its own clone of base.tmpl.
const (
	PageHome     = "home.tmpl"
	PagePosts    = "posts.tmpl"
	PagePost     = "post.tmpl"
	PageNotFound = "notfound.tmpl"
)

const dateFormat = "January 2, 2006"

var pages = []string{PageHome, PagePosts, PagePost, PageNotFound}

// Meta holds site-wide metadata shown on every page.
type Meta struct {
	Title       string
	Description string
	Author      string
	BaseURL     string
	Language    string
	Intro       []string
}

// URL resolves an absolute site path against BaseURL.
func (m Meta) URL(path string) string {
	return strings.TrimRight(m.BaseURL, "/") + path
}

// Renderer executes the page templates. It is safe for concurrent use.
type Renderer struct {
	meta  Meta
	pages map[string]*template.Template
}

type pageData struct {
	Site  Meta
	Title string
	Home  bool
	Posts []posts.Post
	Post  posts.Post
}

// NewRenderer parses templates/base.tmpl and every page template from fsys.
func NewRenderer(fsys fs.FS, meta Meta) (*Renderer, error) {
	if meta.Language == "" {
		meta.Language = "en"
	}

	base, err := template.New("base.tmpl").Funcs(funcs()).ParseFS(fsys, "templates/base.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse base template: %w", err)
	}

	parsed := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		tmpl, err := template.Must(base.Clone()).ParseFS(fsys, "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse page template %s: %w", page, err)
		}
		parsed[page] = tmpl
	}

	return &Renderer{meta: meta, pages: parsed}, nil
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"postPath":   posts.PostPath,
		"formatDate": FormatDate,
	}
}

// FormatDate renders a post date for display, e.g. "June 15, 2021".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateFormat)
}

// Meta returns the site metadata the renderer was built with.
func (r *Renderer) Meta() Meta {
	return r.meta
}

// Home renders the landing page with the given recent posts.
func (r *Renderer) Home(w io.Writer, recent []posts.Post) error {
	return r.execute(w, PageHome, pageData{
		Title: r.meta.Title,
		Home:  true,
		Posts: recent,
	})
}

// PostsIndex renders the list of all posts.
func (r *Renderer) PostsIndex(w io.Writer, all []posts.Post) error {
	return r.execute(w, PagePosts, pageData{
		Title: r.title("Posts"),
		Posts: all,
	})
}

// Post renders a post detail page. The post must have ContentHTML loaded.
func (r *Renderer) Post(w io.Writer, p posts.Post) error {
	return r.execute(w, PagePost, pageData{
		Title: r.title(p.Title),
		Post:  p,
	})
}

// NotFound renders the 404 page.
func (r *Renderer) NotFound(w io.Writer) error {
	return r.execute(w, PageNotFound, pageData{
		Title: r.title("Page Not Found"),
	})
}

// Feed writes the RSS document for the given posts, newest first.
func (r *Renderer) Feed(w io.Writer, list []posts.Post) error {
	items := make([]feed.Item, 0, len(list))
	for _, p := range list {
		link := r.meta.URL(p.Path())
		items = append(items, feed.Item{
			ID:          link,
			Title:       p.Title,
			Description: p.Summary,
			Link:        link,
			Author:      r.meta.Author,
			Published:   p.Published,
		})
	}

	out, err := feed.RSS(feed.Channel{
		Title:       r.meta.Title,
		Link:        r.meta.URL("/"),
		Description: r.meta.Description,
		Author:      r.meta.Author,
		Language:    r.meta.Language,
	}, items)
	if err != nil {
		return fmt.Errorf("build feed: %w", err)
	}
	_, err = w.Write(out)
	return err
}

func (r *Renderer) title(page string) string {
	if page == "" {
		return r.meta.Title
	}
	return page + " | " + r.meta.Title
}

// execute renders into a buffer first so a failing template never leaves a
// partial page behind.
func (r *Renderer) execute(w io.Writer, page string, data pageData) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("template %s not found", page)
	}
	data.Site = r.meta

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
