package posts

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/patricktcoakley/folio/internal/feed"
)

const summaryLimit = 160

// dateLayouts are tried in order when the front matter date is a string.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Option configures a Loader.
type Option func(*Loader)

// WithMarkdown replaces the default goldmark engine.
func WithMarkdown(md goldmark.Markdown) Option {
	return func(l *Loader) {
		l.md = md
	}
}

// Loader reads posts from the root of a filesystem. It keeps no state between
// calls: every call reads the directory again.
type Loader struct {
	fsys fs.FS
	md   goldmark.Markdown
}

// NewLoader creates a loader over fsys, usually os.DirFS of the posts directory.
func NewLoader(fsys fs.FS, opts ...Option) *Loader {
	l := &Loader{
		fsys: fsys,
		md:   NewMarkdown(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type frontMatter struct {
	Title   string `yaml:"title" toml:"title" json:"title"`
	Date    any    `yaml:"date" toml:"date" json:"date"`
	Summary string `yaml:"summary" toml:"summary" json:"summary"`
}

// SortedPosts returns every post ordered by date, newest first. Posts with the
// same date keep file name order. ContentHTML is left empty.
func (l *Loader) SortedPosts() ([]Post, error) {
	entries, err := fs.ReadDir(l.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read posts directory: %w", err)
	}

	posts := make([]Post, 0, len(entries))
	for _, entry := range entries {
		if !isPostFile(entry) {
			continue
		}
		post, _, err := l.load(entry.Name())
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Published.After(posts[j].Published)
	})
	return posts, nil
}

// Recent returns the first n posts of SortedPosts, or all of them when there
// are fewer than n.
func (l *Loader) Recent(n int) ([]Post, error) {
	posts, err := l.SortedPosts()
	if err != nil {
		return nil, err
	}
	return Limit(posts, n), nil
}

// Limit returns at most n leading posts.
func Limit(posts []Post, n int) []Post {
	if n < 0 {
		n = 0
	}
	if n > len(posts) {
		n = len(posts)
	}
	return posts[:n]
}

// IDs lists the id of every post in the directory, sorted by file name.
func (l *Loader) IDs() ([]string, error) {
	entries, err := fs.ReadDir(l.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read posts directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if isPostFile(entry) {
			ids = append(ids, strings.TrimSuffix(entry.Name(), Ext))
		}
	}
	return ids, nil
}

// Post loads a single post with its body rendered to HTML.
func (l *Loader) Post(id string) (Post, error) {
	if err := ValidateID(id); err != nil {
		return Post{}, err
	}

	// Directories named like posts are never listed, so they are not found either.
	info, err := fs.Stat(l.fsys, id+Ext)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.Mode().IsRegular()) {
		return Post{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Post{}, fmt.Errorf("stat %s: %w", id+Ext, err)
	}

	post, body, err := l.load(id + Ext)
	if err != nil {
		return Post{}, err
	}

	content, err := renderMarkdown(l.md, body)
	if err != nil {
		return Post{}, fmt.Errorf("render %s: %w", post.SourcePath, err)
	}
	post.ContentHTML = content
	return post, nil
}

// load parses the front matter of name and returns the post metadata together
// with the remaining markdown body.
func (l *Loader) load(name string) (Post, []byte, error) {
	source, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return Post{}, nil, fmt.Errorf("read %s: %w", name, err)
	}

	var fm frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(source), &fm)
	if err != nil {
		return Post{}, nil, fmt.Errorf("%w: %s: %v", ErrFrontMatter, name, err)
	}

	date, published, err := parseDate(fm.Date)
	if err != nil {
		return Post{}, nil, fmt.Errorf("%s: %w", name, err)
	}

	id := strings.TrimSuffix(name, Ext)
	post := Post{
		ID:         id,
		Title:      strings.TrimSpace(fm.Title),
		Date:       date,
		Published:  published,
		Summary:    strings.TrimSpace(fm.Summary),
		SourcePath: name,
	}
	if post.Title == "" {
		post.Title = titleFromID(id)
	}
	if post.Summary == "" {
		content, err := renderMarkdown(l.md, body)
		if err != nil {
			return Post{}, nil, fmt.Errorf("render %s: %w", name, err)
		}
		post.Summary = truncate(feed.StripHTML(string(content)), summaryLimit)
	}
	return post, body, nil
}

func isPostFile(entry fs.DirEntry) bool {
	name := entry.Name()
	return !entry.IsDir() && !strings.HasPrefix(name, ".") && strings.HasSuffix(name, Ext)
}

// parseDate accepts the date as decoded from YAML, TOML or JSON front matter and
// returns it as written along with its parsed time.
func parseDate(raw any) (string, time.Time, error) {
	switch v := raw.(type) {
	case nil:
		return "", time.Time{}, fmt.Errorf("%w: missing date", ErrInvalidDate)
	case time.Time:
		return isoDate(v), v, nil
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return s, t, nil
			}
		}
		return "", time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	default:
		return "", time.Time{}, fmt.Errorf("%w: unsupported value %v", ErrInvalidDate, v)
	}
}

func isoDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}

func titleFromID(id string) string {
	words := strings.NewReplacer("-", " ", "_", " ").Replace(id)
	return cases.Title(language.English).String(strings.Join(strings.Fields(words), " "))
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	cut := string(runes[:limit])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "..."
}
