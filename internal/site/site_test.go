package site

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"

	"github.com/patricktcoakley/folio/internal/posts"
	"github.com/patricktcoakley/folio/public"
)

var testMeta = Meta{
	Title:       "Ana's Blog",
	Description: "Tech and books",
	Author:      "Ana",
	BaseURL:     "https://example.com/",
	Intro:       []string{"Software engineer based in Stockholm.", "I write about tech and books."},
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(public.TemplatesFS, testMeta)
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	return r
}

func samplePosts() []posts.Post {
	return []posts.Post{
		{ID: "2021-06-15-b", Title: "B", Date: "2021-06-15", Published: time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC), Summary: "About B"},
		{ID: "2020-01-01-a", Title: "A", Date: "2020-01-01", Published: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
}

// parsePage returns the document title and every link href of the page.
func parsePage(t *testing.T, page string) (string, []string) {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		t.Fatalf("html.Parse() error = %v", err)
	}

	var title string
	var hrefs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if n.FirstChild != nil {
					title = n.FirstChild.Data
				}
			case "a":
				for _, attr := range n.Attr {
					if attr.Key == "href" {
						hrefs = append(hrefs, attr.Val)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title, hrefs
}

func postLinks(hrefs []string) []string {
	var out []string
	for _, h := range hrefs {
		if strings.HasPrefix(h, "/posts/") {
			out = append(out, h)
		}
	}
	return out
}

func TestHome(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	if err := r.Home(&buf, samplePosts()); err != nil {
		t.Fatalf("Home() error = %v", err)
	}
	page := buf.String()

	title, hrefs := parsePage(t, page)
	if title != testMeta.Title {
		t.Errorf("title = %q, want %q", title, testMeta.Title)
	}

	links := postLinks(hrefs)
	want := []string{"/posts/2021-06-15-b", "/posts/2020-01-01-a"}
	if strings.Join(links, " ") != strings.Join(want, " ") {
		t.Errorf("post links = %v, want %v", links, want)
	}
	for _, link := range links {
		if _, err := posts.IDFromPath(link); err != nil {
			t.Errorf("IDFromPath(%q) error = %v", link, err)
		}
	}

	for _, s := range []string{
		"June 15, 2021",
		`<time datetime="2021-06-15">`,
		`href="/posts"`,
		"Software engineer based in Stockholm.",
		`<h1 class="heading2Xl">`,
	} {
		if !strings.Contains(page, s) {
			t.Errorf("home page missing %q", s)
		}
	}
	if strings.Contains(page, "Back to home") {
		t.Error("home page should not link back to itself")
	}
}

func TestPostsIndex(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	if err := r.PostsIndex(&buf, samplePosts()); err != nil {
		t.Fatalf("PostsIndex() error = %v", err)
	}
	title, hrefs := parsePage(t, buf.String())
	if title != "Posts | "+testMeta.Title {
		t.Errorf("title = %q", title)
	}
	if got := len(postLinks(hrefs)); got != 2 {
		t.Errorf("post links = %d, want 2", got)
	}

	buf.Reset()
	if err := r.PostsIndex(&buf, nil); err != nil {
		t.Fatalf("PostsIndex(nil) error = %v", err)
	}
	if !strings.Contains(buf.String(), "Nothing here yet.") {
		t.Error("empty index should say so")
	}
}

func TestPost(t *testing.T) {
	r := newTestRenderer(t)

	p := samplePosts()[0]
	p.ContentHTML = `<h2 id="intro">Intro</h2><p>Body <script>ok()</script></p>`

	var buf bytes.Buffer
	if err := r.Post(&buf, p); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	page := buf.String()

	title, _ := parsePage(t, page)
	if title != "B | "+testMeta.Title {
		t.Errorf("title = %q", title)
	}
	if !strings.Contains(page, string(p.ContentHTML)) {
		t.Error("post body should be inserted unescaped")
	}
	if !strings.Contains(page, "Back to home") {
		t.Error("post page should link back home")
	}
}

func TestTitleIsEscaped(t *testing.T) {
	r := newTestRenderer(t)

	p := posts.Post{ID: "x", Title: "<b>bold</b>", Date: "2020-01-01"}
	var buf bytes.Buffer
	if err := r.PostsIndex(&buf, []posts.Post{p}); err != nil {
		t.Fatalf("PostsIndex() error = %v", err)
	}
	if strings.Contains(buf.String(), "<b>bold</b>") {
		t.Error("post titles must be HTML escaped")
	}
}

func TestNotFound(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	if err := r.NotFound(&buf); err != nil {
		t.Fatalf("NotFound() error = %v", err)
	}
	if !strings.Contains(buf.String(), "404") {
		t.Error("not found page should mention 404")
	}
}

func TestFeed(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	if err := r.Feed(&buf, samplePosts()); err != nil {
		t.Fatalf("Feed() error = %v", err)
	}

	parsed, err := gofeed.NewParser().Parse(&buf)
	if err != nil {
		t.Fatalf("gofeed parse error = %v", err)
	}
	if parsed.Link != "https://example.com/" {
		t.Errorf("channel link = %q", parsed.Link)
	}
	if len(parsed.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(parsed.Items))
	}
	if parsed.Items[0].Link != "https://example.com/posts/2021-06-15-b" {
		t.Errorf("first item link = %q", parsed.Items[0].Link)
	}
	if parsed.Items[0].Description != "About B" {
		t.Errorf("first item description = %q", parsed.Items[0].Description)
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		in   time.Time
		want string
	}{
		{in: time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC), want: "June 15, 2021"},
		{in: time.Date(2020, 1, 1, 23, 59, 0, 0, time.UTC), want: "January 1, 2020"},
		{in: time.Time{}, want: ""},
	}
	for _, tt := range tests {
		if got := FormatDate(tt.in); got != tt.want {
			t.Errorf("FormatDate(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMetaURL(t *testing.T) {
	tests := []struct {
		base string
		path string
		want string
	}{
		{base: "https://example.com/", path: "/posts/a", want: "https://example.com/posts/a"},
		{base: "https://example.com", path: "/", want: "https://example.com/"},
		{base: "", path: "/feed.xml", want: "/feed.xml"},
	}
	for _, tt := range tests {
		if got := (Meta{BaseURL: tt.base}).URL(tt.path); got != tt.want {
			t.Errorf("Meta{BaseURL: %q}.URL(%q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}
