// Package posts loads blog posts from a directory of markdown files with front matter.
package posts

import (
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"
)

// Ext is the file extension of post sources.
const Ext = ".md"

// DefaultRecent is how many posts the home page lists unless configured otherwise.
const DefaultRecent = 3

const pathPrefix = "/posts/"

var (
	ErrNotFound    = errors.New("post not found")
	ErrInvalidID   = errors.New("invalid post id")
	ErrInvalidDate = errors.New("invalid post date")
	ErrFrontMatter = errors.New("invalid front matter")
)

// Post is a read-only projection of one markdown file.
type Post struct {
	ID          string
	Title       string
	Date        string
	Published   time.Time
	Summary     string
	ContentHTML template.HTML
	SourcePath  string
}

// Path returns the URL path of the post's detail page.
func (p Post) Path() string {
	return PostPath(p.ID)
}

// PostPath maps a post id to its detail page path.
func PostPath(id string) string {
	return pathPrefix + url.PathEscape(id)
}

// IDFromPath is the inverse of PostPath. A single trailing slash is accepted
// so links to statically generated directories resolve as well.
func IDFromPath(p string) (string, error) {
	rest, ok := strings.CutPrefix(p, pathPrefix)
	if !ok {
		return "", fmt.Errorf("%w: path %q is not a post path", ErrInvalidID, p)
	}
	rest = strings.TrimSuffix(rest, "/")

	id, err := url.PathUnescape(rest)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	if err := ValidateID(id); err != nil {
		return "", err
	}
	return id, nil
}

// ValidateID rejects ids that cannot name a file directly inside the posts directory.
func ValidateID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
