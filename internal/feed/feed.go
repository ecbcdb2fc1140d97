// Package feed builds RSS 2.0 documents and extracts plain text from HTML.
package feed

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	rssVersion  = "2.0"
	dcNamespace = "http://purl.org/dc/elements/1.1/"
	generator   = "folio"
)

var (
	ErrMissingTitle = errors.New("feed title is required")
	ErrMissingLink  = errors.New("feed link is required")
)

// Channel describes the site publishing the feed.
type Channel struct {
	Title       string
	Link        string
	Description string
	Author      string
	Language    string
}

// Item represents a single entry of the feed.
type Item struct {
	ID          string
	Title       string
	Description string
	Link        string
	Author      string
	Published   time.Time
}

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	DC      string     `xml:"xmlns:dc,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language,omitempty"`
	Creator       string    `xml:"dc:creator,omitempty"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Generator     string    `xml:"generator"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	GUID        rssGUID `xml:"guid"`
	PubDate     string  `xml:"pubDate,omitempty"`
	Creator     string  `xml:"dc:creator,omitempty"`
	Description string  `xml:"description,omitempty"`
}

type rssGUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink bool   `xml:"isPermaLink,attr"`
}

// RSS renders the channel and its items as an RSS 2.0 document. Items are
// written in the order given; lastBuildDate is the newest item date.
func RSS(ch Channel, items []Item) ([]byte, error) {
	if strings.TrimSpace(ch.Title) == "" {
		return nil, ErrMissingTitle
	}
	if strings.TrimSpace(ch.Link) == "" {
		return nil, ErrMissingLink
	}

	doc := rssDocument{
		Version: rssVersion,
		DC:      dcNamespace,
		Channel: rssChannel{
			Title:       ch.Title,
			Link:        ch.Link,
			Description: ch.Description,
			Language:    ch.Language,
			Creator:     ch.Author,
			Generator:   generator,
			Items:       make([]rssItem, 0, len(items)),
		},
	}

	var newest time.Time
	for _, it := range items {
		guid := it.ID
		if guid == "" {
			guid = it.Link
		}
		entry := rssItem{
			Title:       it.Title,
			Link:        it.Link,
			GUID:        rssGUID{Value: guid, IsPermaLink: guid == it.Link},
			Creator:     it.Author,
			Description: it.Description,
		}
		if !it.Published.IsZero() {
			entry.PubDate = it.Published.Format(time.RFC1123Z)
			if it.Published.After(newest) {
				newest = it.Published
			}
		}
		doc.Channel.Items = append(doc.Channel.Items, entry)
	}
	if !newest.IsZero() {
		doc.Channel.LastBuildDate = newest.Format(time.RFC1123Z)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal rss: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// blockElements start a new run of text, so adjacent paragraphs do not run together.
var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Blockquote: true, atom.Pre: true, atom.Td: true, atom.Th: true,
}

// StripHTML returns the readable text of an HTML fragment with whitespace
// collapsed. Entities are decoded; script and style contents are dropped.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}

	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		// Not HTML after all.
		return strings.TrimSpace(s)
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(n.Data)
		case html.ElementNode:
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
				return
			}
			if blockElements[n.DataAtom] {
				buf.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(strings.Fields(buf.String()), " ")
}
