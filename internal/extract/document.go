package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

type Kind int

const (
	KindXPath Kind = iota
	KindCSS
)

// Locator is one way of finding an element on a page.
type Locator struct {
	Kind  Kind
	Query string
}

func XPath(query string) Locator { return Locator{Kind: KindXPath, Query: query} }

func CSS(query string) Locator { return Locator{Kind: KindCSS, Query: query} }

// Document is a parsed snapshot of a browser tab.
type Document struct {
	root *html.Node
	doc  *goquery.Document
	base *url.URL
}

// Parse parses page HTML. pageURL is used to resolve relative links and may
// be empty.
func Parse(content, pageURL string) (*Document, error) {
	root, err := htmlquery.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var base *url.URL
	if pageURL != "" {
		base, err = url.Parse(pageURL)
		if err != nil {
			return nil, fmt.Errorf("invalid page URL %q: %w", pageURL, err)
		}
	}

	return &Document{
		root: root,
		doc:  goquery.NewDocumentFromNode(root),
		base: base,
	}, nil
}

// Find returns every node matched by the locator. Invalid queries and
// missing elements both yield nil.
func (d *Document) Find(l Locator) []*html.Node {
	return d.findIn(d.root, l)
}

func (d *Document) findIn(ctx *html.Node, l Locator) []*html.Node {
	switch l.Kind {
	case KindCSS:
		return goquery.NewDocumentFromNode(ctx).Find(l.Query).Nodes
	default:
		nodes, err := htmlquery.QueryAll(ctx, l.Query)
		if err != nil {
			return nil
		}
		return nodes
	}
}

// Selection exposes the goquery view for lookups that need filtering.
func (d *Document) Selection() *goquery.Selection {
	return d.doc.Selection
}

// FirstText returns the text of the first locator that matches an element
// with non-empty text, or "".
func (d *Document) FirstText(locators ...Locator) string {
	for _, l := range locators {
		for _, n := range d.Find(l) {
			if text := Text(n); text != "" {
				return text
			}
		}
	}
	return ""
}

// Attr returns the attribute value of n, resolved to an absolute URL when the
// attribute holds a link.
func (d *Document) Attr(n *html.Node, name string) string {
	val := strings.TrimSpace(htmlquery.SelectAttr(n, name))
	if val == "" {
		return ""
	}
	if name == "href" || name == "src" {
		return d.Resolve(val)
	}
	return val
}

// Resolve makes ref absolute against the page URL.
func (d *Document) Resolve(ref string) string {
	if d.base == nil || strings.HasPrefix(ref, "data:") {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return d.base.ResolveReference(u).String()
}

var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "ul": true, "ol": true, "br": true,
	"tr": true, "table": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"section": true,
}

var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
}

// Text returns the visible text of n: scripts are skipped, block elements
// start new lines, whitespace inside a line is collapsed and blank lines are
// dropped.
func Text(n *html.Node) string {
	var b strings.Builder
	collectText(&b, n)

	lines := strings.Split(b.String(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func collectText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(strings.ReplaceAll(n.Data, "\n", " "))
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		if skippedElements[n.Data] {
			return
		}
	}

	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		b.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
	if block {
		b.WriteByte('\n')
	}
}
