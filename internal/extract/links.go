/*
Responsibilities
- Pull outbound link targets out of scraped HTML and Markdown documents
- Resolve relative targets against the document's base URL
- Return absolute http(s) URLs in document order, each once

Images and scripts are not links; only navigational targets are returned.
*/
package extract

import (
	"bytes"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"
)

const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

// linkSelector matches anchors and the document's declared canonical URL.
const linkSelector = `a[href], link[rel="canonical"][href]`

// FromHTML returns the absolute link targets of an HTML document.
// A <base href> in the document takes precedence over base.
func FromHTML(r io.Reader, base *url.URL) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &ExtractionError{
			Message: "parse html",
			Cause:   ErrCauseReadFailure,
			Err:     err,
		}
	}

	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if declared := resolve(base, href); declared != nil {
			base = declared
		}
	}

	collector := newCollector(base)
	doc.Find(linkSelector).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		collector.add(href)
	})
	return collector.links, nil
}

// FromMarkdown returns the absolute link targets of a Markdown document.
func FromMarkdown(src []byte, base *url.URL) []string {
	doc := markdown.Parse(src, parser.New())

	collector := newCollector(base)
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		if link, ok := node.(*ast.Link); ok {
			collector.add(string(link.Destination))
		}
		return ast.GoToNext
	})
	return collector.links
}

// FromDocument dispatches on format, one of FormatHTML or FormatMarkdown.
func FromDocument(r io.Reader, format string, base *url.URL) ([]string, error) {
	switch strings.ToLower(format) {
	case FormatHTML:
		return FromHTML(r, base)
	case FormatMarkdown, "md":
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(r); err != nil {
			return nil, &ExtractionError{
				Message:   "read markdown",
				Retryable: true,
				Cause:     ErrCauseReadFailure,
				Err:       err,
			}
		}
		return FromMarkdown(buf.Bytes(), base), nil
	default:
		return nil, &ExtractionError{
			Message: format,
			Cause:   ErrCauseUnknownFormat,
		}
	}
}

type collector struct {
	base  *url.URL
	seen  map[string]struct{}
	links []string
}

func newCollector(base *url.URL) *collector {
	return &collector{
		base: base,
		seen: map[string]struct{}{},
	}
}

func (c *collector) add(href string) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return
	}
	target := resolve(c.base, href)
	if target == nil {
		return
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return
	}
	abs := target.String()
	if _, dup := c.seen[abs]; dup {
		return
	}
	c.seen[abs] = struct{}{}
	c.links = append(c.links, abs)
}

// resolve returns href as an absolute URL, or nil when it cannot be made absolute.
func resolve(base *url.URL, href string) *url.URL {
	ref, err := url.Parse(href)
	if err != nil {
		return nil
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if !ref.IsAbs() || ref.Host == "" {
		return nil
	}
	return ref
}
