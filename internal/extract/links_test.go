package extract_test

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/rohmanhakim/canonurl/internal/extract"
	"github.com/rohmanhakim/canonurl/pkg/failure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestFromHTML(t *testing.T) {
	const page = `<!doctype html>
<html>
<head>
  <link rel="canonical" href="https://example.com/guide/">
  <link rel="stylesheet" href="/style.css">
</head>
<body>
  <a href="/docs/intro">Intro</a>
  <a href="https://other.org/page?utm_source=x">Other</a>
  <a href="#top">Top</a>
  <a href="mailto:me@example.com">Mail</a>
  <a href="javascript:void(0)">JS</a>
  <img src="/logo.png">
  <a href="/docs/intro">Intro again</a>
  <a href="next">Relative</a>
</body>
</html>`

	links, err := extract.FromHTML(strings.NewReader(page), mustParse(t, "https://example.com/guide/"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://example.com/guide/",
		"https://example.com/docs/intro",
		"https://other.org/page?utm_source=x",
		"https://example.com/guide/next",
	}, links)
}

func TestFromHTML_BaseElement(t *testing.T) {
	const page = `<html><head><base href="https://cdn.example.net/v2/"></head>
<body><a href="page">Page</a></body></html>`

	links, err := extract.FromHTML(strings.NewReader(page), mustParse(t, "https://example.com/"))
	require.NoError(t, err)

	assert.Equal(t, []string{"https://cdn.example.net/v2/page"}, links)
}

func TestFromHTML_NoBaseDropsRelativeLinks(t *testing.T) {
	const page = `<a href="/relative">r</a><a href="http://abs.com/x">a</a>`

	links, err := extract.FromHTML(strings.NewReader(page), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"http://abs.com/x"}, links)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk gone")
}

func TestFromHTML_ReadFailure(t *testing.T) {
	_, err := extract.FromHTML(failingReader{}, nil)

	var extractionErr *extract.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Equal(t, extract.ErrCauseReadFailure, extractionErr.Cause)
	assert.True(t, failure.IsFatal(err))
}

func TestFromMarkdown(t *testing.T) {
	src := []byte(`# Notes

See [the intro](/docs/intro) and [a question](https://stackoverflow.com/questions/1/some-slug).

![diagram](/img/diagram.png)

Duplicate: [intro again](/docs/intro). Anchor: [top](#top).
`)

	links := extract.FromMarkdown(src, mustParse(t, "https://example.com/notes"))

	assert.Equal(t, []string{
		"https://example.com/docs/intro",
		"https://stackoverflow.com/questions/1/some-slug",
	}, links)
}

func TestFromDocument(t *testing.T) {
	base := mustParse(t, "https://example.com/")

	tests := []struct {
		name   string
		format string
		body   string
		want   []string
	}{
		{"html", "html", `<a href="/a">a</a>`, []string{"https://example.com/a"}},
		{"markdown", "markdown", `[a](/a)`, []string{"https://example.com/a"}},
		{"md alias", "MD", `[b](/b)`, []string{"https://example.com/b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links, err := extract.FromDocument(strings.NewReader(tt.body), tt.format, base)
			require.NoError(t, err)
			assert.Equal(t, tt.want, links)
		})
	}
}

func TestFromDocument_UnknownFormat(t *testing.T) {
	_, err := extract.FromDocument(strings.NewReader(""), "pdf", nil)

	var extractionErr *extract.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Equal(t, extract.ErrCauseUnknownFormat, extractionErr.Cause)
}
