/*
Responsibilities
- Strip markup wrapped around a URL
- Drop control, invisible formatting and unsafe characters
- Trim surrounding whitespace

The output never contains markup, so a second pass is a no-op.
*/
package sanitizer

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

type URLSanitizer struct{}

func NewURLSanitizer() *URLSanitizer {
	return &URLSanitizer{}
}

func (s *URLSanitizer) SanitizeURL(raw string) string {
	text := raw
	if strings.ContainsRune(raw, '<') {
		text = stripMarkup(raw)
	}
	return strings.TrimSpace(strings.Map(dropUnsafe, text))
}

// stripMarkup keeps the text content of an HTML fragment. When the fragment has no text,
// the first link attribute found stands in for it.
func stripMarkup(fragment string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))

	var (
		text      strings.Builder
		firstLink string
		skipDepth int
	)

	for {
		tokenType := tokenizer.Next()
		switch tokenType {
		case html.ErrorToken:
			if strings.TrimSpace(text.String()) == "" && firstLink != "" {
				return firstLink
			}
			return text.String()

		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			if _, skip := skippedElements[token.Data]; skip {
				if tokenType == html.StartTagToken {
					skipDepth++
				}
				continue
			}
			if firstLink == "" {
				firstLink = linkAttribute(token)
			}

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if _, skip := skippedElements[string(name)]; skip && skipDepth > 0 {
				skipDepth--
			}

		case html.TextToken:
			if skipDepth == 0 {
				text.Write(tokenizer.Text())
			}
		}
	}
}

func linkAttribute(token html.Token) string {
	for _, want := range linkAttributes {
		for _, attr := range token.Attr {
			if attr.Key == want && strings.TrimSpace(attr.Val) != "" {
				return attr.Val
			}
		}
	}
	return ""
}

func dropUnsafe(r rune) rune {
	if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
		return -1
	}
	if _, unsafe := unsafeRunes[r]; unsafe {
		return -1
	}
	return r
}
