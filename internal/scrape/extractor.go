package scrape

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// ErrNotExtracted means no article body could be found on the page. Callers
// skip the article.
var ErrNotExtracted = errors.New("content could not be extracted")

// Extract returns the paragraphs of the first element matched by the first
// selector that matches anything, trimmed and joined by newlines. Later
// selectors are never consulted once one matched, even if the matched
// container has no text.
func Extract(doc *goquery.Document, selectors []string) (string, error) {
	for _, selector := range selectors {
		if strings.TrimSpace(selector) == "" {
			continue
		}
		container := doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}

		var paragraphs []string
		container.Find("p").Each(func(_ int, p *goquery.Selection) {
			if text := strings.TrimSpace(p.Text()); text != "" {
				paragraphs = append(paragraphs, text)
			}
		})

		if len(paragraphs) == 0 {
			return "", fmt.Errorf("%w: %q matched but holds no paragraphs", ErrNotExtracted, selector)
		}
		return strings.Join(paragraphs, "\n"), nil
	}

	return "", fmt.Errorf("%w: no content selector matched", ErrNotExtracted)
}

// ExtractReadable is the generic fallback: it runs a readability pass over
// the raw page and returns its non-empty lines joined by newlines.
func ExtractReadable(body []byte, pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid page url: %w", err)
	}

	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return "", fmt.Errorf("%w: readability: %v", ErrNotExtracted, err)
	}

	var lines []string
	for _, line := range strings.Split(article.TextContent, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("%w: readability found no text", ErrNotExtracted)
	}
	return strings.Join(lines, "\n"), nil
}
