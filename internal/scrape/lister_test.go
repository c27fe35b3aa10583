package scrape

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clobrano/newsvoice/internal/logger"
)

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	body, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("no page for %s", url)
	}
	return []byte(body), nil
}

var fixedNow = time.Date(2024, 3, 9, 7, 30, 0, 0, time.UTC)

func testSite() Site {
	return Site{
		Name:    "example",
		URL:     "https://news.example.com/columns",
		BaseURL: "https://news.example.com",
		Selectors: Selectors{
			ArticleCard: "div.card",
			Title:       "h3",
			Author:      "span.author",
			Link:        "a",
			Content:     []string{"div.article-content", "article"},
		},
	}
}

func newTestLister(t *testing.T, f *fakeFetcher, site Site) *Lister {
	t.Helper()
	l, err := NewLister(f, site,
		WithDelay(0),
		WithLogger(logger.Discard()),
		WithClock(func() time.Time { return fixedNow }),
	)
	require.NoError(t, err)
	return l
}

func card(title, author, href string) string {
	return fmt.Sprintf(`<div class="card"><h3>%s</h3><span class="author">%s</span><a href="%s">read</a></div>`, title, author, href)
}

func TestList_CardPath(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://news.example.com/columns":      `<html><body>` + card("Test Column", "J. Doe", "/columns/test") + `</body></html>`,
		"https://news.example.com/columns/test": `<div class="article-content"><p>Hello.</p><p>World.</p></div>`,
	}}

	articles, err := newTestLister(t, f, testSite()).List(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, articles, 1)

	a := articles[0]
	assert.Equal(t, "Test Column", a.Title)
	assert.Equal(t, "J. Doe", a.Author)
	assert.Equal(t, "https://news.example.com/columns/test", a.URL)
	assert.Equal(t, "Hello.\nWorld.", a.Content)
	assert.Equal(t, "2024-03-09", a.Date)
}

func TestList_MissingAuthorBecomesUnknown(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://news.example.com/columns":   `<div class="card"><h3>No Byline</h3><a href="/columns/a">x</a></div>`,
		"https://news.example.com/columns/a": `<article><p>Body.</p></article>`,
	}}

	articles, err := newTestLister(t, f, testSite()).List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Unknown", articles[0].Author)
}

func TestList_CapCountsOnlyExtractedArticles(t *testing.T) {
	listing := card("Broken", "A", "/columns/broken") +
		card("First", "B", "/columns/1") +
		card("Second", "C", "/columns/2") +
		card("Third", "D", "/columns/3")

	f := &fakeFetcher{pages: map[string]string{
		"https://news.example.com/columns":        listing,
		"https://news.example.com/columns/broken": `<div class="other">nothing</div>`,
		"https://news.example.com/columns/1":      `<article><p>One.</p></article>`,
		"https://news.example.com/columns/2":      `<article><p>Two.</p></article>`,
		"https://news.example.com/columns/3":      `<article><p>Three.</p></article>`,
	}}

	articles, err := newTestLister(t, f, testSite()).List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "First", articles[0].Title)
	assert.Equal(t, "Second", articles[1].Title)

	assert.NotContains(t, f.calls, "https://news.example.com/columns/3")
}

func TestList_SkipsCardsWithoutTitleOrLink(t *testing.T) {
	listing := `<div class="card"><a href="/columns/x">no title</a></div>` +
		`<div class="card"><h3>No link</h3></div>` +
		card("Good", "E", "/columns/good")

	f := &fakeFetcher{pages: map[string]string{
		"https://news.example.com/columns":      listing,
		"https://news.example.com/columns/good": `<article><p>Fine.</p></article>`,
	}}

	articles, err := newTestLister(t, f, testSite()).List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Good", articles[0].Title)
}

func TestList_DeduplicatesLinks(t *testing.T) {
	listing := card("Same", "A", "/columns/same") + card("Same again", "A", "https://news.example.com/columns/same#top")

	f := &fakeFetcher{pages: map[string]string{
		"https://news.example.com/columns":      listing,
		"https://news.example.com/columns/same": `<article><p>Once.</p></article>`,
	}}

	articles, err := newTestLister(t, f, testSite()).List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, articles, 1)
}

func TestList_AnchorFallback(t *testing.T) {
	site := testSite()
	site.LinkPattern = `^/columns/.+`

	listing := `<html><body>
<a href="/columns/long-title">A sufficiently long headline</a>
<a href="/columns/short">Short</a>
<a href="/about">About this newspaper and its staff</a>
<a href="mailto:desk@example.com">Write to the editorial desk</a>
</body></html>`

	f := &fakeFetcher{pages: map[string]string{
		"https://news.example.com/columns":            listing,
		"https://news.example.com/columns/long-title": `<article><p>Fallback body.</p></article>`,
	}}

	articles, err := newTestLister(t, f, site).List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "A sufficiently long headline", articles[0].Title)
	assert.Equal(t, "Unknown", articles[0].Author)
	assert.Equal(t, "Fallback body.", articles[0].Content)
}

func TestList_NothingFound(t *testing.T) {
	site := testSite()
	site.LinkPattern = `^/columns/.+`

	f := &fakeFetcher{pages: map[string]string{
		"https://news.example.com/columns": `<html><body><p>Maintenance</p></body></html>`,
	}}

	articles, err := newTestLister(t, f, site).List(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestList_ListingFailure(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{}}

	articles, err := newTestLister(t, f, testSite()).List(context.Background(), 5)
	assert.Error(t, err)
	assert.Empty(t, articles)
}

func TestList_ReadabilityFallback(t *testing.T) {
	site := testSite()
	site.ReadabilityFallback = true

	page := `<html><head><title>Odd layout</title></head><body><main><section>
<p>This page does not use any of the configured containers for its story text at all.</p>
<p>A readability pass still finds the paragraphs and returns them as the article body.</p>
<p>That keeps the run going when a site changes its markup without warning anyone.</p>
</section></main></body></html>`

	f := &fakeFetcher{pages: map[string]string{
		"https://news.example.com/columns":     card("Odd", "F", "/columns/odd"),
		"https://news.example.com/columns/odd": page,
	}}

	articles, err := newTestLister(t, f, site).List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Contains(t, articles[0].Content, "readability pass")
}

func TestList_CancelledDuringDelay(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://news.example.com/columns": card("Slow", "G", "/columns/slow"),
	}}
	l, err := NewLister(f, testSite(), WithDelay(time.Hour), WithLogger(logger.Discard()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = l.List(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestList_Feed(t *testing.T) {
	site := testSite()
	site.FeedURL = "https://news.example.com/feed.xml"

	feed := `<?xml version="1.0"?>
<rss version="2.0"><channel><title>News</title>
<item><title>Feed Story</title><link>https://news.example.com/columns/feed-story</link><author>desk@example.com (Ann Writer)</author></item>
</channel></rss>`

	f := &fakeFetcher{pages: map[string]string{
		"https://news.example.com/feed.xml":           feed,
		"https://news.example.com/columns/feed-story": `<article><p>From the feed.</p></article>`,
	}}

	articles, err := newTestLister(t, f, site).List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Feed Story", articles[0].Title)
	assert.Equal(t, "From the feed.", articles[0].Content)
	assert.NotContains(t, f.calls, "https://news.example.com/columns")
}

func TestNewLister_InvalidPattern(t *testing.T) {
	site := testSite()
	site.LinkPattern = "(["
	_, err := NewLister(&fakeFetcher{}, site)
	assert.Error(t, err)
}
