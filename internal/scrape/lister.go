package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/clobrano/newsvoice/internal/fetch"
	"github.com/clobrano/newsvoice/internal/logger"
	"github.com/clobrano/newsvoice/internal/models"
)

// DefaultDelay is the politeness pause before each article fetch.
const DefaultDelay = 1 * time.Second

// candidate is a discovered link not yet fetched.
type candidate struct {
	title  string
	author string
	url    string
}

// Lister discovers article links on a site and extracts each article.
type Lister struct {
	fetcher     fetch.Fetcher
	site        Site
	origin      *url.URL
	linkPattern *regexp.Regexp
	minLinkText int
	delay       time.Duration
	now         func() time.Time
	log         *slog.Logger
}

type ListerOption func(*Lister)

// WithDelay sets the politeness delay applied before every article fetch.
func WithDelay(d time.Duration) ListerOption {
	return func(l *Lister) {
		if d >= 0 {
			l.delay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) ListerOption {
	return func(l *Lister) { l.log = logger.OrDefault(log) }
}

// WithClock overrides the clock used to date articles.
func WithClock(now func() time.Time) ListerOption {
	return func(l *Lister) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLister validates the site configuration and returns a Lister.
func NewLister(fetcher fetch.Fetcher, site Site, opts ...ListerOption) (*Lister, error) {
	if fetcher == nil {
		return nil, errors.New("scrape.NewLister: fetcher cannot be nil")
	}
	origin, err := site.Origin()
	if err != nil {
		return nil, err
	}
	pattern, err := site.CompileLinkPattern()
	if err != nil {
		return nil, err
	}

	minLinkText := site.MinLinkText
	if minLinkText <= 0 {
		minLinkText = DefaultMinLinkText
	}

	l := &Lister{
		fetcher:     fetcher,
		site:        site,
		origin:      origin,
		linkPattern: pattern,
		minLinkText: minLinkText,
		delay:       DefaultDelay,
		now:         time.Now,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// List returns up to limit articles in discovery order. Only articles with
// extracted content count towards limit; limit <= 0 means no limit. A
// failure to fetch or parse the listing itself is returned as an error with
// no articles. Failures on single articles are logged and skipped.
func (l *Lister) List(ctx context.Context, limit int) ([]models.Article, error) {
	candidates, err := l.discover(ctx)
	if err != nil {
		return nil, err
	}
	l.log.Info("Discovered article links", "site", l.site.Name, "links", len(candidates))

	articles := make([]models.Article, 0)
	seen := make(map[string]bool)

	for _, c := range candidates {
		if limit > 0 && len(articles) >= limit {
			break
		}
		if seen[c.url] {
			continue
		}
		seen[c.url] = true

		if err := sleep(ctx, l.delay); err != nil {
			return nil, err
		}

		content, err := l.articleContent(ctx, c.url)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			l.log.Warn("Skipping article", "url", c.url, "err", err)
			continue
		}

		articles = append(articles, models.NewArticle(c.title, c.author, c.url, content, l.now()))
		l.log.Debug("Extracted article", "url", c.url, "chars", utf8.RuneCountInString(content))
	}

	l.log.Info("Collected articles", "site", l.site.Name, "count", len(articles))
	return articles, nil
}

// discover finds candidate links from the feed or the listing page.
func (l *Lister) discover(ctx context.Context) ([]candidate, error) {
	if l.site.FeedURL != "" {
		return l.fromFeed(ctx)
	}

	body, err := l.fetcher.Fetch(ctx, l.site.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listing: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing: %w", err)
	}

	cards := doc.Find(l.site.Selectors.ArticleCard)
	if l.site.Selectors.ArticleCard == "" || cards.Length() == 0 {
		l.log.Warn("No article cards found, scanning links", "url", l.site.URL)
		return l.fromAnchors(doc), nil
	}
	return l.fromCards(cards), nil
}

func (l *Lister) fromCards(cards *goquery.Selection) []candidate {
	sel := l.site.Selectors
	var out []candidate

	cards.Each(func(_ int, card *goquery.Selection) {
		titleEl := card.Find(sel.Title).First()
		linkEl := card.Find(sel.Link).First()
		if titleEl.Length() == 0 || linkEl.Length() == 0 {
			return
		}

		href, ok := linkEl.Attr("href")
		if !ok {
			return
		}
		link, ok := l.resolve(href)
		if !ok {
			return
		}

		author := ""
		if sel.Author != "" {
			author = strings.TrimSpace(card.Find(sel.Author).First().Text())
		}

		out = append(out, candidate{
			title:  strings.TrimSpace(titleEl.Text()),
			author: author,
			url:    link,
		})
	})

	return out
}

func (l *Lister) fromAnchors(doc *goquery.Document) []candidate {
	if l.linkPattern == nil {
		l.log.Warn("No link pattern configured, nothing to scan", "site", l.site.Name)
		return nil
	}

	var out []candidate
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		link, ok := l.resolve(href)
		if !ok {
			return
		}
		u, err := url.Parse(link)
		if err != nil || !l.linkPattern.MatchString(u.Path) {
			return
		}

		title := strings.TrimSpace(a.Text())
		if utf8.RuneCountInString(title) <= l.minLinkText {
			return
		}
		out = append(out, candidate{title: title, url: link})
	})
	return out
}

// articleContent fetches one article and extracts its body.
func (l *Lister) articleContent(ctx context.Context, link string) (string, error) {
	body, err := l.fetcher.Fetch(ctx, link)
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse article: %w", err)
	}

	content, err := Extract(doc, l.site.Selectors.Content)
	if err == nil || !l.site.ReadabilityFallback {
		return content, err
	}

	l.log.Debug("Selectors missed, trying readability", "url", link, "err", err)
	return ExtractReadable(body, link)
}

// resolve makes href absolute against the site origin. Only http and https
// links are accepted.
func (l *Lister) resolve(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := l.origin.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	abs.Fragment = ""
	return abs.String(), true
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
