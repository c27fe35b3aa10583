package scrape

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

// fromFeed reads candidate links from the site's RSS or Atom feed. gofeed
// detects the format.
func (l *Lister) fromFeed(ctx context.Context) ([]candidate, error) {
	body, err := l.fetcher.Fetch(ctx, l.site.FeedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	out := make([]candidate, 0, len(feed.Items))
	for _, item := range feed.Items {
		link, ok := l.resolve(item.Link)
		if !ok {
			continue
		}
		out = append(out, candidate{
			title:  strings.TrimSpace(item.Title),
			author: feedAuthor(item),
			url:    link,
		})
	}
	return out, nil
}

func feedAuthor(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return strings.TrimSpace(item.Author.Name)
	}
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			return strings.TrimSpace(a.Name)
		}
	}
	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0 {
		return strings.TrimSpace(item.DublinCoreExt.Creator[0])
	}
	return ""
}
