// Package scrape turns listing and article pages into articles using a
// declarative selector configuration.
package scrape

import (
	"fmt"
	"net/url"
	"regexp"
)

// Selectors tells the scraper where things live on a page. Content
// selectors are tried in order, so specific selectors must come before
// generic ones such as a bare "article".
type Selectors struct {
	ArticleCard string   `yaml:"article_card" json:"article_card"`
	Title       string   `yaml:"title" json:"title"`
	Author      string   `yaml:"author" json:"author"`
	Link        string   `yaml:"link" json:"link"`
	Content     []string `yaml:"content" json:"content"`
}

// Site describes one news source.
type Site struct {
	Name string `yaml:"name" json:"name"`
	// URL is the listing page.
	URL string `yaml:"url" json:"url"`
	// BaseURL is the origin relative links resolve against. Defaults to the
	// scheme and host of URL.
	BaseURL string `yaml:"base_url" json:"base_url,omitempty"`
	// FeedURL, when set, replaces listing-page discovery with an RSS/Atom feed.
	FeedURL string `yaml:"feed_url" json:"feed_url,omitempty"`
	// LinkPattern filters anchors when the page has no article cards.
	LinkPattern string `yaml:"link_pattern" json:"link_pattern"`
	// MinLinkText is the anchor text length an article link must exceed.
	MinLinkText         int       `yaml:"min_link_text" json:"min_link_text"`
	ReadabilityFallback bool      `yaml:"readability_fallback" json:"readability_fallback"`
	Selectors           Selectors `yaml:"selectors" json:"selectors"`
}

// DefaultMinLinkText filters navigation and boilerplate anchors.
const DefaultMinLinkText = 10

// Origin returns the base origin used to resolve relative links.
func (s Site) Origin() (*url.URL, error) {
	raw := s.BaseURL
	if raw == "" {
		raw = s.URL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid site url %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("site url %q must be absolute", raw)
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}, nil
}

// CompileLinkPattern compiles LinkPattern. An empty pattern matches nothing.
func (s Site) CompileLinkPattern() (*regexp.Regexp, error) {
	if s.LinkPattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(s.LinkPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid link pattern %q: %w", s.LinkPattern, err)
	}
	return re, nil
}
