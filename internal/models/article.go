package models

import "time"

// UnknownAuthor is used when a listing does not name the author.
const UnknownAuthor = "Unknown"

// DateLayout is the ISO date format stamped on articles and metadata.
const DateLayout = "2006-01-02"

// Article is one scraped article, created once per accepted link.
type Article struct {
	Title   string `json:"title"`
	Author  string `json:"author"`
	URL     string `json:"url"`
	Content string `json:"content"`
	Date    string `json:"date"`
}

// NewArticle builds an article stamped with the date of now, defaulting the
// author to UnknownAuthor.
func NewArticle(title, author, url, content string, now time.Time) Article {
	if author == "" {
		author = UnknownAuthor
	}
	return Article{
		Title:   title,
		Author:  author,
		URL:     url,
		Content: content,
		Date:    now.Format(DateLayout),
	}
}

// AudioOutput describes one audio file written by a synthesis call.
type AudioOutput struct {
	Source string `json:"source"`
	Path   string `json:"path"`
	Size   int64  `json:"size"`
}

// MetadataEntry is one element of the per-run metadata document.
type MetadataEntry struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	AudioFile   string `json:"audio_file"`
	OriginalURL string `json:"original_url"`
	Date        string `json:"date"`
	FileSize    int64  `json:"file_size"`
	Part        int    `json:"part,omitempty"`
	Parts       int    `json:"parts,omitempty"`
}
