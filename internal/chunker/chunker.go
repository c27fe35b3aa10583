// Package chunker splits article bodies into sentence-aligned segments small
// enough for a single speech synthesis call.
package chunker

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxLength suits the request limits of every supported vendor.
const DefaultMaxLength = 4500

const separator = " "

var boundary = regexp.MustCompile(`[.!?]+\s+`)

// Split returns the chunks of text in order. Text that already fits in
// maxLen is returned as a single chunk untouched apart from trimming.
// Otherwise sentences are packed greedily, joined by a single space; a
// sentence longer than maxLen becomes a chunk of its own. Lengths are
// counted in runes. maxLen <= 0 disables splitting. Blank text yields nil.
func Split(text string, maxLen int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxLen <= 0 || utf8.RuneCountInString(text) <= maxLen {
		return []string{text}
	}

	var (
		chunks     []string
		current    strings.Builder
		currentLen int
	)
	sepLen := utf8.RuneCountInString(separator)

	for _, sentence := range Sentences(text) {
		n := utf8.RuneCountInString(sentence)
		if currentLen > 0 && currentLen+sepLen+n > maxLen {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
		if currentLen > 0 {
			current.WriteString(separator)
			currentLen += sepLen
		}
		current.WriteString(sentence)
		currentLen += n
	}
	if currentLen > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}

// Sentences splits text at '.', '!' or '?' runs followed by whitespace. The
// punctuation stays with its sentence; sentences are trimmed and blanks
// dropped.
func Sentences(text string) []string {
	var out []string
	start := 0
	for _, loc := range boundary.FindAllStringIndex(text, -1) {
		punct := strings.TrimRightFunc(text[loc[0]:loc[1]], unicode.IsSpace)
		out = appendSentence(out, text[start:loc[0]+len(punct)])
		start = loc[1]
	}
	return appendSentence(out, text[start:])
}

func appendSentence(out []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		out = append(out, s)
	}
	return out
}
