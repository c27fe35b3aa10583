// Package output owns everything the pipeline writes to disk: audio files,
// the run metadata document, the playlist and exported article text.
package output

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Characters that break on at least one of Windows, Linux, macOS or a sync
// tool sitting on top of them.
var invalidCharsRegexp = regexp.MustCompile(`[<>:"/\\|?*]`)

var controlCharsRegexp = regexp.MustCompile(`[\x00-\x1f]`)

var multipleUnderscoresRegexp = regexp.MustCompile(`_+`)

// maxNameLength leaves room for directory and extension.
const maxNameLength = 200

// maxSlugLength bounds the title part of generated audio names.
const maxSlugLength = 30

// SanitizeFilename makes name safe to use as a file name on every platform.
// It never returns an empty string.
func SanitizeFilename(name string) string {
	if name == "" {
		return "unnamed"
	}

	result := controlCharsRegexp.ReplaceAllString(name, "")
	result = invalidCharsRegexp.ReplaceAllString(result, "_")

	var b strings.Builder
	for _, r := range result {
		if unicode.IsPrint(r) && r != unicode.ReplacementChar {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	result = multipleUnderscoresRegexp.ReplaceAllString(b.String(), "_")
	result = strings.Trim(result, " ._")

	if result == "" {
		return "unnamed"
	}

	if len(result) > maxNameLength {
		result = truncateBytes(result, maxNameLength)
		result = strings.TrimRight(result, "_")
	}

	return result
}

// Slug turns an article title into the short title part of a file name:
// letters, digits, '-' and '_' are kept, spaces become '_', everything else
// is dropped, and the result is cut to 30 runes.
func Slug(title string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}

	runes := []rune(b.String())
	if len(runes) > maxSlugLength {
		runes = runes[:maxSlugLength]
	}
	return SanitizeFilename(string(runes))
}

// AudioName returns "{YYYYMMDD}_{index}_{slug}.{ext}" for a single-part
// article, or the same with "_partNN" before the extension when parts > 1.
func AudioName(date time.Time, index int, title string, part, parts int, ext string) string {
	base := fmt.Sprintf("%s_%d_%s", date.Format("20060102"), index, Slug(title))
	return PartName(base, part, parts, ext)
}

// PartName appends the part suffix to base when the text was split.
func PartName(base string, part, parts int, ext string) string {
	if parts > 1 {
		return fmt.Sprintf("%s_part%02d.%s", base, part, ext)
	}
	return fmt.Sprintf("%s.%s", base, ext)
}

// DemoName is the file name of the demonstration audio.
func DemoName(now time.Time, ext string) string {
	return fmt.Sprintf("demo_%s.%s", now.Format("20060102_150405"), ext)
}

// MetadataName is the run metadata file name for the given day.
func MetadataName(date time.Time) string {
	return fmt.Sprintf("metadata_%s.json", date.Format("20060102"))
}

// TextName is the name of an exported article text file.
func TextName(date time.Time, index int, title string) string {
	return fmt.Sprintf("%s_%d_%s.txt", date.Format("20060102"), index, Slug(title))
}

// truncateBytes cuts s to at most n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
