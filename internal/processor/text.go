package processor

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// TextFile is an inbox article.
type TextFile struct {
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
	URL    string `yaml:"url"`
	Body   string `yaml:"-"`
}

// ReadTextFile parses an inbox file. Three layouts are accepted: YAML front
// matter between "---" lines followed by the body; a title line, a blank
// line and the body (what the run's text export writes); or just the body.
func ReadTextFile(path string) (*TextFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseText(string(data))
}

func parseText(raw string) (*TextFile, error) {
	content := strings.TrimSpace(strings.ReplaceAll(raw, "\r\n", "\n"))

	if strings.HasPrefix(content, "---\n") {
		parts := strings.SplitN(content, "\n---", 2)
		if len(parts) == 2 {
			var tf TextFile
			if err := yaml.Unmarshal([]byte(strings.TrimPrefix(parts[0], "---\n")), &tf); err != nil {
				return nil, fmt.Errorf("invalid front matter: %w", err)
			}
			tf.Title = strings.TrimSpace(tf.Title)
			tf.Body = strings.TrimSpace(parts[1])
			return &tf, nil
		}
	}

	if title, body, ok := strings.Cut(content, "\n\n"); ok && !strings.Contains(title, "\n") {
		return &TextFile{Title: strings.TrimSpace(title), Body: strings.TrimSpace(body)}, nil
	}

	return &TextFile{Body: content}, nil
}
