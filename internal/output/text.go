package output

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/clobrano/newsvoice/internal/models"
)

// ExportText writes an article as plain text: the title, a blank line, then
// the content. The file lands in dir under TextName.
func ExportText(dir string, date time.Time, index int, article models.Article) (string, error) {
	path := filepath.Join(dir, TextName(date, index, article.Title))
	body := fmt.Sprintf("%s\n\n%s\n", article.Title, article.Content)

	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		return "", fmt.Errorf("failed to export article text: %w", err)
	}
	return path, nil
}
