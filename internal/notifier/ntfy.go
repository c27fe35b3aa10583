// Package notifier pushes run and inbox outcomes to an ntfy topic.
package notifier

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/clobrano/newsvoice/internal/models"
)

const DefaultServer = "https://ntfy.sh"

type Notifier struct {
	server string
	topic  string
	client *http.Client
}

// New returns nil when topic is empty. All methods are no-ops on a nil
// Notifier.
func New(server, topic string) *Notifier {
	if topic == "" {
		return nil
	}
	if server == "" {
		server = DefaultServer
	}
	return &Notifier{
		server: strings.TrimRight(server, "/"),
		topic:  topic,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendRun reports the outcome of a scraping run.
func (n *Notifier) SendRun(ctx context.Context, summary string, failed int) error {
	if n == nil {
		return nil
	}

	if failed > 0 {
		return n.send(ctx, "newsvoice: run finished with failures", summary, "high", "warning")
	}
	return n.send(ctx, "newsvoice: new audio ready", summary, "default", "headphones")
}

func (n *Notifier) SendJobDone(ctx context.Context, job *models.Job) error {
	if n == nil {
		return nil
	}

	title := fmt.Sprintf("newsvoice: %s ready", job.Title)
	message := fmt.Sprintf("%d audio file(s) generated from %s.\n\nJob ID: %s", len(job.Outputs), job.Filename, job.ID)

	return n.send(ctx, title, message, "default", "white_check_mark")
}

func (n *Notifier) SendJobFailed(ctx context.Context, job *models.Job) error {
	if n == nil {
		return nil
	}

	title := fmt.Sprintf("newsvoice: %s failed", job.Title)
	message := fmt.Sprintf("Failed to synthesize %s\n\nError: %s\n\nJob ID: %s", job.Filename, job.Error, job.ID)

	return n.send(ctx, title, message, "high", "x")
}

func (n *Notifier) send(ctx context.Context, title, message, priority, tags string) error {
	url := fmt.Sprintf("%s/%s", n.server, n.topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(message))
	if err != nil {
		return err
	}

	req.Header.Set("Title", title)
	req.Header.Set("Priority", priority)
	req.Header.Set("Tags", tags)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("ntfy returned status %d", resp.StatusCode)
	}

	return nil
}
