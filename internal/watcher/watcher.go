// Package watcher turns text files dropped into the inbox directory into
// queued synthesis jobs.
package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/clobrano/newsvoice/internal/logger"
	"github.com/clobrano/newsvoice/internal/models"
	"github.com/clobrano/newsvoice/internal/queue"
)

// DefaultDebounce lets a writer finish before the file is queued.
const DefaultDebounce = 500 * time.Millisecond

type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	watchDir     string
	queue        *queue.Queue
	debounceTime time.Duration
	pending      map[string]time.Time
	mu           sync.Mutex
	done         chan struct{}
	log          *slog.Logger
}

func New(watchDir string, q *queue.Queue, debounce time.Duration, log *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		fsWatcher:    fsw,
		watchDir:     watchDir,
		queue:        q,
		debounceTime: debounce,
		pending:      make(map[string]time.Time),
		done:         make(chan struct{}),
		log:          logger.OrDefault(log),
	}, nil
}

// Start queues the text files already in the directory, then watches for
// new ones.
func (w *Watcher) Start() error {
	if err := w.fsWatcher.Add(w.watchDir); err != nil {
		return err
	}

	if err := w.enqueueExisting(); err != nil {
		w.log.Warn("Could not scan existing inbox files", "dir", w.watchDir, "err", err)
	}

	go w.run()
	go w.debounceLoop()

	return nil
}

func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

func (w *Watcher) enqueueExisting() error {
	entries, err := os.ReadDir(w.watchDir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !IsInboxFile(entry.Name()) {
			continue
		}
		w.enqueue(filepath.Join(w.watchDir, entry.Name()))
	}
	return nil
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if (event.Has(fsnotify.Create) || event.Has(fsnotify.Write)) && IsInboxFile(filepath.Base(event.Name)) {
				w.schedule(event.Name)
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.Error("Watcher error", "err", err)
		}
	}
}

// schedule pushes the file's deadline back on every event.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = time.Now().Add(w.debounceTime)
}

func (w *Watcher) debounceLoop() {
	ticker := time.NewTicker(w.debounceTime / 5)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.mu.Lock()
			now := time.Now()
			var ready []string
			for path, deadline := range w.pending {
				if now.After(deadline) {
					ready = append(ready, path)
					delete(w.pending, path)
				}
			}
			w.mu.Unlock()

			for _, path := range ready {
				w.enqueue(path)
			}
		}
	}
}

func (w *Watcher) enqueue(path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	job := models.NewJob(path, "")
	added, err := w.queue.Enqueue(job)
	if err != nil {
		w.log.Error("Could not queue inbox file", "file", path, "err", err)
		return
	}
	if added {
		w.log.Info("Queued inbox file", "file", filepath.Base(path), "job", job.ID)
	}
}

// IsInboxFile reports whether name looks like an article text file. Hidden
// and temporary files are ignored.
func IsInboxFile(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), ".txt")
}
