// Package queue holds the inbox jobs waiting for synthesis, persisted as
// JSON so a restart picks up where it stopped.
package queue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/clobrano/newsvoice/internal/models"
)

type Queue struct {
	mu           sync.Mutex
	jobs         []*models.Job
	persistPath  string
	notification chan struct{}
}

// New creates a queue persisted at persistPath; an empty path keeps it in
// memory. Jobs left in processing by a previous run are made pending again.
func New(persistPath string) (*Queue, error) {
	q := &Queue{
		jobs:         make([]*models.Job, 0),
		persistPath:  persistPath,
		notification: make(chan struct{}, 1),
	}

	if err := q.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load queue: %w", err)
	}

	for _, job := range q.jobs {
		if job.Status == models.JobStatusProcessing {
			job.Status = models.JobStatusPending
		}
	}
	if q.PendingCount() > 0 {
		q.Notify()
	}

	return q, nil
}

// Enqueue adds job unless a pending or running job already covers the same
// file. It reports whether the job was added.
func (q *Queue) Enqueue(job *models.Job) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, j := range q.jobs {
		if j.FilePath == job.FilePath && (j.Status == models.JobStatusPending || j.Status == models.JobStatusProcessing) {
			return false, nil
		}
	}

	q.jobs = append(q.jobs, job)
	q.signal()

	return true, q.persist()
}

// Dequeue marks the oldest due pending job as processing and returns it, or
// nil when nothing is due. Jobs waiting on a retry backoff are skipped.
func (q *Queue) Dequeue() *models.Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	for _, job := range q.jobs {
		if job.Status == models.JobStatusPending && !job.NextAttempt.After(now) {
			job.Status = models.JobStatusProcessing
			job.UpdatedAt = now
			q.persist()
			return job
		}
	}
	return nil
}

// NextAttempt returns the earliest time a pending job waiting on a backoff
// becomes due. ok is false when no job is waiting.
func (q *Queue) NextAttempt() (next time.Time, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	for _, job := range q.jobs {
		if job.Status != models.JobStatusPending || !job.NextAttempt.After(now) {
			continue
		}
		if !ok || job.NextAttempt.Before(next) {
			next, ok = job.NextAttempt, true
		}
	}
	return next, ok
}

func (q *Queue) Update(job *models.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, j := range q.jobs {
		if j.ID == job.ID {
			q.jobs[i] = job
			return q.persist()
		}
	}
	return nil
}

func (q *Queue) Remove(jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, j := range q.jobs {
		if j.ID == jobID {
			q.jobs = append(q.jobs[:i], q.jobs[i+1:]...)
			return q.persist()
		}
	}
	return nil
}

// Wait signals when new work may be available.
func (q *Queue) Wait() <-chan struct{} {
	return q.notification
}

func (q *Queue) Notify() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.signal()
}

func (q *Queue) signal() {
	select {
	case q.notification <- struct{}{}:
	default:
	}
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

func (q *Queue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	count := 0
	for _, job := range q.jobs {
		if job.Status == models.JobStatusPending {
			count++
		}
	}
	return count
}

// Jobs returns a copy of every job in queue order.
func (q *Queue) Jobs() []models.Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]models.Job, 0, len(q.jobs))
	for _, j := range q.jobs {
		out = append(out, *j)
	}
	return out
}

func (q *Queue) persist() error {
	if q.persistPath == "" {
		return nil
	}

	data, err := json.MarshalIndent(q.jobs, "", "  ")
	if err != nil {
		return err
	}

	tmp := q.persistPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, q.persistPath)
}

func (q *Queue) load() error {
	if q.persistPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(q.persistPath), 0755); err != nil {
		return err
	}

	data, err := os.ReadFile(q.persistPath)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, &q.jobs)
}
