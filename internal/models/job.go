package models

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job is an inbox text file waiting to be synthesized.
type Job struct {
	ID        string        `json:"id"`
	Filename  string        `json:"filename"`
	FilePath  string        `json:"file_path"`
	Title     string        `json:"title"`
	Status    JobStatus     `json:"status"`
	Error     string        `json:"error,omitempty"`
	Outputs   []AudioOutput `json:"outputs,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Retries   int           `json:"retries"`
	// NextAttempt holds a retried job back until the backoff has passed.
	NextAttempt time.Time `json:"next_attempt,omitzero"`
}

func NewJob(filePath, title string) *Job {
	now := time.Now()
	// Extract filename without extension
	base := filepath.Base(filePath)
	filename := strings.TrimSuffix(base, filepath.Ext(base))

	if title == "" {
		title = filename
	}

	return &Job{
		ID:        uuid.NewString(),
		Filename:  filename,
		FilePath:  filePath,
		Title:     title,
		Status:    JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
