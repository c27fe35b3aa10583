// Package processor synthesizes queued inbox text files into audio.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/clobrano/newsvoice/internal/chunker"
	"github.com/clobrano/newsvoice/internal/logger"
	"github.com/clobrano/newsvoice/internal/models"
	"github.com/clobrano/newsvoice/internal/notifier"
	"github.com/clobrano/newsvoice/internal/output"
	"github.com/clobrano/newsvoice/internal/queue"
	"github.com/clobrano/newsvoice/internal/tts"
)

// ErrOutputExists is returned when an audio file for the job already exists.
var ErrOutputExists = errors.New("output file already exists")

const (
	defaultMaxRetries  = 3
	defaultBaseBackoff = 5 * time.Second
	jobTimeout         = 10 * time.Minute
)

type Options struct {
	OutputDir string
	// DoneDir receives input files once their audio exists.
	DoneDir        string
	MaxChunkLength int
	MaxRetries     int
	BaseBackoff    time.Duration
	Voice          tts.Voice
	Playlist       bool
	PlaylistName   string
}

type Processor struct {
	opts     Options
	queue    *queue.Queue
	synth    tts.Synthesizer
	notifier *notifier.Notifier
	log      *slog.Logger

	done chan struct{}
	wg   sync.WaitGroup
	// wake re-signals the queue when the next delayed retry is due.
	wake *time.Timer
}

func New(opts Options, q *queue.Queue, synth tts.Synthesizer, ntfy *notifier.Notifier, log *slog.Logger) *Processor {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = defaultBaseBackoff
	}
	if opts.PlaylistName == "" {
		opts.PlaylistName = output.DefaultPlaylistName
	}
	return &Processor{
		opts:     opts,
		queue:    q,
		synth:    synth,
		notifier: ntfy,
		log:      logger.OrDefault(log),
		done:     make(chan struct{}),
	}
}

func (p *Processor) Start() {
	p.wg.Add(1)
	go p.run()
}

// Stop waits for the job in progress to finish.
func (p *Processor) Stop() {
	close(p.done)
	p.wg.Wait()
}

func (p *Processor) run() {
	defer p.wg.Done()
	defer func() {
		if p.wake != nil {
			p.wake.Stop()
		}
	}()
	for {
		select {
		case <-p.done:
			return
		case <-p.queue.Wait():
			p.processQueue()
		}
	}
}

func (p *Processor) processQueue() {
	for {
		select {
		case <-p.done:
			return
		default:
		}

		job := p.queue.Dequeue()
		if job == nil {
			p.scheduleWake()
			return
		}
		p.processJob(job)
	}
}

func (p *Processor) processJob(job *models.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	doc, err := ReadTextFile(job.FilePath)
	if err != nil {
		p.failJob(job, fmt.Errorf("failed to read input: %w", err))
		return
	}
	if doc.Title != "" {
		job.Title = doc.Title
	}
	if doc.Body == "" {
		p.failJob(job, errors.New("input file has no text"))
		return
	}

	p.log.Info("Processing inbox file", "file", job.Filename, "title", job.Title, "attempt", job.Retries+1)

	outputs, err := p.synthesize(ctx, job, doc.Body)
	job.Outputs = outputs
	if err != nil {
		if job.Retries < p.opts.MaxRetries {
			p.retryJob(job, err)
			return
		}
		p.failJob(job, err)
		return
	}

	if err := p.notifier.SendJobDone(ctx, job); err != nil {
		p.log.Warn("Notification failed", "job", job.ID, "err", err)
	}
	p.completeJob(job)
}

// synthesize writes one audio file per chunk. Parts already on disk from an
// earlier attempt are kept, so a retry only redoes what failed.
func (p *Processor) synthesize(ctx context.Context, job *models.Job, body string) ([]models.AudioOutput, error) {
	if err := output.EnsureDir(p.opts.OutputDir); err != nil {
		return nil, err
	}

	chunks := chunker.Split(body, p.opts.MaxChunkLength)
	base := output.SanitizeFilename(job.Filename)
	ext := p.opts.Voice.Ext()

	var outputs []models.AudioOutput
	for i, chunk := range chunks {
		name := output.PartName(base, i+1, len(chunks), ext)

		if info, err := os.Stat(filepath.Join(p.opts.OutputDir, name)); err == nil {
			p.log.Info("Audio already exists, skipping part", "file", name)
			outputs = append(outputs, models.AudioOutput{Source: job.Title, Path: filepath.Join(p.opts.OutputDir, name), Size: info.Size()})
			continue
		}

		audio, err := p.synth.Synthesize(ctx, chunk, p.opts.Voice)
		if err != nil {
			return outputs, fmt.Errorf("part %d/%d: %w", i+1, len(chunks), err)
		}

		path, size, err := output.CreateAudio(p.opts.OutputDir, name, audio)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				return outputs, fmt.Errorf("%w: %s", ErrOutputExists, name)
			}
			return outputs, err
		}
		p.log.Info("Generated audio", "file", name, "bytes", size)
		outputs = append(outputs, models.AudioOutput{Source: job.Title, Path: path, Size: size})
	}
	return outputs, nil
}

// retryJob puts the job back with a linearly growing delay.
func (p *Processor) retryJob(job *models.Job, err error) {
	job.Retries++
	job.Status = models.JobStatusPending
	job.Error = err.Error()
	job.UpdatedAt = time.Now()

	delay := time.Duration(job.Retries) * p.opts.BaseBackoff
	p.log.Warn("Inbox job failed, retrying", "file", job.Filename, "attempt", job.Retries, "max", p.opts.MaxRetries, "in", delay, "err", err)

	var failure *tts.Failure
	if errors.As(err, &failure) && !failure.Temporary() {
		p.log.Warn("Vendor rejected the request, retry is unlikely to help", "reason", failure.Reason)
	}

	job.NextAttempt = job.UpdatedAt.Add(delay)
	p.queue.Update(job)
}

// scheduleWake arms a single timer for the earliest delayed retry.
func (p *Processor) scheduleWake() {
	next, ok := p.queue.NextAttempt()
	if !ok {
		return
	}
	if p.wake != nil {
		p.wake.Stop()
	}
	p.wake = time.AfterFunc(time.Until(next), p.queue.Notify)
}

func (p *Processor) failJob(job *models.Job, err error) {
	job.Status = models.JobStatusFailed
	job.Error = err.Error()
	job.UpdatedAt = time.Now()

	p.log.Error("Inbox job failed permanently", "file", job.Filename, "err", err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if nerr := p.notifier.SendJobFailed(ctx, job); nerr != nil {
		p.log.Warn("Notification failed", "job", job.ID, "err", nerr)
	}

	p.queue.Update(job)
}

func (p *Processor) completeJob(job *models.Job) {
	job.Status = models.JobStatusCompleted
	job.UpdatedAt = time.Now()

	if err := p.archive(job.FilePath); err != nil {
		p.log.Warn("Could not move processed file", "file", job.FilePath, "err", err)
	}
	p.queue.Remove(job.ID)

	p.log.Info("Inbox job completed", "file", job.Filename, "outputs", len(job.Outputs))

	if p.opts.Playlist {
		if _, err := output.WritePlaylist(p.opts.OutputDir, p.opts.PlaylistName, nil); err != nil {
			p.log.Error("Writing playlist failed", "err", err)
		}
	}
}

// archive moves a processed input into the done directory. A name clash
// gets a timestamp suffix; the rename is retried briefly for filesystems
// where a writer may still hold the file.
func (p *Processor) archive(path string) error {
	if p.opts.DoneDir == "" {
		return nil
	}
	if err := os.MkdirAll(p.opts.DoneDir, 0755); err != nil {
		return err
	}

	target := filepath.Join(p.opts.DoneDir, filepath.Base(path))
	if _, err := os.Stat(target); err == nil {
		ext := filepath.Ext(target)
		target = fmt.Sprintf("%s_%s%s", target[:len(target)-len(ext)], time.Now().Format("20060102_150405"), ext)
	}

	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(100*time.Millisecond), 3)
	return backoff.Retry(func() error {
		err := os.Rename(path, target)
		if errors.Is(err, os.ErrNotExist) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}
