// Package runner drives one pass of the pipeline: list articles, chunk them,
// synthesize every chunk and record the outputs.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/clobrano/newsvoice/internal/chunker"
	"github.com/clobrano/newsvoice/internal/logger"
	"github.com/clobrano/newsvoice/internal/models"
	"github.com/clobrano/newsvoice/internal/output"
	"github.com/clobrano/newsvoice/internal/tts"
)

// ErrTTSUnavailable is returned when the run had no synthesizer. Listing and
// text export still happened.
var ErrTTSUnavailable = errors.New("text-to-speech unavailable")

// DemoTitle is the metadata title of the demonstration audio.
const DemoTitle = "Demo"

// DemoText is synthesized when a run finds no articles, so every run that
// reaches the vendor leaves one audio file behind.
const DemoText = "Merhaba! Bu, Türkçe metin okuma teknolojisinin bir demosu. " +
	"Yapay zeka teknolojisi sayesinde, yazılı metinleri doğal sesli konuşmaya dönüştürebiliyoruz. " +
	"Bu teknoloji, haber makalelerini sesli olarak dinlemek için kullanılabilir. " +
	"Günlük haberler artık sesli olarak dinlenebilir."

// Lister yields the articles of one run.
type Lister interface {
	List(ctx context.Context, limit int) ([]models.Article, error)
}

type Options struct {
	OutputDir      string
	MaxArticles    int
	MaxChunkLength int
	Voice          tts.Voice
	Playlist       bool
	PlaylistName   string
	// ExportText writes every article as a text file into TextDir.
	ExportText bool
	TextDir    string
}

// Report is the outcome of a run.
type Report struct {
	StartedAt    time.Time
	Finished     time.Time
	Articles     int
	Succeeded    int
	Failed       int
	Demo         bool
	Outputs      []models.AudioOutput
	TextFiles    []string
	MetadataPath string
	PlaylistPath string
}

// Summary is the one-line outcome used in logs and notifications.
func (r *Report) Summary() string {
	if r.Demo {
		return fmt.Sprintf("no articles found, demo audio: %d succeeded, %d failed", r.Succeeded, r.Failed)
	}
	return fmt.Sprintf("%d articles: %d audio files succeeded, %d failed", r.Articles, r.Succeeded, r.Failed)
}

type Runner struct {
	lister Lister
	synth  tts.Synthesizer
	opts   Options
	now    func() time.Time
	log    *slog.Logger
}

type Option func(*Runner)

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.log = logger.OrDefault(l) }
}

func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// New creates a runner. synth may be nil when no vendor could be set up; Run
// then only lists and exports text.
func New(lister Lister, synth tts.Synthesizer, opts Options, options ...Option) *Runner {
	if opts.PlaylistName == "" {
		opts.PlaylistName = output.DefaultPlaylistName
	}
	if opts.TextDir == "" {
		opts.TextDir = opts.OutputDir
	}
	r := &Runner{
		lister: lister,
		synth:  synth,
		opts:   opts,
		now:    time.Now,
		log:    slog.Default(),
	}
	for _, o := range options {
		o(r)
	}
	return r
}

// Run executes one pass. Only an unusable output directory, a cancelled
// context or a missing synthesizer make it return an error; everything else
// is logged and counted in the report.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{StartedAt: r.now()}

	if err := output.EnsureDir(r.opts.OutputDir); err != nil {
		return nil, err
	}

	articles, err := r.lister.List(ctx, r.opts.MaxArticles)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.log.Error("Listing failed, continuing with no articles", "err", err)
		articles = nil
	}
	report.Articles = len(articles)
	r.log.Info("Listing done", "articles", len(articles))

	if r.opts.ExportText {
		r.exportText(report, articles)
	}

	if r.synth == nil {
		report.Finished = r.now()
		r.log.Warn("No TTS provider available, skipping synthesis", "articles", len(articles))
		return report, ErrTTSUnavailable
	}

	var entries []models.MetadataEntry
	if len(articles) == 0 {
		r.log.Warn("No articles to process, synthesizing demo text")
		report.Demo = true
		entries = r.demo(ctx, report)
	} else {
		for i, article := range articles {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			r.log.Info("Processing article", "index", i+1, "of", len(articles), "title", article.Title)
			entries = append(entries, r.article(ctx, report, i+1, article)...)
		}
	}
	if ctx.Err() != nil {
		return report, ctx.Err()
	}

	r.finish(report, entries)
	return report, nil
}

func (r *Runner) article(ctx context.Context, report *Report, index int, article models.Article) []models.MetadataEntry {
	chunks := chunker.Split(article.Content, r.opts.MaxChunkLength)
	if len(chunks) > 1 {
		r.log.Info("Article split into parts", "title", article.Title, "chars", len([]rune(article.Content)), "parts", len(chunks))
	}

	var entries []models.MetadataEntry
	for i, chunk := range chunks {
		part := i + 1
		name := output.AudioName(report.StartedAt, index, article.Title, part, len(chunks), r.opts.Voice.Ext())

		out, ok := r.synthesize(ctx, report, article.URL, name, chunk)
		if !ok {
			continue
		}

		entry := models.MetadataEntry{
			Title:       article.Title,
			Author:      article.Author,
			AudioFile:   out.Path,
			OriginalURL: article.URL,
			Date:        article.Date,
			FileSize:    out.Size,
		}
		if len(chunks) > 1 {
			entry.Part = part
			entry.Parts = len(chunks)
		}
		entries = append(entries, entry)
	}
	return entries
}

func (r *Runner) demo(ctx context.Context, report *Report) []models.MetadataEntry {
	name := output.DemoName(report.StartedAt, r.opts.Voice.Ext())

	out, ok := r.synthesize(ctx, report, DemoTitle, name, DemoText)
	if !ok {
		return nil
	}
	return []models.MetadataEntry{{
		Title:     DemoTitle,
		Author:    models.UnknownAuthor,
		AudioFile: out.Path,
		Date:      report.StartedAt.Format(models.DateLayout),
		FileSize:  out.Size,
	}}
}

// synthesize makes one vendor call and writes its audio. Failures are logged
// and counted.
func (r *Runner) synthesize(ctx context.Context, report *Report, source, name, text string) (models.AudioOutput, bool) {
	r.log.Debug("Synthesizing", "file", name, "chars", len([]rune(text)), "vendor", r.synth.Name())

	audio, err := r.synth.Synthesize(ctx, text, r.opts.Voice)
	if err != nil {
		report.Failed++
		r.log.Error("Synthesis failed", "file", name, "vendor", r.synth.Name(), "err", err)
		return models.AudioOutput{}, false
	}

	path, size, err := output.WriteAudio(r.opts.OutputDir, name, audio)
	if err != nil {
		report.Failed++
		r.log.Error("Writing audio failed", "file", name, "err", err)
		return models.AudioOutput{}, false
	}

	out := models.AudioOutput{Source: source, Path: path, Size: size}
	report.Outputs = append(report.Outputs, out)
	report.Succeeded++
	r.log.Info("Generated audio", "file", name, "bytes", size)
	return out, true
}

func (r *Runner) exportText(report *Report, articles []models.Article) {
	if err := output.EnsureDir(r.opts.TextDir); err != nil {
		r.log.Error("Text export skipped", "err", err)
		return
	}
	for i, a := range articles {
		path, err := output.ExportText(r.opts.TextDir, report.StartedAt, i+1, a)
		if err != nil {
			r.log.Error("Text export failed", "title", a.Title, "err", err)
			continue
		}
		report.TextFiles = append(report.TextFiles, path)
	}
	r.log.Info("Exported article text", "files", len(report.TextFiles), "dir", r.opts.TextDir)
}

// finish writes the metadata document and playlist. Their failures never
// undo written audio.
func (r *Runner) finish(report *Report, entries []models.MetadataEntry) {
	metaPath := filepath.Join(r.opts.OutputDir, output.MetadataName(report.StartedAt))
	if err := output.WriteMetadata(metaPath, entries); err != nil {
		r.log.Error("Saving metadata failed", "file", metaPath, "err", err)
	} else {
		report.MetadataPath = metaPath
		r.log.Info("Metadata saved", "file", metaPath, "entries", len(entries))
	}

	if r.opts.Playlist {
		titles := make(map[string]string, len(entries))
		for _, e := range entries {
			title := e.Title
			if e.Parts > 1 {
				title = fmt.Sprintf("%s (%d/%d)", e.Title, e.Part, e.Parts)
			}
			titles[filepath.Base(e.AudioFile)] = title
		}
		n, err := output.WritePlaylist(r.opts.OutputDir, r.opts.PlaylistName, titles)
		if err != nil {
			r.log.Error("Writing playlist failed", "err", err)
		} else {
			report.PlaylistPath = filepath.Join(r.opts.OutputDir, r.opts.PlaylistName)
			r.log.Info("Playlist written", "file", report.PlaylistPath, "tracks", n)
		}
	}

	report.Finished = r.now()
	r.log.Info("Run complete", "succeeded", report.Succeeded, "failed", report.Failed,
		"duration", report.Finished.Sub(report.StartedAt).Round(time.Millisecond))
}
