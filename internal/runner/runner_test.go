package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clobrano/newsvoice/internal/logger"
	"github.com/clobrano/newsvoice/internal/models"
	"github.com/clobrano/newsvoice/internal/output"
	"github.com/clobrano/newsvoice/internal/tts"
)

var runDay = time.Date(2024, 3, 9, 6, 0, 0, 0, time.UTC)

type staticLister struct {
	articles []models.Article
	err      error
	limit    int
}

func (s *staticLister) List(_ context.Context, limit int) ([]models.Article, error) {
	s.limit = limit
	return s.articles, s.err
}

type stubSynth struct {
	texts  []string
	failOn map[string]bool
}

func (s *stubSynth) Synthesize(_ context.Context, text string, _ tts.Voice) ([]byte, error) {
	s.texts = append(s.texts, text)
	if s.failOn[text] {
		return nil, &tts.Failure{Vendor: "stub", Reason: tts.ReasonQuota, Err: errors.New("quota exceeded")}
	}
	return []byte("AUDIO"), nil
}

func (s *stubSynth) Name() string { return "stub" }

func newRunner(lister Lister, synth tts.Synthesizer, opts Options) *Runner {
	return New(lister, synth, opts, WithLogger(logger.Discard()), WithClock(func() time.Time { return runDay }))
}

func TestRun_SingleArticle(t *testing.T) {
	dir := t.TempDir()
	lister := &staticLister{articles: []models.Article{
		models.NewArticle("Test Column", "J. Doe", "https://news.example.com/columns/test", "Hello.\nWorld.", runDay),
	}}
	synth := &stubSynth{}

	report, err := newRunner(lister, synth, Options{OutputDir: dir, MaxArticles: 5, MaxChunkLength: 1000}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, lister.limit)
	assert.Equal(t, []string{"Hello.\nWorld."}, synth.texts)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	assert.False(t, report.Demo)

	audioPath := filepath.Join(dir, "20240309_1_Test_Column.mp3")
	data, err := os.ReadFile(audioPath)
	require.NoError(t, err)
	assert.Equal(t, "AUDIO", string(data))

	entries, err := output.ReadMetadata(filepath.Join(dir, "metadata_20240309.json"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.MetadataEntry{
		Title:       "Test Column",
		Author:      "J. Doe",
		AudioFile:   audioPath,
		OriginalURL: "https://news.example.com/columns/test",
		Date:        "2024-03-09",
		FileSize:    5,
	}, entries[0])
}

func TestRun_ChunkedArticle(t *testing.T) {
	dir := t.TempDir()
	lister := &staticLister{articles: []models.Article{
		models.NewArticle("Long", "", "https://example.com/long", "First sentence here. Second sentence here. Third one.", runDay),
	}}
	synth := &stubSynth{}

	report, err := newRunner(lister, synth, Options{OutputDir: dir, MaxChunkLength: 25, Playlist: true}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"First sentence here.", "Second sentence here.", "Third one."}, synth.texts)
	assert.Equal(t, 3, report.Succeeded)

	for _, name := range []string{"20240309_1_Long_part01.mp3", "20240309_1_Long_part02.mp3", "20240309_1_Long_part03.mp3"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	entries, err := output.ReadMetadata(report.MetadataPath)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 2, entries[1].Part)
	assert.Equal(t, 3, entries[1].Parts)
	assert.Equal(t, "Unknown", entries[1].Author)

	playlist, err := os.ReadFile(filepath.Join(dir, output.DefaultPlaylistName))
	require.NoError(t, err)
	assert.Contains(t, string(playlist), "#EXTINF:-1,Long (2/3)\n20240309_1_Long_part02.mp3\n")
}

func TestRun_FailuresAreCountedAndSkipped(t *testing.T) {
	dir := t.TempDir()
	lister := &staticLister{articles: []models.Article{
		models.NewArticle("Bad", "A", "https://example.com/bad", "Refused.", runDay),
		models.NewArticle("Good", "B", "https://example.com/good", "Accepted.", runDay),
	}}
	synth := &stubSynth{failOn: map[string]bool{"Refused.": true}}

	report, err := newRunner(lister, synth, Options{OutputDir: dir, MaxChunkLength: 1000}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.NoFileExists(t, filepath.Join(dir, "20240309_1_Bad.mp3"))
	assert.FileExists(t, filepath.Join(dir, "20240309_2_Good.mp3"))

	entries, err := output.ReadMetadata(report.MetadataPath)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Good", entries[0].Title)
}

func TestRun_NoArticlesSynthesizesDemoOnce(t *testing.T) {
	dir := t.TempDir()
	synth := &stubSynth{}

	report, err := newRunner(&staticLister{}, synth, Options{OutputDir: dir, MaxChunkLength: 1000}).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Demo)
	assert.Equal(t, []string{DemoText}, synth.texts)
	assert.FileExists(t, filepath.Join(dir, "demo_20240309_060000.mp3"))

	entries, err := output.ReadMetadata(report.MetadataPath)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, DemoTitle, entries[0].Title)
	assert.Contains(t, report.Summary(), "demo")
}

func TestRun_ListingFailureFallsBackToDemo(t *testing.T) {
	synth := &stubSynth{}
	lister := &staticLister{err: errors.New("listing unreachable")}

	report, err := newRunner(lister, synth, Options{OutputDir: t.TempDir()}).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Demo)
	assert.Len(t, synth.texts, 1)
}

func TestRun_WithoutSynthesizer(t *testing.T) {
	dir := t.TempDir()
	textDir := filepath.Join(dir, "inbox")
	lister := &staticLister{articles: []models.Article{
		models.NewArticle("Test Column", "J. Doe", "https://example.com/a", "Hello.", runDay),
	}}

	report, err := newRunner(lister, nil, Options{OutputDir: dir, ExportText: true, TextDir: textDir}).Run(context.Background())
	assert.ErrorIs(t, err, ErrTTSUnavailable)
	require.NotNil(t, report)
	assert.Equal(t, 1, report.Articles)
	require.Len(t, report.TextFiles, 1)

	raw, err := os.ReadFile(report.TextFiles[0])
	require.NoError(t, err)
	assert.Equal(t, "Test Column\n\nHello.\n", string(raw))
	assert.NoFileExists(t, filepath.Join(dir, "metadata_20240309.json"))
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	lister := &staticLister{articles: []models.Article{
		models.NewArticle("A", "", "https://example.com/a", "Text.", runDay),
	}}
	synth := &stubSynth{}

	_, err := newRunner(lister, synth, Options{OutputDir: t.TempDir()}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, synth.texts)
}

func TestRun_VoiceFormatSetsExtension(t *testing.T) {
	dir := t.TempDir()
	lister := &staticLister{articles: []models.Article{
		models.NewArticle("Wave", "", "https://example.com/w", "Text.", runDay),
	}}

	_, err := newRunner(lister, &stubSynth{}, Options{OutputDir: dir, Voice: tts.Voice{Format: "wav"}}).Run(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "20240309_1_Wave.wav"))
}
