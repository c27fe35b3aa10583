package output

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clobrano/newsvoice/internal/models"
)

func TestWriteAudio(t *testing.T) {
	dir := t.TempDir()

	path, size, err := WriteAudio(dir, "a.mp3", []byte("AUDIO"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.mp3"), path)
	assert.Equal(t, int64(5), size)

	_, size, err = WriteAudio(dir, "a.mp3", []byte("NEW"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), size)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "NEW", string(data))
}

func TestCreateAudio_RefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()

	_, _, err := CreateAudio(dir, "a.mp3", []byte("FIRST"))
	require.NoError(t, err)

	_, _, err = CreateAudio(dir, "a.mp3", []byte("SECOND"))
	assert.True(t, errors.Is(err, os.ErrExist))

	data, err := os.ReadFile(filepath.Join(dir, "a.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "FIRST", string(data))
}

func TestMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata_20240309.json")

	entries := []models.MetadataEntry{
		{Title: "Gündem", Author: "J. Doe", AudioFile: "out/a.mp3", OriginalURL: "https://example.com/a?x=1&y=2", Date: "2024-03-09", FileSize: 5},
		{Title: "Long", Author: "Unknown", AudioFile: "out/b_part01.mp3", Date: "2024-03-09", FileSize: 7, Part: 1, Parts: 2},
	}
	require.NoError(t, WriteMetadata(path, entries))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, `"title": "Gündem"`)
	assert.Contains(t, text, `"original_url": "https://example.com/a?x=1&y=2"`)
	assert.Contains(t, text, "\n  {\n    \"title\"")
	assert.Contains(t, text, `"parts": 2`)

	got, err := ReadMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, entries, got)

	// A second write replaces the document.
	require.NoError(t, WriteMetadata(path, entries[:1]))
	got, err = ReadMetadata(path)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMetadata_OmitsPartsForSingleFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.json")
	require.NoError(t, WriteMetadata(path, []models.MetadataEntry{{Title: "One"}}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"part"`)
}

func TestMetadata_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.json")
	require.NoError(t, WriteMetadata(path, nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(raw))
}

func TestWritePlaylist(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.mp3", "a.wav", "notes.txt", "c.MP3"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.mp3"), 0755))

	n, err := WritePlaylist(dir, DefaultPlaylistName, map[string]string{"b.mp3": "Column\nB"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	raw, err := os.ReadFile(filepath.Join(dir, DefaultPlaylistName))
	require.NoError(t, err)
	expected := "#EXTM3U\n" +
		"#EXTINF:-1,a\na.wav\n" +
		"#EXTINF:-1,Column B\nb.mp3\n" +
		"#EXTINF:-1,c\nc.MP3\n"
	assert.Equal(t, expected, string(raw))
}

func TestExportText(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	article := models.Article{Title: "Test Column", Content: "Hello.\nWorld."}

	path, err := ExportText(dir, day, 1, article)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20240309_1_Test_Column.txt"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Test Column\n\nHello.\nWorld.\n", string(raw))
}
