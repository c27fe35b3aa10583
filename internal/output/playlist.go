package output

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultPlaylistName is the playlist file written next to the audio.
const DefaultPlaylistName = "news_playlist.m3u"

var audioExts = map[string]bool{".mp3": true, ".wav": true, ".ogg": true}

// WritePlaylist rewrites dir/name as an extended M3U listing every audio file
// in dir sorted by file name. A file's title comes from titles when present
// and from its name without extension otherwise. It returns the number of
// tracks written.
func WritePlaylist(dir, name string, titles map[string]string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !audioExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)

	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return 0, fmt.Errorf("failed to create playlist: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "#EXTM3U")
	for _, file := range files {
		title, ok := titles[file]
		if !ok || title == "" {
			title = strings.TrimSuffix(file, filepath.Ext(file))
		}
		fmt.Fprintf(w, "#EXTINF:-1,%s\n%s\n", oneLine(title), file)
	}
	if err := w.Flush(); err != nil {
		return 0, fmt.Errorf("failed to write playlist: %w", err)
	}
	return len(files), f.Close()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
