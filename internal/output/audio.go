package output

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteAudio writes data to dir/name, replacing an existing file, and
// returns the path and the number of bytes written.
func WriteAudio(dir, name string, data []byte) (string, int64, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", 0, fmt.Errorf("failed to write audio file: %w", err)
	}
	return path, int64(len(data)), nil
}

// CreateAudio writes data to dir/name only if the file does not exist yet.
// An existing file yields an error wrapping os.ErrExist.
func CreateAudio(dir, name string, data []byte) (string, int64, error) {
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create audio file: %w", err)
	}

	n, err := f.Write(data)
	if err != nil {
		f.Close()
		os.Remove(path)
		return "", 0, fmt.Errorf("failed to write audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("failed to close audio file: %w", err)
	}

	return path, int64(n), nil
}

// EnsureDir creates dir and its parents when missing.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
