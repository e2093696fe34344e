// Package cache remembers the last image shown on each output so the
// client can restore it when the daemon restarts.
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrNoCacheDir = errors.New("neither $XDG_CACHE_HOME nor $HOME is set")

// Dir returns the cache directory, creating it if needed.
func Dir() (string, error) {
	var dir string
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		dir = filepath.Join(xdg, "wlpaper")
	} else if home := os.Getenv("HOME"); home != "" {
		dir = filepath.Join(home, ".cache", "wlpaper")
	} else {
		return "", ErrNoCacheDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	return dir, nil
}

func entry(output string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	name := strings.ReplaceAll(output, string(filepath.Separator), "_")
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("invalid output name %q", output)
	}
	return filepath.Join(dir, name), nil
}

// Store records imgPath as the image last sent to output.
func Store(output, imgPath string) error {
	p, err := entry(output)
	if err != nil {
		return err
	}
	if err := os.WriteFile(p, []byte(imgPath), 0o644); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

// Load returns the image last sent to output, or "" if there is none.
func Load(output string) (string, error) {
	p, err := entry(output)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read cache: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
