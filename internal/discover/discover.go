// Package discover finds simulation logs inside run directories.
package discover

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// compressedExts are tried after the plain name, in this order.
var compressedExts = []string{".zst", ".gz"}

// LogFile represents a discovered log on disk.
type LogFile struct {
	Path       string
	Compressed bool
	ModTime    int64 // unix timestamp
}

// Discover walks basePath recursively and returns every log called name,
// or name with a .zst or .gz suffix, sorted by path. When a directory
// holds both a plain and a compressed copy only the plain one is
// returned. Hidden directories are not entered.
func Discover(basePath, name string) ([]LogFile, error) {
	byDir := map[string]LogFile{}

	err := filepath.WalkDir(basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible entries
		}
		if d.IsDir() {
			if path != basePath && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		rank := match(d.Name(), name)
		if rank < 0 {
			return nil
		}
		dir := filepath.Dir(path)
		if prev, ok := byDir[dir]; ok && match(filepath.Base(prev.Path), name) <= rank {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		byDir[dir] = LogFile{
			Path:       path,
			Compressed: rank > 0,
			ModTime:    info.ModTime().Unix(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	results := make([]LogFile, 0, len(byDir))
	for _, f := range byDir {
		results = append(results, f)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})
	return results, nil
}

// match returns 0 for the plain name, 1+ for a compressed copy in
// preference order, and -1 otherwise.
func match(file, name string) int {
	if file == name {
		return 0
	}
	for i, ext := range compressedExts {
		if file == name+ext {
			return i + 1
		}
	}
	return -1
}

// Expand replaces every directory in paths by the logs Discover finds
// under it. Other paths are passed through unchanged, so argument order
// is kept. A directory without any log is an error.
func Expand(paths []string, name string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			// Missing files are reported by the scanner with its own error.
			out = append(out, p)
			continue
		}
		logs, err := Discover(p, name)
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", p, err)
		}
		if len(logs) == 0 {
			return nil, fmt.Errorf("no %s found under %s", name, p)
		}
		for _, l := range logs {
			out = append(out, l.Path)
		}
	}
	return out, nil
}
