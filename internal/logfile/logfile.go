// Package logfile opens simulation logs for reading and writes compressed
// copies of them. Logs ending in .zst or .gz are decompressed on the fly.
package logfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const (
	zstExt = ".zst"
	gzExt  = ".gz"
)

// Open opens path for reading. The returned reader yields decompressed
// bytes for .zst and .gz files. Closing it closes the underlying file.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case zstExt:
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("create zstd decoder: %w", err)
		}
		return &zstdReadCloser{dec: dec, f: f}, nil

	case gzExt:
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		return &gzipReadCloser{zr: zr, f: f}, nil
	}

	return f, nil
}

type zstdReadCloser struct {
	dec *zstd.Decoder
	f   *os.File
}

func (z *zstdReadCloser) Read(p []byte) (int, error) { return z.dec.Read(p) }

func (z *zstdReadCloser) Close() error {
	z.dec.Close()
	return z.f.Close()
}

type gzipReadCloser struct {
	zr *gzip.Reader
	f  *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) { return g.zr.Read(p) }

func (g *gzipReadCloser) Close() error {
	zerr := g.zr.Close()
	if err := g.f.Close(); err != nil {
		return err
	}
	return zerr
}

// IsCompressed reports whether path names a log Open will decompress.
func IsCompressed(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case zstExt, gzExt:
		return true
	}
	return false
}

// CompressedPath returns where Compress writes the copy of srcPath.
// An empty destDir places the copy next to the source.
func CompressedPath(srcPath, destDir string) string {
	if destDir == "" {
		destDir = filepath.Dir(srcPath)
	}
	return filepath.Join(destDir, filepath.Base(srcPath)+zstExt)
}

// Compress writes a zstd-compressed copy of srcPath and returns its path.
// The source is left in place.
func Compress(srcPath, destDir string) (string, error) {
	if IsCompressed(srcPath) {
		return "", fmt.Errorf("%s is already compressed", srcPath)
	}

	destPath := CompressedPath(srcPath, destDir)
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	dest, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	defer dest.Close()

	encoder, err := zstd.NewWriter(dest)
	if err != nil {
		return "", fmt.Errorf("create zstd encoder: %w", err)
	}

	if _, err := io.Copy(encoder, src); err != nil {
		encoder.Close()
		return "", fmt.Errorf("compress: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("finalize compression: %w", err)
	}

	return destPath, nil
}
