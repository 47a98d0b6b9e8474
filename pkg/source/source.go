// Package source opens Spark event logs for analysis.
//
// A Source names one event log and opens it as a plain byte stream.
// Compression is a property of the file, not the analysis, so gzip
// decoding happens here and the engine always sees decompressed lines.
package source

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Source is one event log to analyze.
type Source interface {
	// Name identifies the log for reports and error messages.
	Name() string

	// Open returns the decompressed event stream.
	Open(ctx context.Context) (io.ReadCloser, error)
}

// SourceError wraps source failures with operation context.
type SourceError struct {
	Op   string
	Name string
	Err  error
}

func (e *SourceError) Error() string {
	return "source: " + e.Op + " " + e.Name + ": " + e.Err.Error()
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// FileSource reads a local event-log file, decompressing .gz transparently.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (f *FileSource) Name() string {
	return f.path
}

func (f *FileSource) Open(_ context.Context) (io.ReadCloser, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, &SourceError{Op: "open", Name: f.path, Err: err}
	}
	if !strings.HasSuffix(f.path, ".gz") {
		return file, nil
	}

	gz, err := gzip.NewReader(file)
	if err != nil {
		_ = file.Close()
		return nil, &SourceError{Op: "gunzip", Name: f.path, Err: err}
	}
	return &gzipReadCloser{gz: gz, file: file}, nil
}

type gzipReadCloser struct {
	gz   *gzip.Reader
	file *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) {
	return g.gz.Read(p)
}

func (g *gzipReadCloser) Close() error {
	gzErr := g.gz.Close()
	fileErr := g.file.Close()
	if gzErr != nil {
		return gzErr
	}
	return fileErr
}

// Discover expands paths into concrete file sources.
//
// A directory argument is walked and filtered by the glob pattern
// (default matches plain and gzipped event logs); a file argument is
// taken as-is. Results are sorted by path for deterministic app order.
func Discover(paths []string, glob string) ([]Source, error) {
	if glob == "" {
		glob = "**/*"
	}
	if !doublestar.ValidatePattern(glob) {
		return nil, fmt.Errorf("invalid glob pattern %q", glob)
	}

	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, &SourceError{Op: "stat", Name: p, Err: err}
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		err = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(p, path)
			if err != nil {
				return err
			}
			ok, err := doublestar.Match(glob, filepath.ToSlash(rel))
			if err != nil {
				return err
			}
			if ok {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, &SourceError{Op: "walk", Name: p, Err: err}
		}
	}

	sort.Strings(files)
	out := make([]Source, 0, len(files))
	for _, f := range files {
		out = append(out, NewFileSource(f))
	}
	return out, nil
}
