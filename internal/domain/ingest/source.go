package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
)

//go:generate mockgen -source=source.go -destination=mock/source.go -package=mock

// Source yields candidate key lines. Blank lines and duplicates are left for
// the inventory to sort out.
type Source interface {
	Name() string
	Candidates(ctx context.Context) ([]string, error)
}

// FileSource reads one key per line from a local plaintext file. The file may
// be cleared or removed at any time; a missing file has no candidates.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string {
	return "file:" + s.path
}

func (s *FileSource) Candidates(ctx context.Context) ([]string, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Key file not found, nothing to ingest",
			slog.String("type", "sys"),
			slog.String("path", s.path))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open key file: %w", err)
	}
	defer f.Close()

	return readLines(ctx, f)
}

func readLines(ctx context.Context, r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read keys: %w", err)
	}
	return lines, nil
}
