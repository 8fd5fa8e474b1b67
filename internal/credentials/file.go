package credentials

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// File reads a credential from a file on every Fetch.
type File struct {
	path string
}

// NewFile creates a File source for path.
func NewFile(path string) *File {
	return &File{path: filepath.Clean(path)}
}

// Path returns the file the source reads.
func (f *File) Path() string {
	return f.path
}

// Fetch reads the file. A missing file is reported as ErrNotFound.
func (f *File) Fetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	return readCredential(f.path)
}

func readCredential(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 - credential path is operator configured
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("failed to read credential file %s: %w", path, err)
	}

	log.Debug().Str("path", path).Int("bytes", len(data)).Msg("credential file read")

	return string(data), nil
}
