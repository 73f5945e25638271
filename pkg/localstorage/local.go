package localstorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Storage writes documents to a directory on the local filesystem.
type Storage struct {
	dir    string
	logger zerolog.Logger
}

// New ensures dir exists and returns a storage rooted at it.
func New(dir string, logger zerolog.Logger) (*Storage, error) {
	if dir == "" {
		return nil, errors.New("storage directory must be provided")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}

	return &Storage{
		dir:    dir,
		logger: logger.With().Str("component", "local_storage").Logger(),
	}, nil
}

// Dir returns the content directory.
func (s *Storage) Dir() string {
	return s.dir
}

// Save copies reader into dir/name and returns the stored path and byte count.
// The name must be a bare file name; an existing file is never overwritten.
func (s *Storage) Save(ctx context.Context, name string, reader io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	if name == "" || filepath.Base(name) != name {
		return "", 0, fmt.Errorf("invalid file name %q", name)
	}

	path := filepath.Join(s.dir, name)
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create destination file: %w", err)
	}

	written, err := io.Copy(dst, reader)
	if err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("failed to save file content: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("failed to flush file content: %w", err)
	}

	s.logger.Debug().Str("path", path).Int64("bytes", written).Msg("document stored")
	return path, written, nil
}

// Delete removes a stored file. Missing files are not an error.
func (s *Storage) Delete(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}

	name := filepath.Base(path)
	if name == "." || name == string(filepath.Separator) {
		return fmt.Errorf("invalid file path: %s", path)
	}

	physical := filepath.Join(s.dir, name)
	if err := os.Remove(physical); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn().Str("path", physical).Msg("document to delete does not exist")
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	s.logger.Debug().Str("path", physical).Msg("document deleted")
	return nil
}
