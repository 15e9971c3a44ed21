package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

type FileRepository struct {
	path   string
	logger *zap.Logger
}

// NewFileRepository stores the document at <dir>/<key>.json. Characters
// that are awkward in file names are replaced.
func NewFileRepository(dir, key string, logger *zap.Logger) *FileRepository {
	name := strings.NewReplacer(":", "_", "/", "_", "\\", "_").Replace(key) + ".json"
	return &FileRepository{
		path:   filepath.Join(dir, name),
		logger: logger,
	}
}

func (r *FileRepository) Backend() string { return "file" }

func (r *FileRepository) Path() string { return r.path }

func (r *FileRepository) Load(_ context.Context) ([]byte, error) {
	r.logger.Debug("Reading habit collection", zap.String("path", r.path))

	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to read habit collection", zap.String("path", r.path), zap.Error(err))
		return nil, err
	}
	return data, nil
}

// Save writes to a temp file in the same directory and renames it over the
// target, so a crash leaves either the old or the new document.
func (r *FileRepository) Save(_ context.Context, data []byte) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		r.logger.Error("Failed to replace habit collection", zap.String("path", r.path), zap.Error(err))
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	r.logger.Debug("Habit collection written",
		zap.String("path", r.path),
		zap.Int("bytes", len(data)),
	)
	return nil
}

func (r *FileRepository) Ping(_ context.Context) error {
	_, err := os.Stat(filepath.Dir(r.path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
