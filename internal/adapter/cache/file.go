package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"currency-rates-service/internal/domain/model"
	"currency-rates-service/internal/domain/ports"
	"currency-rates-service/pkg/logger"
)

var _ ports.HistoryStore = (*FileStore)(nil)

// FileStore keeps the envelope in a single JSON file. Writes go to a temp
// file in the same directory which is then renamed over the target.
type FileStore struct {
	path string
	log  *logger.Logger
}

func NewFileStore(path string, log *logger.Logger) *FileStore {
	return &FileStore{
		path: path,
		log:  log,
	}
}

func (f *FileStore) Read(ctx context.Context) (*model.CacheEnvelope, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			f.log.Debug("Cache file not found", "path", f.path)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	return decodeEnvelope(data, f.log), nil
}

func (f *FileStore) Write(ctx context.Context, envelope *model.CacheEnvelope) error {
	data, err := encodeEnvelope(envelope)
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp cache file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp cache file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}

	f.log.Debug("Cache file written", "path", f.path, "snapshots", len(envelope.History))
	return nil
}
