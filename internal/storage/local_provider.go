package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

type LocalProvider struct {
	dir string
}

func NewLocalProvider(dir string) *LocalProvider {
	if dir == "" {
		dir = "."
	}
	return &LocalProvider{dir: dir}
}

func (p *LocalProvider) path(key string) string {
	return filepath.Join(p.dir, filepath.FromSlash(key))
}

func (p *LocalProvider) GetObject(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(p.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return data, err
}

func (p *LocalProvider) PutObject(ctx context.Context, key string, data io.Reader) error {
	path := p.path(key)
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}

	// Written to a temp file and renamed so a failed write never leaves a
	// partial object under the final key.
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}

	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()           //nolint:errcheck
		os.Remove(tmp.Name()) //nolint:errcheck
		return fmt.Errorf("error writing %s: %w", key, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return fmt.Errorf("error closing %s: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return fmt.Errorf("error saving %s: %w", key, err)
	}

	return nil
}

func (p *LocalProvider) Exists(ctx context.Context, key string) (bool, error) {
	info, err := os.Stat(p.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}
