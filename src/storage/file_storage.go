package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"holiday-pipeline/src/helpers"
)

// FileStorage keeps each key as a file below Root.
type FileStorage struct {
	Root string
}

// -----------------------------------------------------------------------------

func NewFileStorage(root string) (*FileStorage, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, helpers.NewStorageError("create storage root "+root, err)
	}
	return &FileStorage{Root: root}, nil
}

// -----------------------------------------------------------------------------

func (s *FileStorage) path(key string) string {
	return filepath.Join(s.Root, filepath.FromSlash(key))
}

// -----------------------------------------------------------------------------

func (s *FileStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, helpers.NewStorageError("read "+key, err)
	}
	return data, true, nil
}

// -----------------------------------------------------------------------------

// Put writes through a temp file and rename so readers never see a partial file.
func (s *FileStorage) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := s.path(key)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return helpers.NewStorageError("create directory for "+key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".tmp-*")
	if err != nil {
		return helpers.NewStorageError("create temp file for "+key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return helpers.NewStorageError("write "+key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return helpers.NewStorageError("close "+key, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return helpers.NewStorageError("rename "+key, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *FileStorage) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.Root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, helpers.NewStorageError("list "+s.Root, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// -----------------------------------------------------------------------------

func (s *FileStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return helpers.NewStorageError("delete "+key, err)
	}
	return nil
}
