package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"roomchat/errors"
)

// DiskStorage writes media bytes as files under a single directory.
type DiskStorage struct {
	dir string
}

func NewDiskStorage(dir string) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	return &DiskStorage{dir: dir}, nil
}

// Write stores data under name through a temporary file and a rename,
// so a reader never sees a partially written blob.
func (d *DiskStorage) Write(name string, data []byte) error {
	path, err := d.path(name)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(d.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	return nil
}

func (d *DiskStorage) Open(name string) (io.ReadCloser, error) {
	path, err := d.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	switch {
	case os.IsNotExist(err):
		return nil, fmt.Errorf("%w: %s", errors.ErrMediaNotFound, name)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	return f, nil
}

func (d *DiskStorage) Remove(name string) error {
	path, err := d.path(name)
	if err != nil {
		return err
	}
	if err = os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	return nil
}

// path refuses names that would escape the upload directory.
func (d *DiskStorage) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", errors.ErrMediaNotFound, name)
	}
	return filepath.Join(d.dir, name), nil
}
