package compilationcache

import (
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
)

// NewFileCache returns a Cache storing one file per entry under dir, named
// by the hex form of the key. The directory must exist. Entries are
// content-addressed, so a directory may be shared by engines in any number
// of processes.
func NewFileCache(dir string) Cache {
	return &fileCache{dir: dir}
}

type fileCache struct {
	dir string
}

func (fc *fileCache) path(key Key) string {
	return filepath.Join(fc.dir, hex.EncodeToString(key[:]))
}

func (fc *fileCache) Get(key Key) (io.ReadCloser, bool, error) {
	f, err := os.Open(fc.path(key))
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return f, true, nil
}

// Add writes through a temporary file and renames it into place, so a
// concurrent Get in this or another process never observes a partial entry.
func (fc *fileCache) Add(key Key, content io.Reader) error {
	tmp, err := os.CreateTemp(fc.dir, "add-*")
	if err != nil {
		return err
	}
	if _, err = io.Copy(tmp, content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), fc.path(key))
}

func (fc *fileCache) Delete(key Key) error {
	err := os.Remove(fc.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
