package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// LocalStore keeps files in a single flat directory.
type LocalStore struct {
	dir string
}

// NewLocalStore prepares dir for writing. When dir cannot be created or
// written to, it falls back to an "uploads" directory under the system temp
// directory.
func NewLocalStore(dir string, log *logrus.Logger) (*LocalStore, error) {
	err := ensureWritable(dir)
	if err == nil {
		return &LocalStore{dir: dir}, nil
	}
	log.WithField("dir", dir).Warnf("Upload directory not writable, falling back to temp: %+v", err)

	fallback := filepath.Join(os.TempDir(), "uploads")
	if err := ensureWritable(fallback); err != nil {
		return nil, fmt.Errorf("no writable upload directory: %w", err)
	}
	log.WithField("dir", fallback).Info("Using temporary upload directory")
	return &LocalStore{dir: fallback}, nil
}

func ensureWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return err
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}

func (s *LocalStore) Dir() string {
	return s.dir
}

// Save writes body to name inside the directory and returns the full path
// and the number of bytes written. A partially written file is removed.
func (s *LocalStore) Save(name string, body io.Reader) (string, int64, error) {
	path := filepath.Join(s.dir, filepath.Base(name))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, err
	}

	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", 0, err
	}
	return path, n, nil
}

// Open returns the file at path, or ErrObjectNotFound.
func (s *LocalStore) Open(path string) (*os.File, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	return f, nil
}

// Remove deletes the file at path. A file that is already gone is not an
// error.
func (s *LocalStore) Remove(path string) error {
	err := os.Remove(filepath.Clean(path))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
