package storage

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestLocalStore_SaveOpenRemove(t *testing.T) {
	store, err := NewLocalStore(filepath.Join(t.TempDir(), "uploads"), quietLogger())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	content := []byte("%PDF-1.4 lab results")
	path, n, err := store.Save("abc.pdf", bytes.NewReader(content))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if n != int64(len(content)) {
		t.Errorf("Save wrote %d bytes, want %d", n, len(content))
	}

	f, err := store.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, _ := io.ReadAll(f)
	f.Close()
	if !bytes.Equal(got, content) {
		t.Errorf("Open returned %q, want %q", got, content)
	}

	if err := store.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := store.Remove(path); err != nil {
		t.Errorf("second Remove should be a no-op, got %v", err)
	}
	if _, err := store.Open(path); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("Open after Remove = %v, want ErrObjectNotFound", err)
	}
}

func TestLocalStore_SaveRefusesOverwrite(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), quietLogger())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	if _, _, err := store.Save("same.png", bytes.NewReader([]byte("one"))); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if _, _, err := store.Save("same.png", bytes.NewReader([]byte("two"))); err == nil {
		t.Fatal("expected second Save with the same name to fail")
	}
}

func TestNewLocalStore_FallsBackToTemp(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	store, err := NewLocalStore(filepath.Join(blocker, "uploads"), quietLogger())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	if store.Dir() != filepath.Join(os.TempDir(), "uploads") {
		t.Errorf("Dir = %q, want temp fallback", store.Dir())
	}
}
