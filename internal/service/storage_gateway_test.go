package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"medical-records/internal/domain/entity"
	"medical-records/internal/infrastructure/storage"
	"medical-records/internal/testutil"
)

// fakeObjectStore is an in-memory ObjectStore whose calls can be made to
// fail.
type fakeObjectStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	putErr    error
	deleteErr error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string][]byte{}}
}

func (f *fakeObjectStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	if f.putErr != nil {
		io.Copy(io.Discard, body)
		return f.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.objects[key] = data
	f.mu.Unlock()
	return nil
}

func (f *fakeObjectStore) Delete(_ context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	delete(f.objects, key)
	f.mu.Unlock()
	return nil
}

func (f *fakeObjectStore) PresignGet(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://signed.example/" + key, nil
}

func newLocalStore(t *testing.T) *storage.LocalStore {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir(), testutil.Logger())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	return store
}

func readAll(t *testing.T, r *Resolved) []byte {
	t.Helper()
	if r.File == nil {
		t.Fatal("expected a local file")
	}
	defer r.File.Close()
	data, err := io.ReadAll(r.File)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return data
}

func TestStore_LocalWhenRemoteUnconfigured(t *testing.T) {
	gw := NewStorageGateway(testutil.Logger(), nil, newLocalStore(t))
	content := []byte("%PDF-1.7\nblood panel")

	obj, err := gw.Store(context.Background(), bytes.NewReader(content), "Blood Panel.PDF", "application/pdf", "AB12CD")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if obj.Locator.Backend != entity.StorageLocal {
		t.Fatalf("backend = %q, want local", obj.Locator.Backend)
	}
	if obj.Size != int64(len(content)) {
		t.Errorf("size = %d, want %d", obj.Size, len(content))
	}
	if obj.Warning != "" {
		t.Errorf("unexpected warning %q", obj.Warning)
	}
	if strings.Contains(obj.Locator.Key, "Blood Panel") {
		t.Errorf("stored name %q reuses the user-supplied name", obj.Locator.Key)
	}
	if !strings.HasSuffix(obj.Locator.Key, ".pdf") {
		t.Errorf("stored name %q lost its extension", obj.Locator.Key)
	}

	resolved, err := gw.Resolve(context.Background(), obj.Locator, "Blood Panel.PDF")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := readAll(t, resolved); !bytes.Equal(got, content) {
		t.Errorf("stored bytes = %q, want %q", got, content)
	}
}

func TestStore_RemoteSuccess(t *testing.T) {
	remote := newFakeObjectStore()
	gw := NewStorageGateway(testutil.Logger(), remote, newLocalStore(t))

	obj, err := gw.Store(context.Background(), bytes.NewReader([]byte("GIF89a...")), "scan.gif", "", "ZZ99ZZ")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if !obj.Locator.IsRemote() {
		t.Fatalf("backend = %q, want remote", obj.Locator.Backend)
	}
	if !strings.HasPrefix(obj.Locator.Key, "members/ZZ99ZZ/") {
		t.Errorf("key = %q, want members/ZZ99ZZ/ prefix", obj.Locator.Key)
	}
	if obj.ContentType != "image/gif" {
		t.Errorf("content type = %q, want detected image/gif", obj.ContentType)
	}
	if _, ok := remote.objects[obj.Locator.Key]; !ok {
		t.Error("object not written to remote store")
	}

	resolved, err := gw.Resolve(context.Background(), obj.Locator, "scan.gif")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.RedirectURL == "" || resolved.File != nil {
		t.Errorf("remote resolve = %+v, want redirect only", resolved)
	}
}

func TestStore_FallsBackWhenRemoteFails(t *testing.T) {
	remote := newFakeObjectStore()
	remote.putErr = errors.New("403 AccessDenied")
	gw := NewStorageGateway(testutil.Logger(), remote, newLocalStore(t))
	content := []byte("x-ray notes")

	obj, err := gw.Store(context.Background(), bytes.NewReader(content), "notes.doc", "application/msword", "AB12CD")
	if err != nil {
		t.Fatalf("Store should fall back, got %v", err)
	}
	if obj.Locator.Backend != entity.StorageLocal {
		t.Fatalf("backend = %q, want local", obj.Locator.Backend)
	}
	if obj.Warning == "" {
		t.Error("expected a fallback warning")
	}
	if obj.Size != int64(len(content)) {
		t.Errorf("size = %d, want %d", obj.Size, len(content))
	}

	resolved, err := gw.Resolve(context.Background(), obj.Locator, "notes.doc")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := readAll(t, resolved); !bytes.Equal(got, content) {
		t.Errorf("stored bytes = %q, want full content %q", got, content)
	}
}

func TestResolve_MissingLocalFile(t *testing.T) {
	gw := NewStorageGateway(testutil.Logger(), nil, newLocalStore(t))

	_, err := gw.Resolve(context.Background(), entity.LocalLocator("/nonexistent/file.pdf"), "file.pdf")
	if !errors.Is(err, ErrStoredFileMissing) {
		t.Fatalf("Resolve = %v, want ErrStoredFileMissing", err)
	}
}

func TestDeleteAll_CollectsWarnings(t *testing.T) {
	remote := newFakeObjectStore()
	gw := NewStorageGateway(testutil.Logger(), remote, newLocalStore(t))
	ctx := context.Background()

	stored, err := gw.Store(ctx, bytes.NewReader([]byte("remote")), "b.png", "image/png", "AB12CD")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	remote.deleteErr = errors.New("network down")

	warnings := gw.DeleteAll(ctx, []entity.StorageLocator{
		entity.LocalLocator("/nonexistent/already-gone.png"),
		stored.Locator,
	})

	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1: %v", len(warnings), warnings)
	}
}
