package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"medical-records/internal/domain/entity"
	"medical-records/internal/infrastructure/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ------------------------------------------------------------------
// Sentinel errors
// ------------------------------------------------------------------

var (
	ErrStoredFileMissing = errors.New("stored file is missing")
	ErrLocalStoreFailed  = errors.New("local storage failed")
)

const (
	DefaultSignedURLExpiry = 15 * time.Minute
	deleteConcurrency      = 4
)

// StoredObject describes where an upload ended up.
type StoredObject struct {
	Locator     entity.StorageLocator
	Size        int64
	ContentType string
	// Warning is set when the remote store failed and the bytes were
	// written locally instead.
	Warning string
}

// Resolved is either a redirect URL (remote) or an open file (local). The
// caller closes File.
type Resolved struct {
	RedirectURL string
	File        *os.File
}

// StorageGateway stores upload bytes in the remote bucket when one is
// configured and on local disk otherwise, or when the remote write fails.
type StorageGateway interface {
	Store(ctx context.Context, content io.ReadSeeker, originalName, contentType, ownerPublicID string) (*StoredObject, error)
	Resolve(ctx context.Context, locator entity.StorageLocator, downloadName string) (*Resolved, error)
	Delete(ctx context.Context, locator entity.StorageLocator) error
	// DeleteAll removes every locator concurrently and returns one warning
	// per failure.
	DeleteAll(ctx context.Context, locators []entity.StorageLocator) []string
	RemoteEnabled() bool
	LocalDir() string
}

type storageGateway struct {
	log       *logrus.Logger
	remote    storage.ObjectStore
	local     *storage.LocalStore
	urlExpiry time.Duration
}

// NewStorageGateway builds a gateway; remote may be nil.
func NewStorageGateway(log *logrus.Logger, remote storage.ObjectStore, local *storage.LocalStore) StorageGateway {
	return &storageGateway{
		log:       log,
		remote:    remote,
		local:     local,
		urlExpiry: DefaultSignedURLExpiry,
	}
}

func (g *storageGateway) RemoteEnabled() bool {
	return g.remote != nil
}

func (g *storageGateway) LocalDir() string {
	return g.local.Dir()
}

func (g *storageGateway) Store(ctx context.Context, content io.ReadSeeker, originalName, contentType, ownerPublicID string) (*StoredObject, error) {
	size, err := content.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("measure upload: %w", err)
	}
	if _, err := content.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}

	if contentType == "" || contentType == "application/octet-stream" {
		mt, err := mimetype.DetectReader(content)
		if err != nil {
			return nil, fmt.Errorf("detect content type: %w", err)
		}
		contentType = mt.String()
		if _, err := content.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewind upload: %w", err)
		}
	}

	storedName := uuid.New().String() + strings.ToLower(filepath.Ext(originalName))
	obj := &StoredObject{ContentType: contentType}

	if g.remote != nil {
		key := RemoteKey(ownerPublicID, storedName)
		err := g.remote.Put(ctx, key, content, size, contentType)
		if err == nil {
			obj.Locator = entity.RemoteLocator(key)
			obj.Size = size
			return obj, nil
		}

		g.log.WithFields(logrus.Fields{
			"member_id": ownerPublicID,
			"key":       key,
		}).Warnf("Remote upload failed, falling back to local storage: %+v", err)
		obj.Warning = "Cloud storage unavailable; file saved locally"

		if _, err := content.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewind upload: %w", err)
		}
	}

	path, written, err := g.local.Save(storedName, content)
	if err != nil {
		g.log.Warnf("Failed to save file locally: %+v", err)
		return nil, fmt.Errorf("%w: %v", ErrLocalStoreFailed, err)
	}

	obj.Locator = entity.LocalLocator(path)
	obj.Size = written
	return obj, nil
}

func (g *storageGateway) Resolve(ctx context.Context, locator entity.StorageLocator, downloadName string) (*Resolved, error) {
	if locator.IsRemote() {
		if g.remote == nil {
			return nil, storage.ErrStoreUnavailable
		}
		u, err := g.remote.PresignGet(ctx, locator.Key, downloadName, g.urlExpiry)
		if err != nil {
			return nil, fmt.Errorf("presign download: %w", err)
		}
		return &Resolved{RedirectURL: u}, nil
	}

	f, err := g.local.Open(locator.Key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrStoredFileMissing
		}
		return nil, err
	}
	return &Resolved{File: f}, nil
}

func (g *storageGateway) Delete(ctx context.Context, locator entity.StorageLocator) error {
	if locator.IsRemote() {
		if g.remote == nil {
			return storage.ErrStoreUnavailable
		}
		return g.remote.Delete(ctx, locator.Key)
	}
	return g.local.Remove(locator.Key)
}

func (g *storageGateway) DeleteAll(ctx context.Context, locators []entity.StorageLocator) []string {
	var (
		mu       sync.Mutex
		warnings []string
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(deleteConcurrency)
	for _, locator := range locators {
		eg.Go(func() error {
			if err := g.Delete(egCtx, locator); err != nil {
				g.log.WithField("key", locator.Key).Warnf("Failed to delete stored file: %+v", err)
				mu.Lock()
				warnings = append(warnings, fmt.Sprintf("could not delete stored file %s", filepath.Base(locator.Key)))
				mu.Unlock()
			}
			return nil
		})
	}
	eg.Wait()

	return warnings
}

// RemoteKey builds the object key for a stored file, grouped by member.
func RemoteKey(ownerPublicID, storedName string) string {
	return fmt.Sprintf("members/%s/%s", ownerPublicID, storedName)
}
