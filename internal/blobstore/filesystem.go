package blobstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/featherframe/featherframe/internal/errors"
)

// metaSuffix is appended to the blob name for the metadata sidecar file.
const metaSuffix = ".meta"

// partialSuffix marks in-progress writes that have not been made durable yet.
const partialSuffix = ".partial"

// FSStore is a filesystem-backed blob store. All operations are confined to
// the base directory with os.Root, preventing path traversal via names,
// relative paths or symlinks. Writes go to a temporary file which is synced
// to disk and renamed into place, so a name either resolves to a complete
// blob or does not resolve at all.
type FSStore struct {
	baseDir string
	root    *os.Root
}

// NewFSStore creates a filesystem store rooted at baseDir, creating the
// directory if needed.
func NewFSStore(baseDir string) (*FSStore, error) {
	absPath, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage path: %w", err)
	}

	if err := os.MkdirAll(absPath, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage root: %w", err)
	}

	return &FSStore{
		baseDir: absPath,
		root:    root,
	}, nil
}

// BaseDir returns the absolute base directory of the store.
func (s *FSStore) BaseDir() string {
	return s.baseDir
}

// Close releases the underlying filesystem root.
func (s *FSStore) Close() error {
	return s.root.Close()
}

// Put streams r into a blob named name. The content file and its metadata
// sidecar are both flushed to disk before Put returns success.
func (s *FSStore) Put(ctx context.Context, name string, r io.Reader, meta Metadata) error {
	if !ValidName(name) {
		return errors.Newf("invalid blob name: %q", name).
			Component("blobstore").
			Category(errors.CategoryValidation).
			Build()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.writeDurable(name+partialSuffix, name, r); err != nil {
		return errors.New(err).
			Component("blobstore").
			Category(errors.CategoryBlobStorage).
			Context("blob_name", name).
			Build()
	}

	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return errors.New(err).
			Component("blobstore").
			Category(errors.CategoryBlobStorage).
			Context("blob_name", name).
			Build()
	}
	if err := s.writeDurable(name+metaSuffix+partialSuffix, name+metaSuffix, bytes.NewReader(metaBytes)); err != nil {
		return errors.New(err).
			Component("blobstore").
			Category(errors.CategoryBlobStorage).
			Context("blob_name", name).
			Build()
	}

	return nil
}

// Get opens the blob named name for streaming. A missing blob yields
// ErrNotFound; any other failure is a storage error.
func (s *FSStore) Get(ctx context.Context, name string) (io.ReadCloser, Metadata, error) {
	if !ValidName(name) {
		return nil, Metadata{}, ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return nil, Metadata{}, err
	}

	f, err := s.root.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, Metadata{}, ErrNotFound
		}
		return nil, Metadata{}, errors.New(err).
			Component("blobstore").
			Category(errors.CategoryBlobStorage).
			Context("blob_name", name).
			Build()
	}

	meta, err := s.readMetadata(name)
	if err != nil {
		f.Close()
		return nil, Metadata{}, err
	}

	return f, meta, nil
}

// readMetadata loads the sidecar for name. A blob written without a sidecar
// is served with empty metadata rather than failing the read.
func (s *FSStore) readMetadata(name string) (Metadata, error) {
	mf, err := s.root.Open(name + metaSuffix)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Metadata{}, nil
		}
		return Metadata{}, errors.New(err).
			Component("blobstore").
			Category(errors.CategoryBlobStorage).
			Context("blob_name", name).
			Build()
	}
	defer mf.Close()

	var meta Metadata
	if err := json.NewDecoder(mf).Decode(&meta); err != nil {
		return Metadata{}, errors.New(err).
			Component("blobstore").
			Category(errors.CategoryBlobStorage).
			Context("blob_name", name).
			Build()
	}
	return meta, nil
}

// writeDurable copies r into tmpName, fsyncs it and renames it to destName.
func (s *FSStore) writeDurable(tmpName, destName string, r io.Reader) error {
	tmp, err := s.root.Create(tmpName)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	success := false
	defer func() {
		if !success {
			s.root.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := s.root.Rename(tmpName, destName); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	success = true
	return nil
}
