// Package blobstore provides content-durable storage for uploaded images,
// addressed by a generated name, with streamed writes and reads.
package blobstore

import (
	"context"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/featherframe/featherframe/internal/conf"
	"github.com/featherframe/featherframe/internal/errors"
	"github.com/google/uuid"
)

// ErrNotFound is returned by Get when no blob matches the requested name.
// It is distinct from transport and storage failures.
var ErrNotFound = errors.NewStd("blob not found")

// Metadata is the small envelope stored alongside blob bytes.
type Metadata struct {
	OriginalFilename string `json:"originalFilename"`
	MIMEType         string `json:"mimeType"`
}

// Store is the blob storage contract. Put must be fully durable before
// returning success; callers depend on this ordering when they persist
// records referencing the blob. Get streams bytes without buffering the
// whole object.
type Store interface {
	Put(ctx context.Context, name string, r io.Reader, meta Metadata) error
	Get(ctx context.Context, name string) (io.ReadCloser, Metadata, error)
}

// safeNamePattern defines the acceptable characters for blob names.
var safeNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`)

// ValidName reports whether name is a well-formed blob name that is safe to
// use as a storage key and a path component.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return safeNamePattern.MatchString(name)
}

// NewBlobName generates a fresh collision-resistant blob name, preserving the
// original file extension when it is safe to do so.
func NewBlobName(originalFilename string) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	if !safeNamePattern.MatchString(strings.TrimPrefix(ext, ".")) {
		ext = ""
	}
	return uuid.NewString() + ext
}

// New creates a Store based on the configured storage backend.
func New(ctx context.Context, settings *conf.Settings) (Store, error) {
	switch settings.Storage.Type {
	case conf.StorageFilesystem:
		return NewFSStore(settings.Storage.Filesystem.Path)
	case conf.StorageS3:
		return NewS3Store(ctx, &settings.Storage.S3)
	default:
		return nil, errors.Newf("unknown storage type: %s", settings.Storage.Type).
			Component("blobstore").
			Category(errors.CategoryConfiguration).
			Build()
	}
}
