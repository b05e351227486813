// Package storage provides the object stores protected media is served from:
// a local filesystem tree and a remote Supabase Storage bucket.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

var (
	// ErrObjectNotFound is returned when the object does not exist in the store
	ErrObjectNotFound = errors.New("object not found")
	// ErrInvalidPath is returned for empty, absolute or root-escaping object paths
	ErrInvalidPath = errors.New("invalid object path")
)

// ObjectInfo describes a stored object
type ObjectInfo struct {
	Path        string
	Size        int64
	ContentType string
	ModTime     time.Time
}

// Store is the read/write surface shared by every backend.
// Paths are slash-separated and relative to the store root.
type Store interface {
	// Stat returns object metadata or ErrObjectNotFound
	Stat(ctx context.Context, objectPath string) (*ObjectInfo, error)

	// Open returns a reader positioned at offset yielding at most length bytes.
	// A negative length reads to the end of the object.
	Open(ctx context.Context, objectPath string, offset, length int64) (io.ReadCloser, error)

	// Create stores the content of r under objectPath and returns the number of bytes written
	Create(ctx context.Context, objectPath string, r io.Reader, contentType string) (int64, error)

	// Delete removes the object or returns ErrObjectNotFound
	Delete(ctx context.Context, objectPath string) error
}

// RemoteStore is a Store that can mint its own time-limited URLs
type RemoteStore interface {
	Store

	// SignedURL returns an absolute URL granting read access for ttl
	SignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error)
}

// CleanPath normalizes a slash-separated object path and rejects anything
// that is empty, absolute or climbs above the root.
func CleanPath(objectPath string) (string, error) {
	if objectPath == "" || strings.HasPrefix(objectPath, "/") || strings.ContainsRune(objectPath, '\\') {
		return "", ErrInvalidPath
	}
	cleaned := path.Clean(objectPath)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}

// readCloser pairs a limited reader with the closer of its source
type readCloser struct {
	io.Reader
	io.Closer
}

// limit wraps rc so at most length bytes are read; a negative length leaves it unbounded
func limit(rc io.ReadCloser, length int64) io.ReadCloser {
	if length < 0 {
		return rc
	}
	return readCloser{Reader: io.LimitReader(rc, length), Closer: rc}
}
