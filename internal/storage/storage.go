// Package storage keeps each worker's artifacts under a namespace keyed by
// the worker identifier. Keys are slash separated: "{namespace}/{file}".
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
	ErrNotFound   = errors.New("storage: object not found")
	ErrInvalidKey = errors.New("storage: invalid key")
)

// PublicPrefix is the URL path under which artifacts are served.
const PublicPrefix = "/uploads/"

// NamespaceInfo describes one namespace and the newest write inside it.
type NamespaceInfo struct {
	Name       string
	ModifiedAt time.Time
}

//go:generate mockgen -source=storage.go -destination=mock/storage_mock.go -package=mock
type Storage interface {
	// PutFile moves a local file into storage under key. The source is gone afterwards.
	PutFile(ctx context.Context, key, srcPath string) error
	// Put writes the reader's content under key.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Open streams an object. Missing objects return ErrNotFound.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	// Remove deletes one object. A missing object is not an error.
	Remove(ctx context.Context, key string) error
	// RemoveNamespace deletes everything under namespace. A missing namespace is not an error.
	RemoveNamespace(ctx context.Context, namespace string) error
	ListNamespaces(ctx context.Context) ([]NamespaceInfo, error)
	// DownloadURL returns a URL a browser can fetch the object from.
	DownloadURL(ctx context.Context, key string) (string, error)
}

// Key joins a namespace and a file name.
func Key(namespace, name string) string {
	return namespace + "/" + name
}

// PublicURL renders a stored key as a root-relative URL, nil stays nil.
func PublicURL(key *string) *string {
	if key == nil || *key == "" {
		return nil
	}
	u := PublicPrefix + strings.TrimPrefix(*key, "/")
	return &u
}

// CleanKey normalizes a key and rejects anything escaping the storage root.
func CleanKey(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." || strings.HasPrefix(cleaned, "..") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

// cleanNamespace accepts a single path segment only.
func cleanNamespace(namespace string) (string, error) {
	ns, err := CleanKey(namespace)
	if err != nil {
		return "", err
	}
	if strings.Contains(ns, "/") {
		return "", ErrInvalidKey
	}
	return ns, nil
}
