// Package storage keeps question-bank snapshots outside the database.
package storage

import (
	"errors"
	"io"
	"path"
	"strings"
)

var (
	ErrNotFound = errors.New("blob not found")
	ErrBadKey   = errors.New("bad blob key")
)

type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	List(prefix string) ([]string, error)
}

// CleanKey canonicalizes a slash-separated key. Keys may not climb out of
// the store root.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrBadKey
	}
	c := path.Clean("/" + key)
	if strings.Contains(key, "..") || c == "/" {
		return "", ErrBadKey
	}
	return strings.TrimPrefix(c, "/"), nil
}
