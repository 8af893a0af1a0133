package storage

import (
	"context"
	"path"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidKey is returned for keys that would leave the storage root
var ErrInvalidKey = errors.New("invalid storage key")

// Storage is the sink rendered pages are written to.
// Keys are slash separated paths relative to the storage root, e.g. "guides/mods.html".
// Implementations must be safe for concurrent use.
type Storage interface {
	// Write stores data with the given key, replacing any previous data.
	Write(ctx context.Context, key string, data []byte) error

	// Read retrieves data for the given key.
	// Returns os.ErrNotExist if the key does not exist.
	Read(ctx context.Context, key string) ([]byte, error)

	// List returns all keys below prefix in ascending order.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data for the given key.
	// Returns nil if the key does not exist (idempotent).
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the storage backend.
	Close() error
}

// CleanKey normalizes key and rejects absolute keys and keys escaping the root
func CleanKey(key string) (string, error) {
	key = strings.ReplaceAll(key, "\\", "/")
	if key == "" || strings.HasPrefix(key, "/") {
		return "", errors.Wrapf(ErrInvalidKey, "%q", key)
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.Wrapf(ErrInvalidKey, "%q", key)
	}
	return cleaned, nil
}
