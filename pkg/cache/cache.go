// Package cache stores computed layouts and rendered artifacts.
//
// Laying out a large storyboard is cheap but not free, and rendering SVG
// through Graphviz is noticeably slower. The pipeline keys both results by
// the content hash of their input, so an unchanged storyboard file is served
// from cache on the next run.
//
// # Backends
//
//   - [NullCache]: stores nothing (caching disabled, tests)
//   - [FileCache]: one JSON file per entry under a directory (CLI)
//   - [RedisCache]: shared cache for the HTTP server
//
// # Keys
//
// Keys come from a [Keyer]. [DefaultKeyer] hashes the input hash together
// with every option that affects the output; [ScopedKeyer] prefixes keys to
// separate namespaces that share one backend.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiration.
type Cache interface {
	// Get returns the cached value and whether it was found.
	// A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Entry lifetimes. Layouts and artifacts are derived purely from their
// inputs, so they only expire to bound cache growth.
const (
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)
