// Package cache provides the string-keyed TTL cache backing the roster
// cache, with Redis and in-memory implementations.
package cache

import "time"

// Cache is a string-keyed store with per-entry expiration. A missing key
// reads as an empty string with a nil error; a zero expiration never
// expires.
type Cache interface {
	Get(key string) (string, error)
	Set(key string, value interface{}, expiration time.Duration) error
	Delete(key string) error
}
