package cache

import "time"

// Store is a small key-value cache with per-entry expiration, used to
// memoize run artifacts. Backed by Redis when configured, by process memory
// otherwise.
type Store interface {
	Set(key, value string, expiration time.Duration)
	Get(key string) (string, bool)
	Delete(key string)
}
