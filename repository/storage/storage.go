package storage

import "io"

type UsageStats struct {
	TotalBytes uint64 `json:"total_bytes"`
	FreeBytes  uint64 `json:"free_bytes"`
}

// Storage holds thesis documents. Store returns an opaque locator that is
// persisted on the thesis record and passed back to Read. Callers never
// interpret the locator.
type Storage interface {
	Store(path string, data io.Reader) (string, error)

	Read(locator string) (io.ReadCloser, error)

	Exists(locator string) (bool, error)

	Usage() (UsageStats, error)

	Location() string
}
