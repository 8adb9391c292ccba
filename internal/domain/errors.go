package domain

import "errors"

var (
	// ErrRetrievalUnavailable signals that every retrieval lane and the
	// last-resort fallback failed. This is the only fatal search path.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	// ErrEmptyQuery signals a blank search query at the API boundary.
	ErrEmptyQuery = errors.New("empty query")
	// ErrInvalidItem signals a catalog item that cannot be indexed.
	ErrInvalidItem = errors.New("invalid catalog item")
	// ErrProductNotFound signals a lookup for an id the catalog does not hold.
	ErrProductNotFound = errors.New("product not found")
	// ErrJobNotFound signals an unknown bulk-index job id.
	ErrJobNotFound = errors.New("job not found")
	// ErrSnapshotCorrupt signals an unreadable vector snapshot file.
	// Loading continues with an empty index; callers treat this as a
	// non-fatal initialization status.
	ErrSnapshotCorrupt = errors.New("snapshot corrupt")
)
