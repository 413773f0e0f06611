package mediastore

import "errors"

// Caller errors: surfaced unchanged, never retried.
var (
	// ErrMissingURLParam indicates an empty URL was supplied.
	ErrMissingURLParam = errors.New("mediastore: url parameter is required")

	// ErrInvalidURL indicates the URL could not be parsed or no object path
	// could be extracted from it.
	ErrInvalidURL = errors.New("mediastore: invalid url")

	// ErrInvalidSize indicates the thumbnail size request could not be
	// resolved to a positive dimension.
	ErrInvalidSize = errors.New("mediastore: invalid thumbnail size")

	// ErrBucketNotRegistered indicates no registered bucket pattern matched
	// the URL.
	ErrBucketNotRegistered = errors.New("mediastore: no bucket registered for url")

	// ErrSourceNotFound indicates the source object does not exist.
	ErrSourceNotFound = errors.New("mediastore: source object not found")
)

// Infrastructure errors.
var (
	// ErrPresignFailed wraps an object store presign failure.
	ErrPresignFailed = errors.New("mediastore: presign failed")

	// ErrConfiguration indicates a bucket or provider capability is
	// misconfigured (e.g. no preferred URL pattern to build a public URL).
	ErrConfiguration = errors.New("mediastore: configuration error")
)
