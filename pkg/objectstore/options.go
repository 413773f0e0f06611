package objectstore

// WriteOptions configures object writes.
type WriteOptions struct {
	// ContentType sets the object's Content-Type.
	ContentType string

	// UserMetadata is attached as provider user metadata (x-amz-meta-*,
	// x-oss-meta-*, x-ms-meta-*).
	UserMetadata map[string]string
}

// WriteOption modifies WriteOptions.
type WriteOption func(*WriteOptions)

// DefaultWriteOptions returns the zero write options.
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{}
}

// ApplyWriteOptions folds the given options into a WriteOptions value.
func ApplyWriteOptions(opts []WriteOption) WriteOptions {
	o := DefaultWriteOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithContentType sets the Content-Type for a write.
func WithContentType(contentType string) WriteOption {
	return func(o *WriteOptions) {
		o.ContentType = contentType
	}
}

// WithUserMetadata attaches user metadata to a write.
func WithUserMetadata(metadata map[string]string) WriteOption {
	return func(o *WriteOptions) {
		o.UserMetadata = metadata
	}
}
