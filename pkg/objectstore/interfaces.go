package objectstore

import (
	"context"
	"time"
)

// Provider represents the storage provider type.
type Provider string

const (
	ProviderS3    Provider = "s3"
	ProviderOSS   Provider = "oss"
	ProviderAzure Provider = "azure"
)

// Store is the per-bucket object storage abstraction the gateway depends on.
// One Store instance serves exactly one bucket; instances are lazily
// constructed and reused (see Cache).
type Store interface {
	// Provider returns the storage provider type.
	Provider() Provider

	// Bucket returns the bucket (or container) this store is bound to.
	Bucket() string

	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte, opts ...WriteOption) error
	Stat(ctx context.Context, key string) (*Metadata, error)
	Delete(ctx context.Context, key string) error
	ListByPrefix(ctx context.Context, prefix string) ([]string, error)

	PresignRead(ctx context.Context, key string, expiry time.Duration) (*PresignedRequest, error)
	PresignWrite(ctx context.Context, key string, expiry time.Duration) (*PresignedRequest, error)
}

// Metadata contains the object metadata surfaced by Stat.
type Metadata struct {
	Key          string
	Size         int64
	ContentType  string
	ETag         string
	VersionID    string
	LastModified time.Time
	UserMetadata map[string]string
}

// PresignedRequest describes a presigned HTTP request for direct object
// access. Headers carries provider quirks the client must send verbatim
// (e.g. the Azure block-blob type header on writes).
type PresignedRequest struct {
	URL     string
	Method  string
	Headers map[string]string
}

// Config provides connection configuration for one bucket. Fields that a
// given provider does not use are ignored by its factory.
type Config struct {
	Provider        Provider          `mapstructure:"provider" validate:"required"`
	Bucket          string            `mapstructure:"bucket" validate:"required"`
	Endpoint        string            `mapstructure:"endpoint"`
	Region          string            `mapstructure:"region"`
	AccessKeyID     string            `mapstructure:"access_key_id"`
	SecretAccessKey string            `mapstructure:"secret_access_key"`
	AccountName     string            `mapstructure:"account_name"`
	AccountKey      string            `mapstructure:"account_key"`
	ForcePathStyle  bool              `mapstructure:"force_path_style"`
	Extra           map[string]string `mapstructure:"extra"`
}

// ProviderFactory creates Store instances for a specific provider.
type ProviderFactory interface {
	Create(ctx context.Context, config Config) (Store, error)
}
