package oss

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	aliyun "github.com/aliyun/aliyun-oss-go-sdk/oss"

	"github.com/tessellate-ai/mediagate/pkg/logging"
	"github.com/tessellate-ai/mediagate/pkg/objectstore"
)

const userMetaHeaderPrefix = "X-Oss-Meta-"

// Store implements objectstore.Store for Alibaba Cloud OSS.
type Store struct {
	bucket *aliyun.Bucket
	name   string
	logger logging.Interface
}

// New creates a Store bound to config.Bucket.
func New(config objectstore.Config, logger logging.Interface) (*Store, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("%w: oss requires an endpoint", objectstore.ErrInvalidConfig)
	}
	if config.AccessKeyID == "" || config.SecretAccessKey == "" {
		return nil, fmt.Errorf("%w: oss requires access_key_id and secret_access_key", objectstore.ErrInvalidConfig)
	}

	client, err := aliyun.New(config.Endpoint, config.AccessKeyID, config.SecretAccessKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create oss client: %w", err)
	}
	bucket, err := client.Bucket(config.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to open oss bucket %s: %w", config.Bucket, err)
	}

	return &Store{bucket: bucket, name: config.Bucket, logger: logger}, nil
}

// Provider returns the storage provider type.
func (s *Store) Provider() objectstore.Provider { return objectstore.ProviderOSS }

// Bucket returns the bucket this store is bound to.
func (s *Store) Bucket() string { return s.name }

// Read retrieves the full object body.
func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	body, err := s.bucket.GetObject(key)
	if err != nil {
		return nil, s.wrap("read", key, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, s.wrap("read", key, err)
	}
	return data, nil
}

// Write stores data under key.
func (s *Store) Write(ctx context.Context, key string, data []byte, opts ...objectstore.WriteOption) error {
	o := objectstore.ApplyWriteOptions(opts)

	var options []aliyun.Option
	if o.ContentType != "" {
		options = append(options, aliyun.ContentType(o.ContentType))
	}
	for k, v := range o.UserMetadata {
		options = append(options, aliyun.Meta(k, v))
	}

	if err := s.bucket.PutObject(key, bytes.NewReader(data), options...); err != nil {
		return s.wrap("write", key, err)
	}
	return nil
}

// Stat retrieves object metadata. OSS surfaces it as response headers.
func (s *Store) Stat(ctx context.Context, key string) (*objectstore.Metadata, error) {
	header, err := s.bucket.GetObjectDetailedMeta(key)
	if err != nil {
		return nil, s.wrap("stat", key, err)
	}
	return metadataFromHeader(key, header), nil
}

// Delete removes the object.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return objectstore.ErrInvalidKey
	}
	if err := s.bucket.DeleteObject(key); err != nil {
		return s.wrap("delete", key, err)
	}
	return nil
}

// ListByPrefix returns the keys of all objects under prefix.
func (s *Store) ListByPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	marker := ""
	for {
		result, err := s.bucket.ListObjects(aliyun.Prefix(prefix), aliyun.Marker(marker))
		if err != nil {
			return nil, s.wrap("list", prefix, err)
		}
		for _, obj := range result.Objects {
			keys = append(keys, obj.Key)
		}
		if !result.IsTruncated {
			break
		}
		marker = result.NextMarker
	}
	return keys, nil
}

// PresignRead issues a signed GET URL for key.
func (s *Store) PresignRead(ctx context.Context, key string, expiry time.Duration) (*objectstore.PresignedRequest, error) {
	signed, err := s.bucket.SignURL(key, aliyun.HTTPGet, int64(expiry.Seconds()))
	if err != nil {
		return nil, s.wrap("presign-read", key, err)
	}
	return &objectstore.PresignedRequest{URL: signed, Method: http.MethodGet}, nil
}

// PresignWrite issues a signed PUT URL for key.
func (s *Store) PresignWrite(ctx context.Context, key string, expiry time.Duration) (*objectstore.PresignedRequest, error) {
	signed, err := s.bucket.SignURL(key, aliyun.HTTPPut, int64(expiry.Seconds()))
	if err != nil {
		return nil, s.wrap("presign-write", key, err)
	}
	return &objectstore.PresignedRequest{URL: signed, Method: http.MethodPut}, nil
}

func (s *Store) wrap(op, key string, err error) error {
	if isNotFoundError(err) {
		err = objectstore.ErrNotFound
	}
	return objectstore.NewError(op, objectstore.ProviderOSS, s.name, key, err)
}

func metadataFromHeader(key string, header http.Header) *objectstore.Metadata {
	md := &objectstore.Metadata{
		Key:         key,
		ContentType: header.Get("Content-Type"),
		ETag:        strings.Trim(header.Get("Etag"), "\""),
		VersionID:   header.Get("x-oss-version-id"),
	}
	if v := header.Get("Content-Length"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil {
			md.Size = size
		}
	}
	if v := header.Get("Last-Modified"); v != "" {
		if t, err := http.ParseTime(v); err == nil {
			md.LastModified = t
		}
	}
	for name, values := range header {
		if strings.HasPrefix(name, userMetaHeaderPrefix) && len(values) > 0 {
			if md.UserMetadata == nil {
				md.UserMetadata = make(map[string]string)
			}
			md.UserMetadata[strings.ToLower(strings.TrimPrefix(name, userMetaHeaderPrefix))] = values[0]
		}
	}
	return md
}

func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var serviceErr aliyun.ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.StatusCode == http.StatusNotFound
	}
	return false
}
