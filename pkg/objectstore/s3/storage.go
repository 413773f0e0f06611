package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/tessellate-ai/mediagate/pkg/logging"
	"github.com/tessellate-ai/mediagate/pkg/objectstore"
)

// Store implements objectstore.Store for any S3-compatible backend.
type Store struct {
	client        *awss3.Client
	presignClient *awss3.PresignClient
	bucket        string
	logger        logging.Interface
}

// New creates a Store bound to config.Bucket.
func New(ctx context.Context, config objectstore.Config, logger logging.Interface) (*Store, error) {
	if config.AccessKeyID == "" || config.SecretAccessKey == "" {
		return nil, fmt.Errorf("%w: s3 requires access_key_id and secret_access_key", objectstore.ErrInvalidConfig)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(config.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
		}
		o.UsePathStyle = config.ForcePathStyle
	})

	return &Store{
		client:        client,
		presignClient: awss3.NewPresignClient(client),
		bucket:        config.Bucket,
		logger:        logger,
	}, nil
}

// Provider returns the storage provider type.
func (s *Store) Provider() objectstore.Provider { return objectstore.ProviderS3 }

// Bucket returns the bucket this store is bound to.
func (s *Store) Bucket() string { return s.bucket }

// Read retrieves the full object body.
func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s.wrap("read", key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, s.wrap("read", key, err)
	}
	return data, nil
}

// Write stores data under key.
func (s *Store) Write(ctx context.Context, key string, data []byte, opts ...objectstore.WriteOption) error {
	o := objectstore.ApplyWriteOptions(opts)

	input := &awss3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if o.ContentType != "" {
		input.ContentType = aws.String(o.ContentType)
	}
	if o.UserMetadata != nil {
		input.Metadata = o.UserMetadata
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return s.wrap("write", key, err)
	}
	return nil
}

// Stat retrieves object metadata via HeadObject.
func (s *Store) Stat(ctx context.Context, key string) (*objectstore.Metadata, error) {
	resp, err := s.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s.wrap("stat", key, err)
	}

	md := &objectstore.Metadata{
		Key:          key,
		UserMetadata: resp.Metadata,
	}
	if resp.ContentLength != nil {
		md.Size = *resp.ContentLength
	}
	if resp.ContentType != nil {
		md.ContentType = *resp.ContentType
	}
	if resp.ETag != nil {
		md.ETag = strings.Trim(*resp.ETag, "\"")
	}
	if resp.VersionId != nil {
		md.VersionID = *resp.VersionId
	}
	if resp.LastModified != nil {
		md.LastModified = *resp.LastModified
	}
	return md, nil
}

// Delete removes the object.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return objectstore.ErrInvalidKey
	}
	if _, err := s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return s.wrap("delete", key, err)
	}
	return nil
}

// ListByPrefix returns the keys of all objects under prefix.
func (s *Store) ListByPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	paginator := awss3.NewListObjectsV2Paginator(s.client, &awss3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		resp, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, s.wrap("list", prefix, err)
		}
		for _, obj := range resp.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// PresignRead issues a presigned GET for key.
func (s *Store) PresignRead(ctx context.Context, key string, expiry time.Duration) (*objectstore.PresignedRequest, error) {
	req, err := s.presignClient.PresignGetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, awss3.WithPresignExpires(expiry))
	if err != nil {
		return nil, s.wrap("presign-read", key, err)
	}
	return &objectstore.PresignedRequest{
		URL:     req.URL,
		Method:  req.Method,
		Headers: flattenHeader(req.SignedHeader),
	}, nil
}

// PresignWrite issues a presigned PUT for key.
func (s *Store) PresignWrite(ctx context.Context, key string, expiry time.Duration) (*objectstore.PresignedRequest, error) {
	req, err := s.presignClient.PresignPutObject(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, awss3.WithPresignExpires(expiry))
	if err != nil {
		return nil, s.wrap("presign-write", key, err)
	}
	return &objectstore.PresignedRequest{
		URL:     req.URL,
		Method:  req.Method,
		Headers: flattenHeader(req.SignedHeader),
	}, nil
}

func (s *Store) wrap(op, key string, err error) error {
	if isNotFoundError(err) {
		err = objectstore.ErrNotFound
	}
	return objectstore.NewError(op, objectstore.ProviderS3, s.bucket, key, err)
}

func flattenHeader(h map[string][]string) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return true
	}
	// HeadObject surfaces bare 404s without a modeled type on some
	// S3-compatible endpoints.
	return strings.Contains(err.Error(), "NoSuchKey") ||
		strings.Contains(err.Error(), "NotFound") ||
		strings.Contains(err.Error(), "404")
}
