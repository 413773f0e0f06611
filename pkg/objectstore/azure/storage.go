package azure

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"

	"github.com/tessellate-ai/mediagate/pkg/logging"
	"github.com/tessellate-ai/mediagate/pkg/objectstore"
)

// blockBlobTypeHeader must accompany presigned block blob uploads; clients
// that omit it get a 400 from the service.
const blockBlobTypeHeader = "x-ms-blob-type"

// Store implements objectstore.Store for Azure Blob Storage. The "bucket"
// maps to a blob container.
type Store struct {
	client    *azblob.Client
	container string
	logger    logging.Interface
}

// New creates a Store bound to the configured container using shared-key
// credentials (required for SAS presigning).
func New(config objectstore.Config, logger logging.Interface) (*Store, error) {
	if config.AccountName == "" || config.AccountKey == "" {
		return nil, fmt.Errorf("%w: azure requires account_name and account_key", objectstore.ErrInvalidConfig)
	}

	cred, err := azblob.NewSharedKeyCredential(config.AccountName, config.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure credential: %w", err)
	}

	serviceURL := config.Endpoint
	if serviceURL == "" {
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net/", config.AccountName)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure client: %w", err)
	}

	return &Store{client: client, container: config.Bucket, logger: logger}, nil
}

// Provider returns the storage provider type.
func (s *Store) Provider() objectstore.Provider { return objectstore.ProviderAzure }

// Bucket returns the container this store is bound to.
func (s *Store) Bucket() string { return s.container }

// Read retrieves the full blob body.
func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, key, nil)
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

// Write uploads data as a block blob.
func (s *Store) Write(ctx context.Context, key string, data []byte, opts ...objectstore.WriteOption) error {
	o := objectstore.ApplyWriteOptions(opts)

	options := &azblob.UploadBufferOptions{}
	if o.ContentType != "" {
		contentType := o.ContentType
		options.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: &contentType}
	}
	if o.UserMetadata != nil {
		options.Metadata = toPointerMap(o.UserMetadata)
	}

	if _, err := s.client.UploadBuffer(ctx, s.container, key, data, options); err != nil {
		return s.wrap("write", key, err)
	}
	return nil
}

// Stat retrieves blob properties.
func (s *Store) Stat(ctx context.Context, key string) (*objectstore.Metadata, error) {
	resp, err := s.blobClient(key).GetProperties(ctx, nil)
	if err != nil {
		return nil, s.wrap("stat", key, err)
	}

	md := &objectstore.Metadata{
		Key:          key,
		UserMetadata: fromPointerMap(resp.Metadata),
	}
	if resp.ContentLength != nil {
		md.Size = *resp.ContentLength
	}
	if resp.ContentType != nil {
		md.ContentType = *resp.ContentType
	}
	if resp.ETag != nil {
		md.ETag = string(*resp.ETag)
	}
	if resp.VersionID != nil {
		md.VersionID = *resp.VersionID
	}
	if resp.LastModified != nil {
		md.LastModified = *resp.LastModified
	}
	return md, nil
}

// Delete removes the blob.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return objectstore.ErrInvalidKey
	}
	if _, err := s.client.DeleteBlob(ctx, s.container, key, nil); err != nil {
		return s.wrap("delete", key, err)
	}
	return nil
}

// ListByPrefix returns the names of all blobs under prefix.
func (s *Store) ListByPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	pager := s.client.NewListBlobsFlatPager(s.container, &azblob.ListBlobsFlatOptions{Prefix: &prefix})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, s.wrap("list", prefix, err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				keys = append(keys, *item.Name)
			}
		}
	}
	return keys, nil
}

// PresignRead issues a read SAS URL for key.
func (s *Store) PresignRead(ctx context.Context, key string, expiry time.Duration) (*objectstore.PresignedRequest, error) {
	signed, err := s.blobClient(key).GetSASURL(
		sas.BlobPermissions{Read: true},
		time.Now().UTC().Add(expiry),
		nil,
	)
	if err != nil {
		return nil, s.wrap("presign-read", key, err)
	}
	return &objectstore.PresignedRequest{URL: signed, Method: http.MethodGet}, nil
}

// PresignWrite issues a write SAS URL for key. The caller must send the
// block blob type header, so it is returned as part of the request.
func (s *Store) PresignWrite(ctx context.Context, key string, expiry time.Duration) (*objectstore.PresignedRequest, error) {
	signed, err := s.blobClient(key).GetSASURL(
		sas.BlobPermissions{Create: true, Write: true},
		time.Now().UTC().Add(expiry),
		nil,
	)
	if err != nil {
		return nil, s.wrap("presign-write", key, err)
	}
	return &objectstore.PresignedRequest{
		URL:     signed,
		Method:  http.MethodPut,
		Headers: map[string]string{blockBlobTypeHeader: "BlockBlob"},
	}, nil
}

func (s *Store) blobClient(key string) *blob.Client {
	return s.client.ServiceClient().NewContainerClient(s.container).NewBlobClient(key)
}

func (s *Store) wrap(op, key string, err error) error {
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		err = objectstore.ErrNotFound
	}
	return objectstore.NewError(op, objectstore.ProviderAzure, s.container, key, err)
}

func toPointerMap(m map[string]string) map[string]*string {
	out := make(map[string]*string, len(m))
	for k, v := range m {
		value := v
		out[k] = &value
	}
	return out
}

// fromPointerMap flattens azblob metadata. The service canonicalizes
// metadata names (source_etag comes back as Source_etag), so keys are
// lowercased to match what callers wrote.
func fromPointerMap(m map[string]*string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if v != nil {
			out[strings.ToLower(k)] = *v
		}
	}
	return out
}
