package mediastore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tessellate-ai/mediagate/pkg/logging"
	"github.com/tessellate-ai/mediagate/pkg/objectstore"
)

// memObject is one stored object in the in-memory test store.
type memObject struct {
	data         []byte
	contentType  string
	userMetadata map[string]string
	etag         string
	versionID    string
	modified     time.Time
}

// memStore is an in-memory objectstore.Store used across the package tests.
// Writes get no ETag unless the test sets one, which exercises the
// freshness-token fallbacks.
type memStore struct {
	mu       sync.Mutex
	provider objectstore.Provider
	bucket   string
	objects  map[string]*memObject

	statCalls    int
	readCalls    int
	writeCalls   int
	presignCalls int
	deleteCalls  int

	presignErr error
	deleteErr  map[string]error
}

func newMemStore(bucket string) *memStore {
	return &memStore{
		provider: objectstore.ProviderS3,
		bucket:   bucket,
		objects:  make(map[string]*memObject),
	}
}

// seed installs an object with an explicit ETag.
func (s *memStore) seed(key, etag string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = &memObject{data: data, etag: etag, modified: time.Now()}
}

func (s *memStore) get(key string) *memObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[key]
}

func (s *memStore) Provider() objectstore.Provider { return s.provider }
func (s *memStore) Bucket() string                 { return s.bucket }

func (s *memStore) Read(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readCalls++
	obj, ok := s.objects[key]
	if !ok {
		return nil, objectstore.NewError("read", s.provider, s.bucket, key, objectstore.ErrNotFound)
	}
	return obj.data, nil
}

func (s *memStore) Write(ctx context.Context, key string, data []byte, opts ...objectstore.WriteOption) error {
	options := objectstore.ApplyWriteOptions(opts)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeCalls++
	s.objects[key] = &memObject{
		data:         data,
		contentType:  options.ContentType,
		userMetadata: options.UserMetadata,
		modified:     time.Now(),
	}
	return nil
}

func (s *memStore) Stat(ctx context.Context, key string) (*objectstore.Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statCalls++
	obj, ok := s.objects[key]
	if !ok {
		return nil, objectstore.NewError("stat", s.provider, s.bucket, key, objectstore.ErrNotFound)
	}
	meta := make(map[string]string, len(obj.userMetadata))
	for k, v := range obj.userMetadata {
		meta[k] = v
	}
	return &objectstore.Metadata{
		Key:          key,
		Size:         int64(len(obj.data)),
		ContentType:  obj.contentType,
		ETag:         obj.etag,
		VersionID:    obj.versionID,
		LastModified: obj.modified,
		UserMetadata: meta,
	}, nil
}

func (s *memStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls++
	if err, ok := s.deleteErr[key]; ok {
		return err
	}
	delete(s.objects, key)
	return nil
}

func (s *memStore) ListByPrefix(ctx context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *memStore) PresignRead(ctx context.Context, key string, expiry time.Duration) (*objectstore.PresignedRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presignCalls++
	if s.presignErr != nil {
		return nil, s.presignErr
	}
	url := fmt.Sprintf("https://%s.signed.example/%s?sig=%d&exp=%d", s.bucket, key, s.presignCalls, int64(expiry.Seconds()))
	return &objectstore.PresignedRequest{URL: url, Method: "GET"}, nil
}

func (s *memStore) PresignWrite(ctx context.Context, key string, expiry time.Duration) (*objectstore.PresignedRequest, error) {
	return &objectstore.PresignedRequest{
		URL:    fmt.Sprintf("https://%s.signed.example/%s?write=1", s.bucket, key),
		Method: "PUT",
	}, nil
}

// newTestStores wraps pre-built fakes in a store cache.
func newTestStores(stores map[string]objectstore.Store) *objectstore.Cache {
	cache := objectstore.NewCache(objectstore.NewFactory(logging.Discard()))
	for id, store := range stores {
		cache.Put(id, store)
	}
	return cache
}

// stubTransformer is a deterministic ImageTransformer: output encodes the
// requested size, format and quality so tests can assert what was asked for.
type stubTransformer struct {
	mu             sync.Mutex
	info           ImageInfo
	decodeErr      error
	transformCalls int
}

func (t *stubTransformer) Decode(data []byte) (ImageInfo, error) {
	if t.decodeErr != nil {
		return ImageInfo{}, t.decodeErr
	}
	return t.info, nil
}

func (t *stubTransformer) Transform(data []byte, size Size, format ImageFormat, quality int) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.transformCalls++
	return []byte(fmt.Sprintf("thumb|%s|%s|q%d|%d", size.Descriptor(), format, quality, len(data))), nil
}

func (t *stubTransformer) calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transformCalls
}
