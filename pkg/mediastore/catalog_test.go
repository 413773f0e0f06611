package mediastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessellate-ai/mediagate/pkg/objectstore"
)

func newTestCatalog(t *testing.T, buckets ...*BucketConfig) *Catalog {
	t.Helper()
	catalog := NewCatalog(NewCapabilityResolver(), nil)
	for _, b := range buckets {
		require.NoError(t, catalog.Register(b))
	}
	return catalog
}

func publicBucket() *BucketConfig {
	return &BucketConfig{
		ID:     "media-public",
		Store:  objectstore.Config{Provider: objectstore.ProviderS3, Bucket: "media-public"},
		Public: true,
		URLPatterns: []URLPattern{
			{ID: "cdn", Hostname: "cdn.example.com", Kind: PatternBucketHostname, Preferred: true},
			{ID: "direct", Hostname: "media-public.s3.amazonaws.com", Kind: PatternBucketHostname},
		},
	}
}

func pathStyleBucket() *BucketConfig {
	return &BucketConfig{
		ID:    "media-private",
		Store: objectstore.Config{Provider: objectstore.ProviderS3, Bucket: "b1"},
		URLPatterns: []URLPattern{
			{ID: "path", Hostname: "storage.example.com", Kind: PatternProviderHostname, BucketSegment: "b1", Preferred: true},
		},
	}
}

func TestCatalogResolve(t *testing.T) {
	catalog := newTestCatalog(t, publicBucket(), pathStyleBucket())

	testCases := []struct {
		name          string
		url           string
		wantBucket    string
		wantPath      string
		wantPatternID string
		wantErr       error
	}{
		{
			name:          "bucket hostname",
			url:           "https://cdn.example.com/photos/cat.png",
			wantBucket:    "media-public",
			wantPath:      "photos/cat.png",
			wantPatternID: "cdn",
		},
		{
			name:          "hostname matching is case insensitive",
			url:           "https://CDN.Example.COM/photos/cat.png",
			wantBucket:    "media-public",
			wantPath:      "photos/cat.png",
			wantPatternID: "cdn",
		},
		{
			name:          "second pattern of same bucket",
			url:           "https://media-public.s3.amazonaws.com/a/b.jpg",
			wantBucket:    "media-public",
			wantPath:      "a/b.jpg",
			wantPatternID: "direct",
		},
		{
			name:          "provider hostname strips bucket segment",
			url:           "https://storage.example.com/b1/x/y.png",
			wantBucket:    "media-private",
			wantPath:      "x/y.png",
			wantPatternID: "path",
		},
		{
			name:          "provider hostname bare segment resolves to bucket root",
			url:           "https://storage.example.com/b1",
			wantBucket:    "media-private",
			wantPath:      "",
			wantPatternID: "path",
		},
		{
			name:    "segment boundary is respected",
			url:     "https://storage.example.com/b1other/x.png",
			wantErr: ErrBucketNotRegistered,
		},
		{
			name:    "unknown hostname",
			url:     "https://elsewhere.example.com/x.png",
			wantErr: ErrBucketNotRegistered,
		},
		{
			name:    "empty url",
			url:     "",
			wantErr: ErrMissingURLParam,
		},
		{
			name:    "url without host",
			url:     "/relative/path.png",
			wantErr: ErrInvalidURL,
		},
		{
			name:    "garbage url",
			url:     "://nope",
			wantErr: ErrInvalidURL,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := catalog.Resolve(tc.url)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantBucket, res.Bucket.ID)
			assert.Equal(t, tc.wantPath, res.ObjectPath)
			assert.Equal(t, tc.wantPatternID, res.MatchedPatternID)
		})
	}
}

func TestCatalogResolveFirstMatchWins(t *testing.T) {
	first := publicBucket()
	second := &BucketConfig{
		ID:    "shadow",
		Store: objectstore.Config{Provider: objectstore.ProviderS3, Bucket: "shadow"},
		URLPatterns: []URLPattern{
			{ID: "shadow-cdn", Hostname: "cdn.example.com", Kind: PatternBucketHostname},
		},
	}
	catalog := newTestCatalog(t, first, second)

	res, err := catalog.Resolve("https://cdn.example.com/x.png")
	require.NoError(t, err)
	assert.Equal(t, "media-public", res.Bucket.ID)
}

func TestCatalogRegisterValidation(t *testing.T) {
	catalog := NewCatalog(NewCapabilityResolver(), nil)

	t.Run("missing id", func(t *testing.T) {
		err := catalog.Register(&BucketConfig{})
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("pattern without hostname", func(t *testing.T) {
		err := catalog.Register(&BucketConfig{
			ID:          "b",
			URLPatterns: []URLPattern{{ID: "p"}},
		})
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("provider hostname needs bucket segment", func(t *testing.T) {
		err := catalog.Register(&BucketConfig{
			ID:          "b",
			URLPatterns: []URLPattern{{ID: "p", Hostname: "h.example.com", Kind: PatternProviderHostname}},
		})
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("at most one preferred pattern", func(t *testing.T) {
		err := catalog.Register(&BucketConfig{
			ID: "b",
			URLPatterns: []URLPattern{
				{ID: "p1", Hostname: "a.example.com", Preferred: true},
				{ID: "p2", Hostname: "b.example.com", Preferred: true},
			},
		})
		assert.ErrorIs(t, err, ErrConfiguration)
	})
}

func TestPublicURL(t *testing.T) {
	t.Run("bucket hostname pattern", func(t *testing.T) {
		b := publicBucket()
		url, err := b.PublicURL("photos/cat.png")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/photos/cat.png", url)
	})

	t.Run("provider hostname pattern prepends bucket segment", func(t *testing.T) {
		b := pathStyleBucket()
		url, err := b.PublicURL("x/y.png")
		require.NoError(t, err)
		assert.Equal(t, "https://storage.example.com/b1/x/y.png", url)
	})

	t.Run("preferred pattern id overrides flag", func(t *testing.T) {
		b := publicBucket()
		b.PreferredPatternID = "direct"
		url, err := b.PublicURL("a.png")
		require.NoError(t, err)
		assert.Equal(t, "https://media-public.s3.amazonaws.com/a.png", url)
	})

	t.Run("no preferred pattern is a configuration error", func(t *testing.T) {
		b := &BucketConfig{
			ID:          "b",
			URLPatterns: []URLPattern{{ID: "p", Hostname: "h.example.com"}},
		}
		_, err := b.PublicURL("a.png")
		assert.ErrorIs(t, err, ErrConfiguration)
	})
}
