package mediastore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessellate-ai/mediagate/pkg/objectstore"
)

// thumbnailFixture wires an engine over one fake store with a registered
// bucket, so capability derivation happens the production way.
type thumbnailFixture struct {
	bucket      *BucketConfig
	store       *memStore
	transformer *stubTransformer
	engine      *Engine
}

func newThumbnailFixture(t *testing.T, bucket *BucketConfig) *thumbnailFixture {
	t.Helper()
	newTestCatalog(t, bucket)

	store := newMemStore(bucket.Store.Bucket)
	transformer := &stubTransformer{info: ImageInfo{Width: 1600, Height: 1200, Format: "png"}}
	engine := NewEngine(newTestStores(map[string]objectstore.Store{bucket.ID: store}), transformer, nil)
	return &thumbnailFixture{bucket: bucket, store: store, transformer: transformer, engine: engine}
}

func TestGetThumbnailGeneratesAndCaches(t *testing.T) {
	f := newThumbnailFixture(t, publicBucket())
	f.store.seed("photos/cat.png", "etag-v1", []byte("png-bytes"))
	ctx := context.Background()

	req := ThumbnailRequest{Path: "photos/cat.png", Size: SizeRequest{LongestSide: 200}}

	first, err := f.engine.GetThumbnail(ctx, f.bucket, req)
	require.NoError(t, err)
	assert.True(t, first.IsNewlyGenerated)
	assert.Equal(t, "https://cdn.example.com/.thumbnails/photos/cat_longest-200.png", first.URL)
	assert.NotEmpty(t, first.ETag)
	assert.Equal(t, 1, f.transformer.calls())

	thumb := f.store.get(".thumbnails/photos/cat_longest-200.png")
	require.NotNil(t, thumb)
	assert.Equal(t, "image/png", thumb.contentType)
	assert.Equal(t, "etag-v1", thumb.userMetadata["source_etag"])
	assert.Equal(t, first.ETag, thumb.userMetadata["thumbnail_etag"])

	second, err := f.engine.GetThumbnail(ctx, f.bucket, req)
	require.NoError(t, err)
	assert.False(t, second.IsNewlyGenerated)
	assert.Equal(t, first.URL, second.URL)
	assert.Equal(t, first.ETag, second.ETag)
	assert.Equal(t, 1, f.transformer.calls(), "cache hit must not re-transform")
}

func TestGetThumbnailRegeneratesWhenSourceChanges(t *testing.T) {
	f := newThumbnailFixture(t, publicBucket())
	f.store.seed("photos/cat.png", "etag-v1", []byte("old"))
	ctx := context.Background()
	req := ThumbnailRequest{Path: "photos/cat.png", Size: SizeRequest{LongestSide: 200}}

	first, err := f.engine.GetThumbnail(ctx, f.bucket, req)
	require.NoError(t, err)

	f.store.seed("photos/cat.png", "etag-v2", []byte("new-content"))

	second, err := f.engine.GetThumbnail(ctx, f.bucket, req)
	require.NoError(t, err)
	assert.True(t, second.IsNewlyGenerated)
	assert.NotEqual(t, first.ETag, second.ETag)
	assert.Equal(t, 2, f.transformer.calls())
	assert.Equal(t, "etag-v2", f.store.get(".thumbnails/photos/cat_longest-200.png").userMetadata["source_etag"])
}

func TestGetThumbnailForceRegenerates(t *testing.T) {
	f := newThumbnailFixture(t, publicBucket())
	f.store.seed("photos/cat.png", "etag-v1", []byte("data"))
	ctx := context.Background()

	_, err := f.engine.GetThumbnail(ctx, f.bucket, ThumbnailRequest{Path: "photos/cat.png"})
	require.NoError(t, err)

	res, err := f.engine.GetThumbnail(ctx, f.bucket, ThumbnailRequest{Path: "photos/cat.png", Force: true})
	require.NoError(t, err)
	assert.True(t, res.IsNewlyGenerated)
	assert.Equal(t, 2, f.transformer.calls())
}

func TestGetThumbnailNoUpscalePassthrough(t *testing.T) {
	f := newThumbnailFixture(t, publicBucket())
	f.transformer.info = ImageInfo{Width: 160, Height: 120, Format: "png"}
	f.store.seed("small.png", "etag-small", []byte("tiny"))
	ctx := context.Background()

	res, err := f.engine.GetThumbnail(ctx, f.bucket, ThumbnailRequest{
		Path: "small.png",
		Size: SizeRequest{LongestSide: 400},
	})
	require.NoError(t, err)
	assert.False(t, res.IsNewlyGenerated)
	assert.Equal(t, "https://cdn.example.com/small.png", res.URL, "source is already small enough")
	assert.Equal(t, "etag-small", res.ETag)
	assert.Equal(t, 0, f.transformer.calls())
	assert.Nil(t, f.store.get(".thumbnails/small_longest-400.png"))
}

func TestGetThumbnailExactModeAlwaysTransforms(t *testing.T) {
	f := newThumbnailFixture(t, publicBucket())
	f.transformer.info = ImageInfo{Width: 160, Height: 120, Format: "png"}
	f.store.seed("small.png", "etag-small", []byte("tiny"))

	res, err := f.engine.GetThumbnail(context.Background(), f.bucket, ThumbnailRequest{
		Path: "small.png",
		Size: SizeRequest{Width: 400, Height: 300},
	})
	require.NoError(t, err)
	assert.True(t, res.IsNewlyGenerated)
	assert.Equal(t, 1, f.transformer.calls())
}

func TestGetThumbnailDefaultSize(t *testing.T) {
	f := newThumbnailFixture(t, publicBucket())
	f.store.seed("photos/cat.jpg", "etag-v1", []byte("jpg"))

	res, err := f.engine.GetThumbnail(context.Background(), f.bucket, ThumbnailRequest{Path: "photos/cat.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/.thumbnails/photos/cat_longest-200.jpeg", res.URL)
}

func TestGetThumbnailSourceMissing(t *testing.T) {
	f := newThumbnailFixture(t, publicBucket())

	_, err := f.engine.GetThumbnail(context.Background(), f.bucket, ThumbnailRequest{Path: "gone.png"})
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

func TestGetThumbnailInvalidSize(t *testing.T) {
	f := newThumbnailFixture(t, publicBucket())

	_, err := f.engine.GetThumbnail(context.Background(), f.bucket, ThumbnailRequest{
		Path: "a.png",
		Size: SizeRequest{Height: 100},
	})
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestGetThumbnailPrivateBucketPresigns(t *testing.T) {
	f := newThumbnailFixture(t, pathStyleBucket())
	f.store.seed("x/y.png", "etag-v1", []byte("data"))

	res, err := f.engine.GetThumbnail(context.Background(), f.bucket, ThumbnailRequest{Path: "x/y.png"})
	require.NoError(t, err)
	assert.Contains(t, res.URL, "signed.example")
	assert.Contains(t, res.URL, ".thumbnails/x/y_longest-200.png")
	assert.Equal(t, 1, f.store.presignCalls)
}

func TestGetThumbnailPresignFailure(t *testing.T) {
	f := newThumbnailFixture(t, pathStyleBucket())
	f.store.seed("x/y.png", "etag-v1", []byte("data"))
	f.store.presignErr = errors.New("sts unavailable")

	_, err := f.engine.GetThumbnail(context.Background(), f.bucket, ThumbnailRequest{Path: "x/y.png"})
	assert.ErrorIs(t, err, ErrPresignFailed)
}

func TestGetThumbnailDelegatesToProviderResize(t *testing.T) {
	bucket := ossBucket()
	newTestCatalog(t, bucket)

	// No store and no transformer back the engine: the delegated path must
	// not touch either.
	engine := NewEngine(newTestStores(nil), nil, nil)

	res, err := engine.GetThumbnail(context.Background(), bucket, ThumbnailRequest{
		Path: "photos/cat.png",
		Size: SizeRequest{LongestSide: 300},
	})
	require.NoError(t, err)
	assert.False(t, res.IsNewlyGenerated)
	assert.Equal(t,
		"https://oss-media.oss-cn-hangzhou.aliyuncs.com/photos/cat.png?x-oss-process=image/resize,l_300",
		res.URL)
}

func TestClearThumbnailCache(t *testing.T) {
	f := newThumbnailFixture(t, publicBucket())
	f.store.seed("photos/cat.png", "etag-v1", []byte("data"))
	ctx := context.Background()

	_, err := f.engine.GetThumbnail(ctx, f.bucket, ThumbnailRequest{Path: "photos/cat.png", Size: SizeRequest{LongestSide: 200}})
	require.NoError(t, err)
	_, err = f.engine.GetThumbnail(ctx, f.bucket, ThumbnailRequest{Path: "photos/cat.png", Size: SizeRequest{Width: 64, Height: 64}})
	require.NoError(t, err)

	require.NoError(t, f.engine.ClearThumbnailCache(ctx, f.bucket, "photos/cat.png"))
	assert.Nil(t, f.store.get(".thumbnails/photos/cat_longest-200.png"))
	assert.Nil(t, f.store.get(".thumbnails/photos/cat_64x64.png"))
	assert.NotNil(t, f.store.get("photos/cat.png"), "source object is untouched")
}

func TestClearThumbnailCacheContinuesPastFailures(t *testing.T) {
	f := newThumbnailFixture(t, publicBucket())
	f.store.seed("photos/cat.png", "etag-v1", []byte("data"))
	ctx := context.Background()

	_, err := f.engine.GetThumbnail(ctx, f.bucket, ThumbnailRequest{Path: "photos/cat.png", Size: SizeRequest{LongestSide: 200}})
	require.NoError(t, err)
	_, err = f.engine.GetThumbnail(ctx, f.bucket, ThumbnailRequest{Path: "photos/cat.png", Size: SizeRequest{LongestSide: 400}})
	require.NoError(t, err)

	f.store.deleteErr = map[string]error{
		".thumbnails/photos/cat_longest-200.png": errors.New("transient"),
	}

	err = f.engine.ClearThumbnailCache(ctx, f.bucket, "photos/cat.png")
	assert.Error(t, err, "aggregate error reports the failed delete")
	assert.Nil(t, f.store.get(".thumbnails/photos/cat_longest-400.png"), "other thumbnails were still deleted")
}
