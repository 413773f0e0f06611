package mediastore

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/singleflight"

	"github.com/tessellate-ai/mediagate/pkg/logging"
	"github.com/tessellate-ai/mediagate/pkg/objectstore"
)

// DefaultQuality is the encoder quality used for generated thumbnails.
const DefaultQuality = 80

// DefaultPresignExpiry is the fixed expiry of presigned thumbnail URLs for
// private buckets, independent of any thumbnail-size-specific TTL.
const DefaultPresignExpiry = 72 * time.Hour

// thumbnailETagMetaKeys mirror sourceETagMetaKeys for the thumbnail's own
// stored token.
var thumbnailETagMetaKeys = []string{"thumbnail-etag", "thumbnail_etag", "thumbnailetag", "thumbnailEtag"}

// ThumbnailRequest asks for a thumbnail of one stored object.
type ThumbnailRequest struct {
	// Path is the object path of the source image within the bucket.
	Path string

	// Size carries the raw size inputs; see ResolveSize.
	Size SizeRequest

	// Force regenerates the thumbnail even when a fresh cached one exists.
	Force bool
}

// ThumbnailResult is a servable thumbnail URL plus its freshness token.
type ThumbnailResult struct {
	URL              string
	ETag             string
	IsNewlyGenerated bool
}

// EngineOption configures the thumbnail engine.
type EngineOption func(*Engine)

// WithQuality overrides the encoder quality.
func WithQuality(quality int) EngineOption {
	return func(e *Engine) {
		if quality > 0 {
			e.quality = quality
		}
	}
}

// WithPresignExpiry overrides the private-bucket thumbnail URL expiry.
func WithPresignExpiry(expiry time.Duration) EngineOption {
	return func(e *Engine) {
		if expiry > 0 {
			e.presignExpiry = expiry
		}
	}
}

// Engine produces and caches resized image thumbnails inside the source's
// own bucket, validating cache freshness against the source object's ETag.
type Engine struct {
	stores        *objectstore.Cache
	transformer   ImageTransformer
	logger        logging.Interface
	quality       int
	presignExpiry time.Duration

	// group collapses concurrent generations of the same thumbnail key so
	// the source is read and transformed at most once per flight.
	group singleflight.Group
}

// NewEngine creates a thumbnail engine.
func NewEngine(stores *objectstore.Cache, transformer ImageTransformer, logger logging.Interface, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = logging.Discard()
	}
	e := &Engine{
		stores:        stores,
		transformer:   transformer,
		logger:        logger,
		quality:       DefaultQuality,
		presignExpiry: DefaultPresignExpiry,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GetThumbnail returns a servable URL for a thumbnail of the object at
// req.Path, generating and caching it when no fresh cached copy exists.
//
// Buckets whose provider supports URL-delegated resizing short-circuit to a
// constructed transform URL: no bytes are read and freshness is the
// provider's problem.
func (e *Engine) GetThumbnail(ctx context.Context, bucket *BucketConfig, req ThumbnailRequest) (*ThumbnailResult, error) {
	size, err := ResolveSize(req.Size)
	if err != nil {
		return nil, err
	}

	if caps := bucket.Capabilities(); caps != nil && caps.SupportsURLResize() {
		resizeURL, err := caps.BuildResizeURL(bucket, req.Path, size)
		if err != nil {
			return nil, err
		}
		return &ThumbnailResult{URL: resizeURL, IsNewlyGenerated: false}, nil
	}

	store, err := e.stores.GetOrCreate(ctx, bucket.ID, bucket.Store)
	if err != nil {
		return nil, err
	}

	flightKey := fmt.Sprintf("%s|%s|%s|%t", bucket.ID, req.Path, size.Descriptor(), req.Force)
	result, err, _ := e.group.Do(flightKey, func() (interface{}, error) {
		return e.generateOrReuse(ctx, bucket, store, req.Path, size, req.Force)
	})
	if err != nil {
		return nil, err
	}
	return result.(*ThumbnailResult), nil
}

func (e *Engine) generateOrReuse(ctx context.Context, bucket *BucketConfig, store objectstore.Store, sourcePath string, size Size, force bool) (*ThumbnailResult, error) {
	format := DetermineTargetFormat(sourcePath)
	thumbKey := ThumbnailKey(sourcePath, size, bucket.EffectiveThumbnailPrefix(), format.Extension)

	sourceMD, err := store.Stat(ctx, sourcePath)
	if err != nil {
		if objectstore.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, sourcePath)
		}
		return nil, err
	}
	sourceETag := FreshnessToken(sourceMD)

	if !force {
		if cached := e.lookupFreshCache(ctx, store, thumbKey, sourceETag, size); cached != nil {
			url, err := e.accessURL(ctx, store, bucket, thumbKey)
			if err != nil {
				return nil, err
			}
			return &ThumbnailResult{URL: url, ETag: cached.etag, IsNewlyGenerated: false}, nil
		}
	}

	data, err := store.Read(ctx, sourcePath)
	if err != nil {
		if objectstore.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, sourcePath)
		}
		return nil, err
	}

	// Serving the source itself beats upscaling: a longest-edge request
	// already satisfied by the source's dimensions stores no copy.
	if size.Mode == ModeLongestEdge {
		info, err := e.transformer.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("decode source image %s: %w", sourcePath, err)
		}
		if info.LongerEdge() <= size.LongestSide {
			url, err := e.accessURL(ctx, store, bucket, sourcePath)
			if err != nil {
				return nil, err
			}
			return &ThumbnailResult{URL: url, ETag: sourceETag, IsNewlyGenerated: false}, nil
		}
	}

	out, err := e.transformer.Transform(data, size, format.Format, e.quality)
	if err != nil {
		return nil, fmt.Errorf("transform %s: %w", sourcePath, err)
	}

	thumbETag := ThumbnailETag(sourceETag, size, len(out))
	err = store.Write(ctx, thumbKey, out,
		objectstore.WithContentType(format.ContentType),
		objectstore.WithUserMetadata(map[string]string{
			"thumbnail_etag": thumbETag,
			"source_etag":    sourceETag,
		}),
	)
	if err != nil {
		return nil, err
	}

	e.logger.WithField("bucket", bucket.ID).
		WithField("source", sourcePath).
		WithField("thumbnail", thumbKey).
		WithField("bytes", len(out)).
		Debug("Generated thumbnail")

	url, err := e.accessURL(ctx, store, bucket, thumbKey)
	if err != nil {
		return nil, err
	}
	return &ThumbnailResult{URL: url, ETag: thumbETag, IsNewlyGenerated: true}, nil
}

type cachedThumbnail struct {
	etag string
}

// lookupFreshCache stats the thumbnail key and decides whether the cached
// object is still valid for the current source token. Stat errors mean "no
// usable cache"; regeneration will surface any real store problem.
func (e *Engine) lookupFreshCache(ctx context.Context, store objectstore.Store, thumbKey, sourceETag string, size Size) *cachedThumbnail {
	md, err := store.Stat(ctx, thumbKey)
	if err != nil {
		return nil
	}

	valid := metadataFreshnessMatch(md, sourceETag) ||
		isLegacyFreshnessHeuristicMatch(FreshnessToken(md), sourceETag)
	if !valid {
		return nil
	}

	etag := ""
	for _, key := range thumbnailETagMetaKeys {
		if v := md.UserMetadata[key]; v != "" {
			etag = v
			break
		}
	}
	if etag == "" {
		etag = ThumbnailETag(sourceETag, size, int(md.Size))
	}
	return &cachedThumbnail{etag: etag}
}

func (e *Engine) accessURL(ctx context.Context, store objectstore.Store, bucket *BucketConfig, key string) (string, error) {
	if bucket.Public {
		return bucket.PublicURL(key)
	}
	signed, err := store.PresignRead(ctx, key, e.presignExpiry)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPresignFailed, err)
	}
	return signed.URL, nil
}

// ClearThumbnailCache deletes every cached thumbnail derived from
// sourcePath. Cleanup is best-effort: individual delete failures are logged
// and do not stop the remaining deletions; the aggregate error is returned.
func (e *Engine) ClearThumbnailCache(ctx context.Context, bucket *BucketConfig, sourcePath string) error {
	store, err := e.stores.GetOrCreate(ctx, bucket.ID, bucket.Store)
	if err != nil {
		return err
	}

	prefix := ThumbnailKeyPrefix(sourcePath, bucket.EffectiveThumbnailPrefix())
	keys, err := store.ListByPrefix(ctx, prefix)
	if err != nil {
		return err
	}

	var result *multierror.Error
	for _, key := range keys {
		if err := store.Delete(ctx, key); err != nil {
			e.logger.WithError(err).
				WithField("bucket", bucket.ID).
				WithField("thumbnail", key).
				Warn("Failed to delete cached thumbnail")
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
