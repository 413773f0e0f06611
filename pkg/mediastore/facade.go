package mediastore

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/tessellate-ai/mediagate/pkg/logging"
)

// refreshThreshold is the fraction of a signed URL's validity that must
// remain for RefreshSignedURL to leave it alone.
const refreshThreshold = 0.30

// GatewayThumbnailRequest asks for a thumbnail of the object addressed by a
// public or storage URL.
type GatewayThumbnailRequest struct {
	URL   string
	Size  SizeRequest
	Force bool
}

// ThumbnailWithMeta extends ThumbnailResult with the resolution that
// produced it. ShouldRedirect is set when the URL points at a provider
// transform endpoint rather than a stored object, so HTTP callers redirect
// instead of proxying.
type ThumbnailWithMeta struct {
	ThumbnailResult
	BucketID         string
	MatchedPatternID string
	ShouldRedirect   bool
}

// RefreshResult reports whether a signed URL was re-signed.
type RefreshResult struct {
	Refreshed bool
	URL       string
}

// Gateway is the top-level media storage API: URL resolution, thumbnail
// generation, and presigned URL management over the registered buckets.
type Gateway struct {
	catalog  *Catalog
	engine   *Engine
	presigns *PresignCache
	logger   logging.Interface

	// now is replaceable in tests.
	now func() time.Time
}

// NewGateway assembles a gateway from its components.
func NewGateway(catalog *Catalog, engine *Engine, presigns *PresignCache, logger logging.Interface) *Gateway {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Gateway{
		catalog:  catalog,
		engine:   engine,
		presigns: presigns,
		logger:   logger,
		now:      time.Now,
	}
}

// Resolve maps a URL to the bucket and object path it addresses.
func (g *Gateway) Resolve(rawURL string) (*Resolution, error) {
	return g.catalog.Resolve(rawURL)
}

// GetThumbnail resolves the request URL and returns a servable thumbnail.
func (g *Gateway) GetThumbnail(ctx context.Context, req GatewayThumbnailRequest) (*ThumbnailWithMeta, error) {
	res, err := g.catalog.Resolve(req.URL)
	if err != nil {
		return nil, err
	}

	result, err := g.engine.GetThumbnail(ctx, res.Bucket, ThumbnailRequest{
		Path:  res.ObjectPath,
		Size:  req.Size,
		Force: req.Force,
	})
	if err != nil {
		return nil, err
	}

	caps := res.Bucket.Capabilities()
	return &ThumbnailWithMeta{
		ThumbnailResult:  *result,
		BucketID:         res.Bucket.ID,
		MatchedPatternID: res.MatchedPatternID,
		ShouldRedirect:   caps != nil && caps.SupportsURLResize(),
	}, nil
}

// GetPresignedURL returns a cached or freshly signed read URL for the object
// addressed by rawURL.
func (g *Gateway) GetPresignedURL(ctx context.Context, rawURL string, ttl time.Duration) (*PresignResult, error) {
	return g.presigns.GetPresignedURL(ctx, rawURL, ttl)
}

// ClearThumbnailCache deletes all cached thumbnails for the object addressed
// by rawURL.
func (g *Gateway) ClearThumbnailCache(ctx context.Context, rawURL string) error {
	res, err := g.catalog.Resolve(rawURL)
	if err != nil {
		return err
	}
	return g.engine.ClearThumbnailCache(ctx, res.Bucket, res.ObjectPath)
}

// RefreshSignedURL re-signs a presigned URL that has expired or is close to
// expiring. Unsigned URLs and URLs with comfortable validity left come back
// unchanged with Refreshed false.
func (g *Gateway) RefreshSignedURL(ctx context.Context, rawURL string) (*RefreshResult, error) {
	if rawURL == "" {
		return nil, ErrMissingURLParam
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return nil, ErrInvalidURL
	}

	sig, ok := parseSignatureWindow(u)
	if !ok {
		return &RefreshResult{Refreshed: false, URL: rawURL}, nil
	}

	if sig.remainingFraction(g.now()) > refreshThreshold {
		return &RefreshResult{Refreshed: false, URL: rawURL}, nil
	}

	// The bare URL without its signature query is what the catalog knows.
	bare := *u
	bare.RawQuery = ""
	bare.Fragment = ""

	result, err := g.presigns.GetPresignedURL(ctx, bare.String(), sig.ttl())
	if err != nil {
		return nil, err
	}

	g.logger.WithField("url", bare.String()).
		WithField("ttl", sig.ttl()).
		Debug("Refreshed signed URL")
	return &RefreshResult{Refreshed: true, URL: result.URL}, nil
}

// Close releases background resources.
func (g *Gateway) Close() {
	g.presigns.Close()
}

// signatureWindow is the validity window recovered from a signed URL's query
// parameters. signedAt is zero when the scheme does not encode a start time.
type signatureWindow struct {
	signedAt  time.Time
	expiresAt time.Time
}

func (w signatureWindow) ttl() time.Duration {
	if !w.signedAt.IsZero() {
		if d := w.expiresAt.Sub(w.signedAt); d > 0 {
			return d
		}
	}
	return DefaultPresignTTL
}

// remainingFraction reports how much of the window is left. Without a start
// time the default TTL stands in for the full window.
func (w signatureWindow) remainingFraction(now time.Time) float64 {
	left := w.expiresAt.Sub(now)
	if left <= 0 {
		return 0
	}
	total := w.ttl()
	if !w.signedAt.IsZero() {
		total = w.expiresAt.Sub(w.signedAt)
	}
	if total <= 0 {
		return 0
	}
	f := float64(left) / float64(total)
	if f > 1 {
		f = 1
	}
	return f
}

// parseSignatureWindow recognizes the three signature schemes the supported
// providers emit: AWS SigV4 (X-Amz-Date + X-Amz-Expires), OSS (Expires as a
// unix timestamp alongside a Signature) and Azure SAS (se, optionally st).
func parseSignatureWindow(u *url.URL) (signatureWindow, bool) {
	q := u.Query()

	if amzDate, amzExpires := q.Get("X-Amz-Date"), q.Get("X-Amz-Expires"); amzDate != "" && amzExpires != "" {
		signedAt, err := time.Parse("20060102T150405Z", amzDate)
		if err != nil {
			return signatureWindow{}, false
		}
		seconds, err := strconv.ParseInt(amzExpires, 10, 64)
		if err != nil || seconds <= 0 {
			return signatureWindow{}, false
		}
		return signatureWindow{signedAt: signedAt, expiresAt: signedAt.Add(time.Duration(seconds) * time.Second)}, true
	}

	if expires := q.Get("Expires"); expires != "" && q.Get("Signature") != "" {
		epoch, err := strconv.ParseInt(expires, 10, 64)
		if err != nil {
			return signatureWindow{}, false
		}
		return signatureWindow{expiresAt: time.Unix(epoch, 0)}, true
	}

	if se := q.Get("se"); se != "" && q.Get("sig") != "" {
		expiresAt, err := time.Parse(time.RFC3339, se)
		if err != nil {
			return signatureWindow{}, false
		}
		w := signatureWindow{expiresAt: expiresAt}
		if st := q.Get("st"); st != "" {
			if signedAt, err := time.Parse(time.RFC3339, st); err == nil {
				w.signedAt = signedAt
			}
		}
		return w, true
	}

	return signatureWindow{}, false
}
