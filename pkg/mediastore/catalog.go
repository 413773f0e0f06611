package mediastore

import (
	"net/url"
	"strings"

	"github.com/tessellate-ai/mediagate/pkg/logging"
)

// Resolution is the result of matching a public URL against the catalog.
type Resolution struct {
	Bucket           *BucketConfig
	ObjectPath       string
	MatchedPatternID string
}

type patternEntry struct {
	bucketID string
	hostname string
	pattern  URLPattern
}

// Catalog is the in-memory registry of configured buckets and their public
// URL patterns. It is written once at startup and read concurrently
// thereafter; Register must not be called after concurrent use begins.
type Catalog struct {
	caps    *CapabilityResolver
	logger  logging.Interface
	buckets []*BucketConfig
	byID    map[string]*BucketConfig

	// patterns is a flat index over every registered pattern, in
	// registration order; Resolve scans it first-match-wins.
	patterns []patternEntry
}

// NewCatalog creates an empty catalog. Bucket capabilities are derived via
// caps at registration time.
func NewCatalog(caps *CapabilityResolver, logger logging.Interface) *Catalog {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Catalog{
		caps:   caps,
		logger: logger,
		byID:   make(map[string]*BucketConfig),
	}
}

// Register adds a bucket and indexes its URL patterns. Hostname collisions
// across buckets are not rejected: the first registered pattern wins at
// resolve time, deterministically.
func (c *Catalog) Register(bucket *BucketConfig) error {
	if err := bucket.validate(); err != nil {
		return err
	}

	bucket.capabilities = c.caps.Resolve(bucket.Provider(), bucket)

	c.buckets = append(c.buckets, bucket)
	c.byID[bucket.ID] = bucket
	for _, p := range bucket.URLPatterns {
		c.patterns = append(c.patterns, patternEntry{
			bucketID: bucket.ID,
			hostname: strings.ToLower(p.Hostname),
			pattern:  p,
		})
	}

	c.logger.WithField("bucket", bucket.ID).
		WithField("provider", bucket.Provider()).
		WithField("patterns", len(bucket.URLPatterns)).
		Info("Registered storage bucket")
	return nil
}

// Resolve matches a public object URL against the registered patterns and
// extracts the logical (bucket, object path) pair. It returns
// ErrBucketNotRegistered when no pattern matches and ErrInvalidURL when the
// URL does not parse.
func (c *Catalog) Resolve(rawURL string) (*Resolution, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, ErrMissingURLParam
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return nil, ErrInvalidURL
	}
	hostname := strings.ToLower(u.Hostname())

	for _, entry := range c.patterns {
		if entry.hostname != hostname {
			continue
		}
		objectPath, ok := entry.pattern.extractObjectPath(u.Path)
		if !ok {
			continue
		}
		return &Resolution{
			Bucket:           c.byID[entry.bucketID],
			ObjectPath:       objectPath,
			MatchedPatternID: entry.pattern.ID,
		}, nil
	}
	return nil, ErrBucketNotRegistered
}

// GetByID returns the bucket registered under id.
func (c *Catalog) GetByID(id string) (*BucketConfig, bool) {
	b, ok := c.byID[id]
	return b, ok
}

// GetAll returns all registered buckets in registration order.
func (c *Catalog) GetAll() []*BucketConfig {
	return c.buckets
}

// GetPrimary returns the first registered bucket.
func (c *Catalog) GetPrimary() (*BucketConfig, bool) {
	if len(c.buckets) == 0 {
		return nil, false
	}
	return c.buckets[0], true
}
