package mediastore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tessellate-ai/mediagate/pkg/logging"
	"github.com/tessellate-ai/mediagate/pkg/objectstore"
)

const (
	// DefaultPresignTTL applies when a request carries no TTL or a
	// non-positive one.
	DefaultPresignTTL = 300 * time.Second

	// presignServeThreshold is the fraction of an entry's validity that must
	// remain for the cached URL to be served. Below it a fresh URL is signed
	// so callers never receive a URL about to expire mid-download.
	presignServeThreshold = 0.30

	// presignEvictThreshold is the fraction of validity below which the
	// background sweep discards an entry outright.
	presignEvictThreshold = 0.10

	// presignSweepInterval is how often the background sweep runs.
	presignSweepInterval = 5 * time.Minute
)

// PresignResult is a signed URL for one stored object, plus the resolution
// that produced it.
type PresignResult struct {
	URL              string
	Method           string
	Headers          map[string]string
	ExpiresIn        time.Duration
	MatchedPatternID string
	ObjectPath       string
	OriginalURL      string
}

type presignEntry struct {
	result    *PresignResult
	signedAt  time.Time
	expiresAt time.Time
}

// remainingFraction reports how much of the entry's validity window is left,
// in [0, 1].
func (e *presignEntry) remainingFraction(now time.Time) float64 {
	total := e.expiresAt.Sub(e.signedAt)
	if total <= 0 {
		return 0
	}
	left := e.expiresAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return float64(left) / float64(total)
}

// PresignCache resolves public object URLs to presigned read URLs and caches
// them for their validity window. Re-signing happens proactively: an entry
// past 70% of its lifetime is treated as a miss.
type PresignCache struct {
	catalog *Catalog
	stores  *objectstore.Cache
	logger  logging.Interface

	mu      sync.Mutex
	entries map[string]*presignEntry

	// now is replaceable in tests.
	now func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// NewPresignCache creates a presign cache and starts its background sweep.
// Call Close to stop the sweep.
func NewPresignCache(catalog *Catalog, stores *objectstore.Cache, logger logging.Interface) *PresignCache {
	if logger == nil {
		logger = logging.Discard()
	}
	c := &PresignCache{
		catalog: catalog,
		stores:  stores,
		logger:  logger,
		entries: make(map[string]*presignEntry),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

// Close stops the background sweep. The cache stays usable; entries simply
// stop being evicted proactively.
func (c *PresignCache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// GetPresignedURL returns a presigned read URL for the object addressed by
// rawURL, valid for ttl (DefaultPresignTTL when non-positive). Consecutive
// calls within the first 70% of a URL's lifetime return the same URL.
func (c *PresignCache) GetPresignedURL(ctx context.Context, rawURL string, ttl time.Duration) (*PresignResult, error) {
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}

	key := fmt.Sprintf("%s:%d", rawURL, int64(ttl.Seconds()))
	now := c.now()

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok {
		if entry.remainingFraction(now) > presignServeThreshold {
			result := entry.result
			c.mu.Unlock()
			return result, nil
		}
		delete(c.entries, key)
	}
	c.mu.Unlock()

	res, err := c.catalog.Resolve(rawURL)
	if err != nil {
		return nil, err
	}

	store, err := c.stores.GetOrCreate(ctx, res.Bucket.ID, res.Bucket.Store)
	if err != nil {
		return nil, err
	}

	signed, err := store.PresignRead(ctx, res.ObjectPath, ttl)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPresignFailed, err)
	}

	result := &PresignResult{
		URL:              signed.URL,
		Method:           signed.Method,
		Headers:          signed.Headers,
		ExpiresIn:        ttl,
		MatchedPatternID: res.MatchedPatternID,
		ObjectPath:       res.ObjectPath,
		OriginalURL:      rawURL,
	}

	c.mu.Lock()
	c.entries[key] = &presignEntry{result: result, signedAt: now, expiresAt: now.Add(ttl)}
	c.mu.Unlock()

	return result, nil
}

func (c *PresignCache) sweepLoop() {
	ticker := time.NewTicker(presignSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

// sweep drops entries with under 10% of their validity left.
func (c *PresignCache) sweep() {
	now := c.now()
	c.mu.Lock()
	evicted := 0
	for key, entry := range c.entries {
		if entry.remainingFraction(now) < presignEvictThreshold {
			delete(c.entries, key)
			evicted++
		}
	}
	remaining := len(c.entries)
	c.mu.Unlock()

	if evicted > 0 {
		c.logger.WithField("evicted", evicted).
			WithField("remaining", remaining).
			Debug("Swept presigned URL cache")
	}
}

// Len reports the number of cached entries.
func (c *PresignCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
