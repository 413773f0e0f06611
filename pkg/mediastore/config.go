package mediastore

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tessellate-ai/mediagate/pkg/objectstore"
)

// DefaultThumbnailPrefix is where generated thumbnails live inside a bucket.
const DefaultThumbnailPrefix = ".thumbnails/"

// BucketConfig is the identity and connection info for one logical storage
// bucket. Instances are built from external configuration at process start
// and are immutable after registration.
type BucketConfig struct {
	ID                 string             `mapstructure:"id" validate:"required"`
	Store              objectstore.Config `mapstructure:"store" validate:"required"`
	Public             bool               `mapstructure:"public"`
	ThumbnailPrefix    string             `mapstructure:"thumbnail_prefix"`
	URLPatterns        []URLPattern       `mapstructure:"url_patterns"`
	PreferredPatternID string             `mapstructure:"preferred_pattern_id"`

	// capabilities is derived once at registration from the provider
	// capability resolver and never mutated afterwards.
	capabilities Capability
}

// Provider returns the bucket's storage provider.
func (b *BucketConfig) Provider() objectstore.Provider {
	return b.Store.Provider
}

// Capabilities returns the provider capability descriptor derived at
// registration. Nil before the bucket is registered.
func (b *BucketConfig) Capabilities() Capability {
	return b.capabilities
}

// EffectiveThumbnailPrefix returns the configured thumbnail prefix
// normalized to end with a slash, defaulting to ".thumbnails/".
func (b *BucketConfig) EffectiveThumbnailPrefix() string {
	prefix := b.ThumbnailPrefix
	if prefix == "" {
		return DefaultThumbnailPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}

// PreferredPattern returns the pattern used for building outbound public
// URLs: the one named by PreferredPatternID if set, otherwise the first
// pattern flagged preferred.
func (b *BucketConfig) PreferredPattern() (URLPattern, bool) {
	if b.PreferredPatternID != "" {
		for _, p := range b.URLPatterns {
			if p.ID == b.PreferredPatternID {
				return p, true
			}
		}
	}
	for _, p := range b.URLPatterns {
		if p.Preferred {
			return p, true
		}
	}
	return URLPattern{}, false
}

// PublicURL builds the canonical public URL for an object in this bucket
// from its preferred URL pattern.
func (b *BucketConfig) PublicURL(objectPath string) (string, error) {
	pattern, ok := b.PreferredPattern()
	if !ok {
		return "", fmt.Errorf("%w: bucket %s has no preferred url pattern", ErrConfiguration, b.ID)
	}

	objectPath = strings.TrimLeft(objectPath, "/")
	urlPath := "/" + objectPath
	if pattern.Kind == PatternProviderHostname {
		urlPath = "/" + pattern.BucketSegment + "/" + objectPath
	}

	u := url.URL{Scheme: "https", Host: pattern.Hostname, Path: urlPath}
	return u.String(), nil
}

// validate checks the invariants that hold per bucket: a non-empty id and
// at most one preferred pattern.
func (b *BucketConfig) validate() error {
	if b.ID == "" {
		return fmt.Errorf("%w: bucket id is required", ErrConfiguration)
	}
	preferred := 0
	for _, p := range b.URLPatterns {
		if p.Hostname == "" {
			return fmt.Errorf("%w: bucket %s has a pattern with no hostname", ErrConfiguration, b.ID)
		}
		if p.Kind == PatternProviderHostname && p.BucketSegment == "" {
			return fmt.Errorf("%w: bucket %s pattern %s needs a bucket_segment", ErrConfiguration, b.ID, p.ID)
		}
		if p.Preferred {
			preferred++
		}
	}
	if preferred > 1 {
		return fmt.Errorf("%w: bucket %s has more than one preferred url pattern", ErrConfiguration, b.ID)
	}
	return nil
}
