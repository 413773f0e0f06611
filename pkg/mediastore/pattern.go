package mediastore

import "strings"

// PatternKind tells how an object path is recovered from a matched URL.
type PatternKind string

const (
	// PatternBucketHostname: the hostname addresses the bucket itself and
	// the whole URL path is the object path (virtual-hosted style).
	PatternBucketHostname PatternKind = "bucket-hostname"

	// PatternProviderHostname: the hostname is shared by many buckets and
	// the first path segment names the bucket (path style).
	PatternProviderHostname PatternKind = "provider-hostname"
)

// URLPattern is one accepted public-URL shape for a bucket.
type URLPattern struct {
	ID            string      `mapstructure:"id"`
	Hostname      string      `mapstructure:"hostname" validate:"required"`
	Kind          PatternKind `mapstructure:"kind"`
	BucketSegment string      `mapstructure:"bucket_segment"`
	Preferred     bool        `mapstructure:"preferred"`
}

// extractObjectPath recovers the object path from an already percent-decoded
// URL path. The second return reports whether this pattern matches the path
// at all; a provider-hostname pattern rejects paths that do not start with
// its bucket segment on a segment boundary.
func (p URLPattern) extractObjectPath(urlPath string) (string, bool) {
	trimmed := strings.TrimLeft(urlPath, "/")

	switch p.Kind {
	case PatternProviderHostname:
		if trimmed == "" || trimmed == p.BucketSegment {
			return "", true
		}
		if rest, ok := strings.CutPrefix(trimmed, p.BucketSegment+"/"); ok {
			return rest, true
		}
		return "", false
	default:
		// bucket-hostname extraction always succeeds, possibly with an
		// empty path meaning the bucket root.
		return trimmed, true
	}
}
