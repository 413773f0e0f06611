package mediastore

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/tessellate-ai/mediagate/pkg/objectstore"
)

// sourceETagMetaKeys are the user-metadata field names under which the
// source freshness token may have been stored, across provider spelling
// conventions.
var sourceETagMetaKeys = []string{"source-etag", "source_etag", "sourceetag", "sourceEtag"}

// FreshnessToken derives an opaque cache-validation token for an object:
// the store-reported ETag when present, else the version id, else a
// deterministic fallback built from content length and last-modified time.
// The fallback exists because not every backend surfaces a real ETag.
func FreshnessToken(md *objectstore.Metadata) string {
	if md.ETag != "" {
		return md.ETag
	}
	if md.VersionID != "" {
		return md.VersionID
	}
	modified := int64(0)
	if !md.LastModified.IsZero() {
		modified = md.LastModified.UnixMilli()
	}
	return base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("%d-%d", md.Size, modified)))
}

// ThumbnailETag builds the freshness token stored with a generated
// thumbnail: base64("{sourceEtag}-{descriptor}-{byteLen}"). It is a
// validation token, not a content hash.
func ThumbnailETag(sourceETag string, size Size, byteLen int) string {
	info := fmt.Sprintf("%s-%s-%d", sourceETag, size.Descriptor(), byteLen)
	return base64.StdEncoding.EncodeToString([]byte(info))
}

// metadataFreshnessMatch is the authoritative cache validity check: the
// cached object's stored source-etag user metadata equals the current
// source token exactly.
func metadataFreshnessMatch(md *objectstore.Metadata, sourceETag string) bool {
	if md.UserMetadata == nil || sourceETag == "" {
		return false
	}
	for _, key := range sourceETagMetaKeys {
		if md.UserMetadata[key] == sourceETag {
			return true
		}
	}
	return false
}

// isLegacyFreshnessHeuristicMatch is the looser fallback check for stores
// that do not preserve custom metadata reliably: the first 10 characters of
// the source token appear verbatim in the cached token, or appear in it
// after base64-decoding. Kept separate so it can be disabled without
// touching the authoritative comparison.
func isLegacyFreshnessHeuristicMatch(cachedToken, sourceETag string) bool {
	if cachedToken == "" || sourceETag == "" {
		return false
	}
	probe := sourceETag
	if len(probe) > 10 {
		probe = probe[:10]
	}
	if strings.Contains(cachedToken, probe) {
		return true
	}
	if decoded, err := base64.StdEncoding.DecodeString(cachedToken); err == nil {
		return strings.Contains(string(decoded), probe)
	}
	return false
}
