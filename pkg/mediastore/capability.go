package mediastore

import (
	"fmt"
	"strings"

	"github.com/tessellate-ai/mediagate/pkg/objectstore"
)

// Capability describes what a storage provider's gateway/CDN can do for us
// beyond plain object access. Adding a provider means registering one
// Capability implementation; the thumbnail engine never changes.
type Capability interface {
	// SupportsURLResize reports whether thumbnails can be delegated to a
	// provider URL transform instead of being computed locally.
	SupportsURLResize() bool

	// BuildResizeURL builds the provider resize URL for an object. Only
	// meaningful when SupportsURLResize is true.
	BuildResizeURL(bucket *BucketConfig, objectPath string, size Size) (string, error)
}

// CapabilityResolver maps provider names to their Capability.
type CapabilityResolver struct {
	byProvider map[objectstore.Provider]Capability
}

// NewCapabilityResolver creates a resolver preloaded with the built-in
// provider capabilities.
func NewCapabilityResolver() *CapabilityResolver {
	r := &CapabilityResolver{byProvider: make(map[objectstore.Provider]Capability)}
	r.Register(objectstore.ProviderOSS, ossCapability{})
	return r
}

// Register installs the capability for a provider, replacing any previous
// registration.
func (r *CapabilityResolver) Register(provider objectstore.Provider, capability Capability) {
	r.byProvider[provider] = capability
}

// Resolve returns the capability descriptor for a provider. Unknown and
// non-resizing providers get the no-op default.
func (r *CapabilityResolver) Resolve(provider objectstore.Provider, bucket *BucketConfig) Capability {
	if c, ok := r.byProvider[provider]; ok {
		return c
	}
	return noCapability{}
}

// noCapability is the default for providers without URL transforms.
type noCapability struct{}

func (noCapability) SupportsURLResize() bool { return false }

func (noCapability) BuildResizeURL(bucket *BucketConfig, objectPath string, size Size) (string, error) {
	return "", fmt.Errorf("%w: provider does not support url resize", ErrConfiguration)
}

// ossCapability delegates resizing to the OSS image processing service via
// the x-oss-process query transform.
type ossCapability struct{}

func (ossCapability) SupportsURLResize() bool { return true }

func (ossCapability) BuildResizeURL(bucket *BucketConfig, objectPath string, size Size) (string, error) {
	base, err := bucket.PublicURL(objectPath)
	if err != nil {
		return "", err
	}

	var transform string
	switch size.Mode {
	case ModeLongestEdge:
		if size.LongestSide <= 0 {
			return "", fmt.Errorf("%w: url resize needs a positive longest side", ErrConfiguration)
		}
		transform = fmt.Sprintf("image/resize,l_%d", size.LongestSide)
	default:
		if size.Width <= 0 {
			return "", fmt.Errorf("%w: url resize needs a width or longest side", ErrConfiguration)
		}
		if size.Height > 0 {
			transform = fmt.Sprintf("image/resize,m_fill,w_%d,h_%d", size.Width, size.Height)
		} else {
			transform = fmt.Sprintf("image/resize,w_%d", size.Width)
		}
	}

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "x-oss-process=" + transform, nil
}
