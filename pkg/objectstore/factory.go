package objectstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/tessellate-ai/mediagate/pkg/logging"
)

// Factory creates Store instances by dispatching to registered provider
// factories. Providers register themselves externally to avoid import
// cycles:
//
//	factory.Register(objectstore.ProviderS3, s3.NewFactory(logger))
type Factory struct {
	mu        sync.RWMutex
	providers map[Provider]ProviderFactory
	logger    logging.Interface
}

// NewFactory creates an empty factory.
func NewFactory(logger logging.Interface) *Factory {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Factory{
		providers: make(map[Provider]ProviderFactory),
		logger:    logger,
	}
}

// Register registers a provider factory, replacing any previous registration.
func (f *Factory) Register(provider Provider, factory ProviderFactory) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.providers[provider] = factory
}

// SupportedProviders returns the registered provider names.
func (f *Factory) SupportedProviders() []Provider {
	f.mu.RLock()
	defer f.mu.RUnlock()
	providers := make([]Provider, 0, len(f.providers))
	for p := range f.providers {
		providers = append(providers, p)
	}
	return providers
}

// Create creates a Store for the given configuration.
func (f *Factory) Create(ctx context.Context, config Config) (Store, error) {
	f.mu.RLock()
	factory, exists := f.providers[config.Provider]
	f.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: unsupported provider %q", ErrInvalidConfig, config.Provider)
	}
	if config.Bucket == "" {
		return nil, fmt.Errorf("%w: bucket is required", ErrInvalidConfig)
	}

	f.logger.WithField("provider", config.Provider).
		WithField("bucket", config.Bucket).
		Debug("Creating object store client")

	return factory.Create(ctx, config)
}
