package azure

import (
	"context"

	"github.com/tessellate-ai/mediagate/pkg/logging"
	"github.com/tessellate-ai/mediagate/pkg/objectstore"
)

// Factory creates Azure Blob stores.
type Factory struct {
	logger logging.Interface
}

// NewFactory creates a new Azure Blob store factory.
func NewFactory(logger logging.Interface) *Factory {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Factory{logger: logger}
}

// Create builds an Azure Blob store from the given configuration.
func (f *Factory) Create(ctx context.Context, config objectstore.Config) (objectstore.Store, error) {
	return New(config, f.logger)
}
