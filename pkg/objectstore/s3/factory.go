package s3

import (
	"context"

	"github.com/tessellate-ai/mediagate/pkg/logging"
	"github.com/tessellate-ai/mediagate/pkg/objectstore"
)

// Factory creates S3-compatible stores.
type Factory struct {
	logger logging.Interface
}

// NewFactory creates a new S3 store factory.
func NewFactory(logger logging.Interface) *Factory {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Factory{logger: logger}
}

// Create builds an S3 store from the given configuration.
func (f *Factory) Create(ctx context.Context, config objectstore.Config) (objectstore.Store, error) {
	return New(ctx, config, f.logger)
}
