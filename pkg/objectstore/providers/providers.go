// Package providers assembles an objectstore factory with every built-in
// provider backend registered.
package providers

import (
	"go.uber.org/fx"

	"github.com/tessellate-ai/mediagate/pkg/logging"
	"github.com/tessellate-ai/mediagate/pkg/objectstore"
	"github.com/tessellate-ai/mediagate/pkg/objectstore/azure"
	"github.com/tessellate-ai/mediagate/pkg/objectstore/oss"
	"github.com/tessellate-ai/mediagate/pkg/objectstore/s3"
)

// NewFactory returns an objectstore factory with the S3, OSS and Azure
// backends registered.
func NewFactory(logger logging.Interface) *objectstore.Factory {
	factory := objectstore.NewFactory(logger)
	factory.Register(objectstore.ProviderS3, s3.NewFactory(logger))
	factory.Register(objectstore.ProviderOSS, oss.NewFactory(logger))
	factory.Register(objectstore.ProviderAzure, azure.NewFactory(logger))
	return factory
}

// Module provides the factory and a store cache on top of it.
var Module = fx.Options(
	fx.Provide(NewFactory),
	fx.Provide(objectstore.NewCache),
)
