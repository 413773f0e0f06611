package mediastore

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/tessellate-ai/mediagate/pkg/logging"
	"github.com/tessellate-ai/mediagate/pkg/objectstore"
)

// ConfigKey is the viper key the gateway settings live under.
const ConfigKey = "mediastore"

// Settings is the file-level configuration of the gateway.
type Settings struct {
	Buckets []*BucketConfig `mapstructure:"buckets" validate:"required,min=1,dive"`

	// ThumbnailQuality overrides the encoder quality; zero keeps the default.
	ThumbnailQuality int `mapstructure:"thumbnail_quality" validate:"omitempty,min=1,max=100"`

	// ThumbnailPresignExpiry overrides the private-bucket thumbnail URL
	// expiry; zero keeps the default.
	ThumbnailPresignExpiry time.Duration `mapstructure:"thumbnail_presign_expiry"`
}

// NewSettings unmarshals and validates gateway settings from viper.
func NewSettings(v *viper.Viper) (*Settings, error) {
	settings := &Settings{}
	if err := v.UnmarshalKey(ConfigKey, settings); err != nil {
		return nil, fmt.Errorf("unmarshal %s config: %w", ConfigKey, err)
	}
	if err := validator.New().Struct(settings); err != nil {
		return nil, fmt.Errorf("validate %s config: %w", ConfigKey, err)
	}
	return settings, nil
}

// NewCatalogFromSettings builds a catalog with every configured bucket
// registered.
func NewCatalogFromSettings(settings *Settings, caps *CapabilityResolver, logger logging.Interface) (*Catalog, error) {
	catalog := NewCatalog(caps, logger)
	for _, bucket := range settings.Buckets {
		if err := catalog.Register(bucket); err != nil {
			return nil, fmt.Errorf("register bucket %q: %w", bucket.ID, err)
		}
	}
	return catalog, nil
}

// Module wires the gateway and its components for fx. It expects
// *viper.Viper, logging.Interface, *objectstore.Cache and an
// ImageTransformer from sibling modules.
var Module = fx.Options(
	fx.Provide(NewSettings),
	fx.Provide(NewCapabilityResolver),
	fx.Provide(NewCatalogFromSettings),
	fx.Provide(func(settings *Settings, stores *objectstore.Cache, transformer ImageTransformer, logger logging.Interface) *Engine {
		return NewEngine(stores, transformer, logger,
			WithQuality(settings.ThumbnailQuality),
			WithPresignExpiry(settings.ThumbnailPresignExpiry),
		)
	}),
	fx.Provide(NewPresignCache),
	fx.Provide(NewGateway),
	fx.Invoke(func(lc fx.Lifecycle, gateway *Gateway) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				gateway.Close()
				return nil
			},
		})
	}),
)
