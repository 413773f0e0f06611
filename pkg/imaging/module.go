package imaging

import (
	"go.uber.org/fx"

	"github.com/tessellate-ai/mediagate/pkg/mediastore"
)

// Module provides the transformer as the engine's ImageTransformer.
var Module = fx.Provide(func() mediastore.ImageTransformer {
	return NewTransformer()
})
