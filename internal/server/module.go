package server

import (
	"context"

	"go.uber.org/fx"
)

// Module provides the HTTP server and ties it to the fx lifecycle.
var Module = fx.Options(
	fx.Provide(NewConfig),
	fx.Provide(NewServer),
	fx.Invoke(func(lc fx.Lifecycle, server *Server) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return server.Start()
			},
			OnStop: func(ctx context.Context) error {
				return server.Stop(ctx)
			},
		})
	}),
)
