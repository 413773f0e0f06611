package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/tessellate-ai/mediagate/internal/server"
	"github.com/tessellate-ai/mediagate/pkg/configutils"
	"github.com/tessellate-ai/mediagate/pkg/imaging"
	"github.com/tessellate-ai/mediagate/pkg/logging"
	"github.com/tessellate-ai/mediagate/pkg/mediastore"
	"github.com/tessellate-ai/mediagate/pkg/objectstore/providers"
)

// envPrefix is the prefix for environment variable overrides, e.g.
// MEDIAGATE_SERVER_PORT.
const envPrefix = "MEDIAGATE"

func newServeCommand() *cobra.Command {
	var configFilePath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the media gateway HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(
				configutils.ProvideViperFromFile(envPrefix, cmd.Flags(), configFilePath),
				logging.Module,
				providers.Module,
				imaging.Module,
				mediastore.Module,
				server.Module,
			)
			app.Run()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFilePath, "config", "c", "", "path to config file")
	cmd.Flags().BoolP("debug", "d", false, "enable debug logging")
	return cmd
}
