package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tessellate-ai/mediagate/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:     "mediagate",
	Short:   "Run the media storage gateway",
	Long:    "mediagate resolves public media URLs to storage objects, generates cached thumbnails and manages presigned access URLs across S3, OSS and Azure Blob buckets.",
	Version: fmt.Sprintf("gitVersion=%s, gitCommit=%s", version.GitVersion, version.GitCommit),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCommand())
}
