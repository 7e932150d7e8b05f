package main

import (
	"fmt"

	"github.com/abduss/assethost/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Display version information",
	Aliases: []string{"v"},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "assetctl %s (%s)\n", version.Version, version.GitCommit)
	},
}
