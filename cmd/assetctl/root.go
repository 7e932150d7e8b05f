package main

import (
	"fmt"
	"os"

	"github.com/abduss/assethost/internal/client"
	"github.com/abduss/assethost/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	profilePath string
	baseURL     string
	bearerToken string

	profile *client.Profile
	zlog    *zap.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "assetctl",
	Short: "Upload and fetch assets from an asset host",
	Long: "assetctl talks to an asset host API.\n\n" +
		"Uploads are split into chunks, sent in order and committed as one\n" +
		"encoding of an asset. Reads follow streaming tokens until the body is complete.",
	SilenceUsage:      true,
	PersistentPreRunE: initializeApp,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "profile file (default ~/.assetctl.yaml)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "", "API base URL (overrides the profile)")
	rootCmd.PersistentFlags().StringVar(&bearerToken, "bearer", "", "bearer token for uploads (overrides the profile)")

	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(versionCmd)
}

// initializeApp loads .env, the profile and the logger before any subcommand runs.
func initializeApp(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	if profilePath == "" {
		path, err := client.DefaultProfilePath()
		if err != nil {
			return err
		}
		profilePath = path
	}

	p, err := client.LoadProfile(profilePath)
	if err != nil {
		return err
	}
	if baseURL != "" {
		p.BaseURL = baseURL
	}
	if bearerToken != "" {
		p.BearerToken = bearerToken
	}
	profile = p

	l, err := logger.Init()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	zlog = l
	return nil
}

func newClient() (*client.Client, error) {
	return client.New(client.Config{
		BaseURL:     profile.BaseURL,
		BearerToken: profile.BearerToken,
		Logger:      zlog,
	})
}
