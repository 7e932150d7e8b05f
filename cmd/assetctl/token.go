package main

import (
	"fmt"

	"github.com/abduss/assethost/internal/auth"
	"github.com/abduss/assethost/internal/config"
	"github.com/spf13/cobra"
)

var (
	tokenPrincipal string
	tokenSave      bool
)

// tokenCmd mints a caller token with the server's signing secret.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for a principal",
	Long: "Signs a bearer token naming the principal with ASSETHOST_JWT_SECRET.\n" +
		"Run it where the server's secret is available.",
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenPrincipal, "principal", "", "principal the token identifies")
	tokenCmd.Flags().BoolVar(&tokenSave, "save", false, "store the token in the profile")
	_ = tokenCmd.MarkFlagRequired("principal")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	token, expiresAt, err := auth.NewService(cfg.Auth).Issue(auth.Principal(tokenPrincipal))
	if err != nil {
		return err
	}

	if tokenSave {
		profile.BearerToken = token
		if err := profile.Save(profilePath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "token saved to %s (expires %s)\n", profilePath, expiresAt.Format("2006-01-02 15:04"))
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
