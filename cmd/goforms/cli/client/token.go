package client

import (
	"fmt"
	"time"

	"github.com/mwantia/goforms/internal/api"
	"github.com/spf13/cobra"

	config "github.com/mwantia/goforms/internal/config/server"
)

func NewTokenCommand() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <owner>",
		Short: "Issue an operator token",
		Long:  "Sign a bearer token for the operator API with the configured auth.jwt_secret. The owner becomes the token subject.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServerConfig()
			if err != nil {
				return fmt.Errorf("failed to load server configuration: %w", err)
			}

			token, err := api.IssueToken(cfg.Auth.JWTSecret, cfg.Auth.Issuer, args[0], ttl)
			if err != nil {
				return err
			}

			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")

	return cmd
}
