package server

import (
	"context"
	"fmt"

	"github.com/mwantia/goforms/internal/agent"
	"github.com/spf13/cobra"

	config "github.com/mwantia/goforms/internal/config/server"
)

func NewAgentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Start the forms HTTP service",
		Long: `Start the forms HTTP service.

The agent opens and migrates the configured metadata store, prepares the
upload directory and serves the operator and public APIs until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServerConfig()
			if err != nil {
				return fmt.Errorf("failed to load server configuration: %w", err)
			}

			return agent.NewAgent(cfg).Serve(context.Background())
		},
	}

	return cmd
}
