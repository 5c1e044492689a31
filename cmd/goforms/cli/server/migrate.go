package server

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/mwantia/goforms/pkg/db/migrations"
	"github.com/mwantia/goforms/pkg/db/store"
	"github.com/spf13/cobra"

	config "github.com/mwantia/goforms/internal/config/server"
)

func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the metadata store schema",
		Long:  "Apply, roll back or inspect the table layout of the configured metadata store.",
	}

	cmd.AddCommand(newMigrateCommand("up", "Apply all pending migrations", func(ctx context.Context, m *migrations.Migrator) error {
		return m.Migrate(ctx)
	}))
	cmd.AddCommand(newMigrateCommand("down", "Roll back the latest migration", func(ctx context.Context, m *migrations.Migrator) error {
		return m.Rollback(ctx)
	}))
	cmd.AddCommand(newMigrateCommand("status", "List migrations and whether they are applied", printStatus))

	return cmd
}

func newMigrateCommand(use, short string, run func(context.Context, *migrations.Migrator) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServerConfig()
			if err != nil {
				return fmt.Errorf("failed to load server configuration: %w", err)
			}

			ctx := cmd.Context()
			st, err := store.Open(cfg.Metadata)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Connect(ctx); err != nil {
				return fmt.Errorf("failed to connect to store: %w", err)
			}

			return run(ctx, migrations.NewMigrator(st.DB()))
		},
	}
}

func printStatus(ctx context.Context, m *migrations.Migrator) error {
	statuses, err := m.Status(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tAPPLIED\tDESCRIPTION")
	for _, s := range statuses {
		fmt.Fprintf(w, "%d\t%t\t%s\n", s.Version, s.Applied, s.Description)
	}
	return w.Flush()
}
