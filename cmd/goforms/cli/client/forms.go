package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/mwantia/goforms/internal/agent"
	"github.com/mwantia/goforms/pkg/forms"
	"github.com/mwantia/goforms/pkg/log"
	"github.com/mwantia/goforms/pkg/uploads"
	"github.com/spf13/cobra"

	config "github.com/mwantia/goforms/internal/config/server"
)

func NewFormsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forms",
		Short: "Manage forms directly on the metadata store",
		Long:  "List, export, import, clone, toggle and remove forms of one owner without going through the HTTP API.",
	}

	cmd.PersistentFlags().String("owner", "", "owner id the forms belong to")
	cmd.MarkPersistentFlagRequired("owner")

	cmd.AddCommand(NewFormsListCommand())
	cmd.AddCommand(NewFormsExportCommand())
	cmd.AddCommand(NewFormsImportCommand())
	cmd.AddCommand(NewFormsCloneCommand())
	cmd.AddCommand(NewFormsToggleCommand())
	cmd.AddCommand(NewFormsRemoveCommand())

	return cmd
}

// withService runs fn against a form service on the configured store.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *forms.Service, owner string) error) error {
	owner, _ := cmd.Flags().GetString("owner")

	cfg, err := config.LoadServerConfig()
	if err != nil {
		return fmt.Errorf("failed to load server configuration: %w", err)
	}

	logger := log.NewLoggerService("cli", cfg.Log)
	ctx := cmd.Context()

	st, err := agent.OpenStore(ctx, cfg.Metadata, logger.Named("store"))
	if err != nil {
		return err
	}
	defer st.Close()

	files, err := uploads.NewLocalStorage(cfg.Uploads)
	if err != nil {
		return err
	}

	return fn(ctx, forms.NewService(st, files, logger.Named("forms")), owner)
}

func NewFormsListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List forms of the owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *forms.Service, owner string) error {
				list, err := svc.ListFormsForOwner(ctx, owner)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tACTIVE\tCREATED\tTITLE")
				for _, f := range list {
					fmt.Fprintf(w, "%s\t%t\t%s\t%s\n", f.ID, f.Active, f.CreatedAt.Format(forms.TimeLayout), f.Title)
				}
				return w.Flush()
			})
		},
	}

	return cmd
}

func NewFormsExportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <form-id>",
		Short: "Export the responses of a form as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *forms.Service, owner string) error {
				var w io.Writer = os.Stdout
				if output != "" && output != "-" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("failed to create '%s': %w", output, err)
					}
					defer f.Close()
					w = f
				}

				return svc.ExportCSV(ctx, owner, args[0], w)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, '-' for stdout")

	return cmd
}

func NewFormsImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <form-id> <file.csv>",
		Short: "Import responses from a CSV export",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("failed to open '%s': %w", args[1], err)
			}
			defer f.Close()

			return withService(cmd, func(ctx context.Context, svc *forms.Service, owner string) error {
				count, err := svc.ImportCSV(ctx, owner, args[0], f)
				if err != nil {
					return err
				}

				fmt.Printf("Imported %d responses\n", count)
				return nil
			})
		},
	}

	return cmd
}

func NewFormsCloneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clone <form-id>",
		Short: "Copy the questions of a form into a new form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *forms.Service, owner string) error {
				clone, err := svc.CloneForm(ctx, owner, args[0])
				if err != nil {
					return err
				}

				fmt.Println(clone.ID)
				return nil
			})
		},
	}

	return cmd
}

func NewFormsToggleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toggle <form-id>",
		Short: "Open or close a form for responses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *forms.Service, owner string) error {
				form, err := svc.ToggleForm(ctx, owner, args[0])
				if err != nil {
					return err
				}

				fmt.Printf("Form %s active=%t\n", form.ID, form.Active)
				return nil
			})
		},
	}

	return cmd
}

func NewFormsRemoveCommand() *cobra.Command {
	var responsesOnly bool

	cmd := &cobra.Command{
		Use:   "rm <form-id>",
		Short: "Remove a form with all responses and attachments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *forms.Service, owner string) error {
				if responsesOnly {
					return svc.DeleteResponses(ctx, owner, args[0])
				}
				return svc.DeleteForm(ctx, owner, args[0])
			})
		},
	}

	cmd.Flags().BoolVar(&responsesOnly, "responses", false, "only remove the collected responses")

	return cmd
}
