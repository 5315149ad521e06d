package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/octohelm/tabledb/pkg/db"
)

func NewTablesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "tables",
		Short:         "List materialized tables",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			i, err := rootOpts.open(ctx)
			if err != nil {
				return err
			}
			defer i.Close(ctx)

			views := make([]tableView, 0)

			err = i.View(ctx, func(tx db.Transaction) error {
				infos, err := tx.Tables(ctx)
				if err != nil {
					return err
				}
				for k := range infos {
					views = append(views, tableViewOf(&infos[k]))
				}
				return nil
			})
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to list tables", err)
			}

			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), views)
			}
			for _, v := range views {
				fmt.Fprintln(cmd.OutOrStdout(), v.text())
			}
			return nil
		},
	}
}
