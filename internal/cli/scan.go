package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/octohelm/tabledb/pkg/db"
	"github.com/octohelm/tabledb/pkg/schema"
)

type ScanOptions struct {
	*RootOptions
	Index   int
	From    string
	To      string
	Reverse bool
	Limit   int64
}

func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scan owner/scope/name",
		Short: "Print the records of a table in index order",
		Long: `Print the records of a table in the order of its primary index, or of
one secondary slot with --index. Bounds are given in the key type of the
scanned index: --from is inclusive, --to exclusive.

Examples:
  tabledb scan alice/market/prices --path ./data
  tabledb scan alice/market/prices --index 0 --from 1.5 --limit 10 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(opts, cmd, args[0])
		},
	}

	cmd.Flags().IntVar(&opts.Index, "index", -1, "secondary slot to scan, -1 for the primary index")
	cmd.Flags().StringVar(&opts.From, "from", "", "inclusive lower bound")
	cmd.Flags().StringVar(&opts.To, "to", "", "exclusive upper bound")
	cmd.Flags().BoolVar(&opts.Reverse, "reverse", false, "scan in descending order")
	cmd.Flags().Int64Var(&opts.Limit, "limit", 0, "stop after this many records, 0 for all")

	return cmd
}

func runScan(opts *ScanOptions, cmd *cobra.Command, table string) error {
	ctx := cmd.Context()

	ref, err := schema.ParseRef(table)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid table", err)
	}

	i, err := opts.open(ctx)
	if err != nil {
		return err
	}
	defer i.Close(ctx)

	keyType := schema.KeyTypeUint64
	if opts.Index >= 0 {
		err := i.View(ctx, func(tx db.Transaction) error {
			t, err := tx.Open(ctx, ref)
			if err != nil {
				return err
			}
			idx, err := t.Index(opts.Index)
			if err != nil {
				return err
			}
			keyType = idx.KeyType()
			return nil
		})
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to open index %d of %s", opts.Index, ref), err)
		}
	}

	var scanOpts []db.ScanOptionFunc
	if opts.Index >= 0 {
		scanOpts = append(scanOpts, db.ByIndex(opts.Index))
	}
	if opts.From != "" {
		k, err := schema.ParseKey(keyType, opts.From)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --from", err)
		}
		scanOpts = append(scanOpts, db.From(k))
	}
	if opts.To != "" {
		k, err := schema.ParseKey(keyType, opts.To)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --to", err)
		}
		scanOpts = append(scanOpts, db.To(k))
	}
	if opts.Reverse {
		scanOpts = append(scanOpts, db.Reverse())
	}

	views := make([]recordView, 0)

	ops := []db.Operator{db.Scan(ref, scanOpts...)}
	if opts.Limit > 0 {
		ops = append(ops, db.Limit(opts.Limit))
	}
	ops = append(ops, db.Each(func(r *db.Record) error {
		views = append(views, recordViewOf(r))
		return nil
	}))

	if err := i.Execute(ctx, db.Pipe(ops...)); err != nil {
		return WrapExitError(ExitCommandError, "scan failed", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), views)
	}
	for _, v := range views {
		fmt.Fprintln(cmd.OutOrStdout(), v.text())
	}
	return nil
}
