package cli

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/octohelm/tabledb/pkg/kv"
)

func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "export file",
		Short:         "Write every pair of the store to a compressed snapshot",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			i, err := rootOpts.open(ctx)
			if err != nil {
				return err
			}
			defer i.Close(ctx)

			f, err := os.Create(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to create snapshot", err)
			}
			defer f.Close()

			session := i.Store.NewSnapshotSession(rootOpts.config.Name)
			defer session.Close()

			n, err := kv.Export(session, f)
			if err != nil {
				return WrapExitError(ExitCommandError, "export failed", err)
			}
			if err := f.Sync(); err != nil {
				return WrapExitError(ExitCommandError, "export failed", err)
			}

			logr.FromContextOrDiscard(ctx).Info("Exported", "pairs", n, "file", args[0])
			return nil
		},
	}
}

func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "import file",
		Short:         "Put every pair of a snapshot into the store",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := os.Open(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open snapshot", err)
			}
			defer f.Close()

			i, err := rootOpts.open(ctx)
			if err != nil {
				return err
			}
			defer i.Close(ctx)

			session := i.Store.NewBatchSession(rootOpts.config.Name)

			n, err := kv.Import(session, f)
			if err != nil {
				_ = session.Close()
				return WrapExitError(ExitCommandError, "import failed", err)
			}
			if err := session.Commit(); err != nil {
				return WrapExitError(ExitCommandError, "import failed", err)
			}

			logr.FromContextOrDiscard(ctx).Info("Imported", "pairs", n, "file", args[0])
			return nil
		},
	}
}

func NewDigestCommand(rootOpts *RootOptions) *cobra.Command {
	var expect string

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Print the xxhash64 digest of the store",
		Long: `Print the xxhash64 digest of every pair of the store in key order. Two
stores holding the same tables and records have the same digest.

Exit codes:
  0 - digest printed, and equal to --expect when given
  1 - digest differs from --expect
  2 - command error`,
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

			d, err := digestOf(i.Store, rootOpts.config.Name)
			if err != nil {
				return WrapExitError(ExitCommandError, "digest failed", err)
			}

			if err := printDigest(cmd, rootOpts, d); err != nil {
				return err
			}

			if expect != "" && expect != formatDigest(d) {
				return NewExitError(ExitFailure, fmt.Sprintf("digest %s differs from %s", formatDigest(d), expect))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&expect, "expect", "", "fail unless the digest equals this hex value")

	return cmd
}

func digestOf(s kv.Store, dbName string) (uint64, error) {
	session := s.NewSnapshotSession(dbName)
	defer session.Close()
	return kv.Digest(session)
}

func formatDigest(d uint64) string {
	return fmt.Sprintf("%016x", d)
}

func printDigest(cmd *cobra.Command, rootOpts *RootOptions, d uint64) error {
	if rootOpts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), map[string]string{"digest": formatDigest(d)})
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), formatDigest(d))
	return err
}
