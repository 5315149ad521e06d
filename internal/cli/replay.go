package cli

import (
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/octohelm/tabledb/pkg/journal"
)

type ReplayOptions struct {
	*RootOptions
	From string
}

func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild a store from a journal and print its digest",
		Long: `Apply every write set of a journal, in commit order, to the configured
store and print the digest of the result. Replaying into an empty store
reproduces the digest of the store the journal was written by.

Examples:
  tabledb replay --from ./data/journal --path ./replica`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "journal to replay (required)")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	j, err := journal.Open(opts.From, journal.Options{NoSync: true})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	// replayed writes are not journaled again
	opts.config.Journal.Path = ""

	i, err := opts.open(ctx)
	if err != nil {
		return err
	}
	defer i.Close(ctx)

	n, err := j.Replay(ctx, i.Store, opts.config.Name)
	if err != nil {
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	d, err := digestOf(i.Store, opts.config.Name)
	if err != nil {
		return WrapExitError(ExitCommandError, "digest failed", err)
	}

	logr.FromContextOrDiscard(ctx).Info("Replayed", "entries", n, "digest", formatDigest(d))

	return printDigest(cmd, opts.RootOptions, d)
}
