package cli

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/spf13/cobra"

	"github.com/octohelm/tabledb/pkg/config"
	"github.com/octohelm/tabledb/pkg/db"
)

var ValidFormats = []string{"text", "json"}

// RootOptions holds the global flags.
type RootOptions struct {
	ConfigFile string
	Engine     string
	Path       string
	Journal    string
	Verbosity  int
	Format     string

	config config.Config
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tabledb",
		Short: "Inspect and maintain tabledb stores",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.resolve(cmd); err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}

			l := funcr.New(func(prefix, args string) {
				if prefix != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), prefix, args)
					return
				}
				fmt.Fprintln(cmd.ErrOrStderr(), args)
			}, funcr.Options{Verbosity: opts.config.Log.Verbosity})

			cmd.SetContext(logr.NewContext(cmd.Context(), l.WithName(opts.config.Name)))
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigFile, "config", "c", "", "yaml config file")
	flags.StringVar(&opts.Engine, "engine", "", "kv engine, overrides the config")
	flags.StringVar(&opts.Path, "path", "", "store path, overrides the config")
	flags.StringVar(&opts.Journal, "journal", "", "journal path, overrides the config")
	flags.IntVarP(&opts.Verbosity, "verbosity", "v", 0, "log verbosity, overrides the config")
	flags.StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(NewTablesCommand(opts))
	cmd.AddCommand(NewScanCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewDigestCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))

	return cmd
}

// resolve layers flags set on the command line over the config file over
// the defaults.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	if !isValidFormat(o.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", o.Format, ValidFormats)
	}

	c := config.Default()
	if o.ConfigFile != "" {
		loaded, err := config.Load(o.ConfigFile)
		if err != nil {
			return err
		}
		c = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("engine") {
		c.Engine = o.Engine
	}
	if flags.Changed("path") {
		c.Path = o.Path
	}
	if flags.Changed("journal") {
		c.Journal.Path = o.Journal
	}
	if flags.Changed("verbosity") {
		c.Log.Verbosity = o.Verbosity
	}

	o.config = c
	return c.Validate()
}

func (o *RootOptions) open(ctx context.Context) (*db.Instance, error) {
	i, err := db.Open(ctx, o.config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}
	return i, nil
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
