package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"bookcatalog/internal/catalog"
)

// StoreOpener opens the catalog stored under key. An empty key selects the
// configured default. The returned close function releases the backend.
type StoreOpener func(ctx context.Context, key string, verbose bool) (*catalog.Store, func() error, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Key     string
	Format  string // "json" | "text"
	Verbose bool

	open StoreOpener
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the catalog CLI.
// A nil opener connects to the backend configured in the environment.
func NewRootCommand(opener StoreOpener) *cobra.Command {
	if opener == nil {
		opener = OpenConfiguredStore
	}
	opts := &RootOptions{open: opener}

	cmd := &cobra.Command{
		Use:   "catalogctl",
		Short: "Manage the book catalog",
		Long:  "Add, list and remove books in the shared book catalog from the command line.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitUsage, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return WrapExitError(ExitUsage, "invalid flags for "+c.CommandPath(), err)
	})

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.Key, "key", "", "storage key of the catalog (default from CATALOG_KEY)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log storage activity to stderr")

	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))

	return cmd
}

// usageArgs reports argument validation failures with the usage exit code
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return WrapExitError(ExitUsage, "invalid arguments for "+cmd.CommandPath(), err)
		}
		return nil
	}
}

// withStore opens the catalog, runs fn and closes the backend
func (opts *RootOptions) withStore(ctx context.Context, fn func(*catalog.Store) error) error {
	store, closeFn, err := opts.open(ctx, opts.Key, opts.Verbose)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open catalog", err)
	}
	defer closeFn()

	return fn(store)
}

func (opts *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
}
