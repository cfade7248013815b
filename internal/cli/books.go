package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"bookcatalog/internal/api"
	"bookcatalog/internal/catalog"
)

// NewAddCommand creates the add command.
func NewAddCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "add <title> <author>",
		Short:   "Add a book to the catalog",
		Example: `  catalogctl add "Dune" "Frank Herbert"`,
		Args:    usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd.Context(), func(store *catalog.Store) error {
				book, err := store.Add(cmd.Context(), args[0], args[1])
				if err != nil {
					var verr *catalog.ValidationError
					if errors.As(err, &verr) {
						return WrapExitError(ExitUsage, "book not added", err)
					}
					return WrapExitError(ExitFailure, "book not added", err)
				}

				return opts.formatter(cmd).Success(book, func(w io.Writer) {
					fmt.Fprintf(w, "Added %q by %s (id %s)\n", book.Title, book.Author, book.ID)
				})
			})
		},
	}
}

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Author string
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books, optionally filtered by author",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd.Context(), func(store *catalog.Store) error {
				view := store.View(opts.Author)
				return opts.formatter(cmd).Success(api.NewViewResponse(view), func(w io.Writer) {
					writeView(w, view)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Author, "author", "a", "", "show only books whose author contains this text (case-insensitive)")

	return cmd
}

func writeView(w io.Writer, view catalog.View) {
	if msg := view.EmptyMessage(); msg != "" {
		fmt.Fprintln(w, msg)
		return
	}
	for _, book := range view.Books {
		fmt.Fprintf(w, "%s  %s by %s\n", book.ID, book.Title, book.Author)
	}
	fmt.Fprintln(w, view.Summary())
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a book by id",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd.Context(), func(store *catalog.Store) error {
				removed, err := store.Remove(cmd.Context(), args[0])
				if err != nil {
					return WrapExitError(ExitFailure, "book not removed", err)
				}

				return opts.formatter(cmd).Success(api.RemoveResponse{Removed: removed}, func(w io.Writer) {
					if removed {
						fmt.Fprintf(w, "Removed %s\n", args[0])
					} else {
						fmt.Fprintf(w, "No book with id %s\n", args[0])
					}
				})
			})
		},
	}
}
