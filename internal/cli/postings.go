package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sakif/job-board/internal/apperror"
	"github.com/sakif/job-board/internal/service"
)

// NewPostingsCommand creates the postings command group.
func NewPostingsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "postings",
		Short: "List, create and delete postings",
	}
	cmd.AddCommand(newPostingsListCommand(rootOpts))
	cmd.AddCommand(newPostingsCreateCommand(rootOpts))
	cmd.AddCommand(newPostingsDeleteCommand(rootOpts))
	return cmd
}

func newPostingsListCommand(rootOpts *RootOptions) *cobra.Command {
	var from, limit uint64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List postings in creation order",
		Example: `  jobboard postings list
  jobboard postings list --from 20 --limit 20 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.close()

			entries, err := s.deps.Board.ListPostings(cmd.Context(), from, limit)
			if err != nil {
				return s.out.Fail(err)
			}
			return s.out.Success(entries, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTITLE\tCONTACT")
				for _, e := range entries {
					fmt.Fprintf(tw, "%d\t%s\t%s\n", e.ID, e.Posting.Title, e.Posting.Contact)
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().Uint64Var(&from, "from", 0, "index of the first posting to list")
	cmd.Flags().Uint64Var(&limit, "limit", service.DefaultListLimit, fmt.Sprintf("page size (at most %d)", service.MaxListLimit))
	return cmd
}

func newPostingsCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var as, title, description, contact string

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a posting owned by --as",
		Example: `  jobboard postings create --as alice --title "Go developer" --contact jobs@example.com`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.close()

			p, err := s.deps.Board.CreatePosting(cmd.Context(), as, title, description, contact)
			if err != nil {
				return s.out.Fail(err)
			}
			return s.out.Success(p, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "created posting %d\n", p.ID)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&as, "as", "", "identity of the owner")
	cmd.Flags().StringVar(&title, "title", "", "posting title")
	cmd.Flags().StringVar(&description, "description", "", "posting description")
	cmd.Flags().StringVar(&contact, "contact", "", "how candidates reach the owner")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func newPostingsDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	var as string

	cmd := &cobra.Command{
		Use:   "delete <posting-id>",
		Short: "Delete a posting and its replies",
		Long: `Delete a posting and every reply to it. Only the identity that created
the posting may delete it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.close()

			id, err := parsePostingID(args[0])
			if err != nil {
				return s.out.Fail(err)
			}
			p, err := s.deps.Board.DeletePosting(cmd.Context(), as, id)
			if err != nil {
				return s.out.Fail(err)
			}
			return s.out.Success(p, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "deleted posting %d (%s)\n", p.ID, p.Title)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&as, "as", "", "identity of the requester")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func parsePostingID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, apperror.ValidationFailed("id", "posting id must be an unsigned 32-bit integer")
	}
	return uint32(id), nil
}
