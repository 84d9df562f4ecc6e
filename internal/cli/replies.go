package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewRepliesCommand creates the replies command group.
func NewRepliesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replies",
		Short: "List and create replies to a posting",
	}
	cmd.AddCommand(newRepliesListCommand(rootOpts))
	cmd.AddCommand(newRepliesCreateCommand(rootOpts))
	return cmd
}

func newRepliesListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <posting-id>",
		Short: "List the replies to a posting, oldest first",
		Args:  cobra.ExactArgs(1),
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
			replies, err := s.deps.Board.ListReplies(cmd.Context(), id)
			if err != nil {
				return s.out.Fail(err)
			}
			return s.out.Success(replies, func(w io.Writer) error {
				if len(replies) == 0 {
					_, err := fmt.Fprintf(w, "no replies to posting %d\n", id)
					return err
				}
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "GITHUB\tCONTACT\tDESCRIPTION")
				for _, r := range replies {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", r.GitHub, r.Contact, r.Description)
				}
				return tw.Flush()
			})
		},
	}
}

func newRepliesCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var github, description, contact string

	cmd := &cobra.Command{
		Use:     "create <posting-id>",
		Short:   "Reply to a posting",
		Example: `  jobboard replies create 0 --github octocat --contact oc@example.com`,
		Args:    cobra.ExactArgs(1),
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
			reply, err := s.deps.Board.CreateReply(cmd.Context(), github, description, contact, id)
			if err != nil {
				return s.out.Fail(err)
			}
			return s.out.Success(reply, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "replied to posting %d as %s\n", id, reply.GitHub)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&github, "github", "", "GitHub username of the candidate")
	cmd.Flags().StringVar(&description, "description", "", "reply text")
	cmd.Flags().StringVar(&contact, "contact", "", "how the owner reaches the candidate")
	return cmd
}
