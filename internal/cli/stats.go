package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show record counts and the next identifiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.close()

			stats, err := s.deps.Board.Stats(cmd.Context())
			if err != nil {
				return s.out.Fail(err)
			}
			return s.out.Success(stats, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "postings:        %d\nreplies:         %d\nnext posting id: %d\nnext reply id:   %d\n",
					stats.Postings, stats.Replies, stats.NextPostingID, stats.NextReplyID)
				return err
			})
		},
	}
}
