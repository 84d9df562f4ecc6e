package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize an empty board",
		Long: `Initialize the board's identifier counters. Every other board command
fails with not_initialized until this has run once. Running it again
fails with already_initialized and changes nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.deps.Board.Initialize(cmd.Context()); err != nil {
				return s.out.Fail(err)
			}
			return s.out.Success(map[string]bool{"initialized": true}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, "board initialized")
				return err
			})
		},
	}
}
