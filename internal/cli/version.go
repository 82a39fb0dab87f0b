package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brandonbloom/runstub/internal/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the runstub version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "runstub version %s\n", version.String())
			return err
		},
	}
}
