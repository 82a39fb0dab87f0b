package cli

import (
	"github.com/spf13/cobra"
)

func Execute() error {
	return newRootCommand().Execute()
}

func newRootCommand() *cobra.Command {
	opts := &finalizeOptions{}
	cmd := &cobra.Command{
		Use:           "runstub [flags] -- ARG...",
		Short:         "Finalize runfiles stub templates into runnable stubs",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFinalize(cmd, opts, args)
		},
	}
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err}
	})
	registerFinalizeFlags(cmd, opts)

	cmd.AddCommand(
		newInspectCommand(),
		newVersionCommand(),
	)

	return cmd
}
