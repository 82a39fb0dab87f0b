package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/brandonbloom/runstub/internal/patch"
)

var (
	colorSlotReady     = color.New(color.FgGreen).SprintFunc()
	colorSlotAbsent    = color.New(color.FgHiBlack).SprintFunc()
	colorSlotDuplicate = color.New(color.FgHiRed, color.Bold).SprintFunc()
)

func newInspectCommand() *cobra.Command {
	opts := &inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Report placeholder slots in a template, or decode a finalized stub",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.template, "template", "t", "", "template image to scan")
	cmd.Flags().StringVar(&opts.stub, "stub", "", "finalized stub to decode at the template's offsets")
	return cmd
}

type inspectOptions struct {
	template string
	stub     string
}

func runInspect(cmd *cobra.Command, opts *inspectOptions) error {
	if opts.template == "" {
		return usagef("--template is required")
	}
	template, err := os.ReadFile(opts.template)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}

	infos := patch.Inspect(template)
	printSlotTable(cmd.OutOrStdout(), infos)

	valid := true
	for _, info := range infos {
		if info.Count != 1 {
			valid = false
		}
	}

	if opts.stub == "" {
		if !valid {
			return fmt.Errorf("%s: %w", opts.template, patch.ErrTemplateInvalid)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is a valid template (%d bytes)\n", opts.template, len(template))
		return nil
	}

	stub, err := os.ReadFile(opts.stub)
	if err != nil {
		return fmt.Errorf("read stub: %w", err)
	}
	cfg, err := patch.DecodeFinalized(template, stub)
	if err != nil {
		return fmt.Errorf("%s: %w", opts.stub, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%s: %d embedded argument(s), export-runfiles-env=%v\n", opts.stub, len(cfg.Args), cfg.ExportEnv)
	width := outputWidth(out)
	for i, arg := range cfg.Args {
		kind := "literal"
		if cfg.Transformed(i) {
			kind = "runfiles"
		}
		fmt.Fprintf(out, "  arg%d  %-8s  %s\n", i, kind, truncate(arg, width-20))
	}
	return nil
}

func printSlotTable(out io.Writer, infos []patch.SlotInfo) {
	nameWidth := 0
	for _, info := range infos {
		if w := runewidth.StringWidth(info.Name); w > nameWidth {
			nameWidth = w
		}
	}
	for _, info := range infos {
		state := colorSlotAbsent("absent")
		offset := "-"
		switch {
		case info.Count == 1:
			state = colorSlotReady("template")
			offset = fmt.Sprintf("%d", info.Offset)
		case info.Count > 1:
			state = colorSlotDuplicate(fmt.Sprintf("duplicated x%d", info.Count))
			offset = fmt.Sprintf("%d", info.Offset)
		}
		fmt.Fprintf(out, "%s  %6s  %4d  %s\n", runewidth.FillRight(info.Name, nameWidth), offset, info.Size, state)
	}
}

// outputWidth reports the terminal width when out is one, or a generous
// default for pipes.
func outputWidth(out io.Writer) int {
	f, ok := out.(*os.File)
	if !ok {
		return 120
	}
	if !term.IsTerminal(int(f.Fd())) {
		return 120
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 120
	}
	return width
}

func truncate(s string, width int) string {
	if width < 8 {
		width = 8
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return strings.TrimSpace(runewidth.Truncate(s, width, "…"))
}
