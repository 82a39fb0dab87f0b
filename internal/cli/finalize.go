package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brandonbloom/runstub/internal/patch"
	"github.com/brandonbloom/runstub/internal/planfile"
	"github.com/brandonbloom/runstub/internal/stubcfg"
)

var colorDone = color.New(color.FgGreen, color.Bold).SprintFunc()

type finalizeOptions struct {
	template  string
	output    string
	transform []string
	exportEnv bool
	plan      string
	verbose   bool
}

func registerFinalizeFlags(cmd *cobra.Command, opts *finalizeOptions) {
	cmd.Flags().StringVarP(&opts.template, "template", "t", "", "path to a template stub binary")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the finalized stub here (default stdout)")
	cmd.Flags().StringArrayVar(&opts.transform, "transform", nil, "argument indices to resolve through runfiles (repeatable, comma-separated)")
	cmd.Flags().BoolVar(&opts.exportEnv, "export-runfiles-env", true, "export RUNFILES_* variables to the launched process")
	cmd.Flags().StringVar(&opts.plan, "plan", "", "read template, output, and arguments from a TOML plan file")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log each slot rewrite")
}

func runFinalize(cmd *cobra.Command, opts *finalizeOptions, args []string) error {
	if opts.verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync()
		patch.SetLogger(logger)
	}

	template := opts.template
	output := opts.output
	var plan patch.Plan

	if opts.plan != "" {
		if template != "" || len(args) > 0 || len(opts.transform) > 0 {
			return usagef("--plan cannot be combined with --template, --transform, or positional arguments")
		}
		file, err := planfile.Load(opts.plan)
		if err != nil {
			return err
		}
		plan = file.PatchPlan()
		template = file.Template
		if output == "" {
			output = file.Output
		}
	} else {
		if template == "" {
			return usagef("--template is required")
		}
		if len(args) == 0 {
			return usagef("at least one embedded argument is required after --")
		}
		mask, err := transformMask(opts.transform, len(args))
		if err != nil {
			return err
		}
		plan = patch.Plan{Args: args, Transform: mask, ExportEnv: opts.exportEnv}
	}

	if output != "" && samePath(template, output) {
		return fmt.Errorf("output %s would overwrite the input template", output)
	}

	data, err := os.ReadFile(template)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}

	finalized, err := patch.Finalize(data, plan)
	if err != nil {
		return fmt.Errorf("%s: %w", template, err)
	}

	if output == "" {
		_, err := cmd.OutOrStdout().Write(finalized)
		return err
	}
	if err := writeStub(output, finalized); err != nil {
		return err
	}
	if opts.verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s (%d bytes, %d embedded arguments)\n",
			colorDone("finalized"), output, len(finalized), len(plan.Args))
	}
	return nil
}

// transformMask folds --transform values, each a decimal index or a
// comma-separated list of indices, into the slot bitmask.
func transformMask(values []string, argc int) (uint16, error) {
	var mask uint16
	for _, value := range values {
		for _, field := range strings.Split(value, ",") {
			field = strings.TrimSpace(field)
			idx, err := strconv.Atoi(field)
			if err != nil || idx < 0 || idx >= stubcfg.MaxEmbedded {
				return 0, usagef("invalid transform index %q (expected 0-%d)", field, stubcfg.MaxEmbedded-1)
			}
			if idx >= argc {
				return 0, usagef("transform index %d out of range for %d arguments", idx, argc)
			}
			mask |= 1 << idx
		}
	}
	return mask, nil
}

func writeStub(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o755); err != nil {
		return err
	}
	// WriteFile applies the mode only when it creates the file; chmod
	// covers a pre-existing output.
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Mode().IsRegular() {
		return os.Chmod(path, 0o755)
	}
	return nil
}

// samePath reports whether output resolves to the template file itself. A
// not-yet-existing output can't collide.
func samePath(template, output string) bool {
	t, err := filepath.EvalSymlinks(template)
	if err != nil {
		return false
	}
	o, err := filepath.EvalSymlinks(output)
	if err != nil {
		return false
	}
	return t == o
}
