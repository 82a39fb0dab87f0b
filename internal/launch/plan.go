// Package launch assembles the child process's argument and environment
// vectors from a stub's embedded configuration and hands control to the
// target.
package launch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brandonbloom/runstub/internal/runfiles"
	"github.com/brandonbloom/runstub/internal/stubcfg"
)

var (
	// ErrNoRunfiles reports a transformed argument with no runfiles source
	// to resolve it against.
	ErrNoRunfiles = errors.New("no runfiles found: set RUNFILES_DIR or RUNFILES_MANIFEST_FILE, or keep the .runfiles tree next to the stub")
	// ErrTooManyArgs reports an embedded-plus-runtime argument vector over
	// the limit.
	ErrTooManyArgs = errors.New("too many total arguments")
	// ErrLaunchFailed reports that the target could not be executed.
	ErrLaunchFailed = errors.New("launch failed")
)

// ExitCode maps a startup-sequence error to the stub's exit status. Each
// failure kind has its own code so callers can tell them apart.
func ExitCode(err error) int {
	switch {
	case errors.Is(err, stubcfg.ErrUnfinalized):
		return 3
	case errors.Is(err, stubcfg.ErrMalformedArgc):
		return 4
	case errors.Is(err, ErrNoRunfiles):
		return 5
	case errors.Is(err, runfiles.ErrBadManifest):
		return 6
	case errors.Is(err, runfiles.ErrNotFound):
		return 7
	case errors.Is(err, ErrTooManyArgs):
		return 8
	case errors.Is(err, ErrLaunchFailed):
		return 127
	}
	return 1
}

// BuildArgv assembles the child's argument vector: each embedded argument,
// resolved through runfiles where its transform bit is set, followed by the
// stub's runtime arguments. The stub's own argv[0] is not among runtimeArgs;
// the resolved first embedded argument takes its place.
func BuildArgv(cfg *stubcfg.Config, r *runfiles.Runfiles, runtimeArgs []string) ([]string, error) {
	total := len(cfg.Args) + len(runtimeArgs)
	if total > stubcfg.MaxTotalArgs {
		return nil, fmt.Errorf("%w: %d embedded + %d runtime exceeds %d",
			ErrTooManyArgs, len(cfg.Args), len(runtimeArgs), stubcfg.MaxTotalArgs)
	}

	argv := make([]string, 0, total)
	for i, arg := range cfg.Args {
		if !cfg.Transformed(i) {
			argv = append(argv, arg)
			continue
		}
		if r == nil {
			return nil, fmt.Errorf("argument %d (%s): %w", i, arg, ErrNoRunfiles)
		}
		resolved, err := r.Rlocation(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		argv = append(argv, resolved)
	}
	return append(argv, runtimeArgs...), nil
}

// BuildEnv assembles the child's environment. With the export flag set and
// runfiles discovered, the parent environment is forwarded with the runfiles
// discovery variables replaced by the stub's own; otherwise (export flag
// clear, or no runfiles found) the parent environment passes through
// untouched.
func BuildEnv(cfg *stubcfg.Config, r *runfiles.Runfiles, parent []string) []string {
	if !cfg.ExportEnv || r == nil {
		return parent
	}

	vars := r.EnvVars()
	out := make([]string, 0, len(parent)+len(vars))
	for _, name := range []string{runfiles.ManifestFileVar, runfiles.DirVar, runfiles.JavaDirVar} {
		if value, ok := vars[name]; ok {
			out = append(out, name+"="+value)
		}
	}
	for _, kv := range parent {
		if isRunfilesVar(kv) {
			continue
		}
		out = append(out, kv)
	}
	return out
}

func isRunfilesVar(kv string) bool {
	return strings.HasPrefix(kv, runfiles.ManifestFileVar+"=") ||
		strings.HasPrefix(kv, runfiles.DirVar+"=") ||
		strings.HasPrefix(kv, runfiles.JavaDirVar+"=")
}
