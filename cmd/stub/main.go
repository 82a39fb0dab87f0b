// The stub is compiled once per platform as a template: its placeholder
// slots carry sentinels until the finalizer patches them. A finalized stub
// resolves its embedded arguments through runfiles and hands control to the
// target executable.
package main

import (
	"fmt"
	"os"

	"github.com/brandonbloom/runstub/internal/launch"
	"github.com/brandonbloom/runstub/internal/runfiles"
	"github.com/brandonbloom/runstub/internal/stubcfg"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "stub: %v\n", err)
		os.Exit(launch.ExitCode(err))
	}
}

func run() error {
	cfg, err := stubcfg.Load()
	if err != nil {
		return err
	}

	// Discovery trouble short of a malformed manifest is deferred:
	// resolution is only required for transformed arguments.
	r, err := runfiles.Create()
	if err != nil {
		return err
	}

	argv, err := launch.BuildArgv(cfg, r, os.Args[1:])
	if err != nil {
		return err
	}
	env := launch.BuildEnv(cfg, r, os.Environ())
	return launch.Exec(argv, env)
}
