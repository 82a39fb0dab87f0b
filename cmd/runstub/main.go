package main

import (
	"fmt"
	"os"

	"github.com/brandonbloom/runstub/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "runstub: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}
