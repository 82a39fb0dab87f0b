//go:build unix

package launch

import (
	"fmt"
	"syscall"
)

// Exec replaces the current process image with the target. It returns only
// on failure.
func Exec(argv, env []string) error {
	err := syscall.Exec(argv[0], argv, env)
	return fmt.Errorf("%w: exec %s: %v", ErrLaunchFailed, argv[0], err)
}
