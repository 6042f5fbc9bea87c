//go:build linux || darwin

package platform

import (
	"os"
	"os/exec"
)

func newPlatform(opts Options) Platform {
	return &lsofResolver{lister: opts.lister(), run: runCommand}
}

// runCommand runs name with the C locale so the output columns are stable.
func runCommand(name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	return cmd.Output()
}
