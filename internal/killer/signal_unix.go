//go:build unix

package killer

import "golang.org/x/sys/unix"

func forceKill(pid int32) error {
	return unix.Kill(int(pid), unix.SIGKILL)
}
