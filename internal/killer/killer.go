package killer

import (
	"github.com/pkg/errors"
)

// Killer terminates processes without giving them a chance to clean up.
type Killer struct {
	kill func(pid int32) error
}

func New() *Killer {
	return &Killer{kill: forceKill}
}

// Kill sends the platform's non-catchable termination signal to pid.
func (k *Killer) Kill(pid int32) error {
	if pid <= 0 {
		return errors.Errorf("invalid pid %d", pid)
	}
	if err := k.kill(pid); err != nil {
		return errors.Wrapf(err, "failed to kill process %d", pid)
	}
	return nil
}
