package process

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	gopsProcess "github.com/shirou/gopsutil/v4/process"

	"github.com/xcodebuild/fastkill/internal/model"
)

// System holds the most recent snapshot of the live process list. It is
// created once at startup and refreshed explicitly.
type System struct {
	processes   []model.Process
	refreshedAt time.Time
	list        func(ctx context.Context) ([]*gopsProcess.Process, error)
}

// NewSystem returns a System with an empty snapshot. Call Refresh to fill it.
func NewSystem() *System {
	return &System{list: gopsProcess.ProcessesWithContext}
}

// Refresh replaces the snapshot with the processes currently running.
func (s *System) Refresh(ctx context.Context) error {
	procs, err := s.list(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to list processes")
	}

	result := make([]model.Process, 0, len(procs))
	for _, proc := range procs {
		info, ok := toModel(ctx, proc)
		if !ok {
			continue
		}
		result = append(result, info)
	}

	s.processes = result
	s.refreshedAt = time.Now()
	log.Debug("process snapshot refreshed", "count", len(result))
	return nil
}

// Processes returns the snapshot taken by the last Refresh.
func (s *System) Processes() []model.Process {
	return s.processes
}

// RefreshedAt returns when the snapshot was taken, or the zero time.
func (s *System) RefreshedAt() time.Time {
	return s.refreshedAt
}

// toModel reads the metrics of proc. It reports false when the process
// exited before its name could be read.
func toModel(ctx context.Context, proc *gopsProcess.Process) (model.Process, bool) {
	name, err := proc.NameWithContext(ctx)
	if err != nil {
		return model.Process{}, false
	}
	cpu, _ := proc.CPUPercentWithContext(ctx)
	memInfo, _ := proc.MemoryInfoWithContext(ctx)

	var memRSS uint64
	if memInfo != nil {
		memRSS = memInfo.RSS
	}

	return model.Process{
		PID:        proc.Pid,
		Name:       name,
		CPUPercent: cpu,
		MemRSS:     memRSS,
	}, true
}
