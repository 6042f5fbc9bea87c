package app

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/xcodebuild/fastkill/internal/model"
	"github.com/xcodebuild/fastkill/internal/platform"
	"github.com/xcodebuild/fastkill/internal/ui"
)

// ErrTryAgain is returned when the chosen process could not be terminated.
var ErrTryAgain = errors.New("there was an error, please try again")

// Snapshot supplies the live process list.
type Snapshot interface {
	Refresh(ctx context.Context) error
	Processes() []model.Process
}

// Picker asks the operator to choose one entry.
type Picker interface {
	Pick(entries []model.Entry) (model.Entry, error)
}

// Terminator kills a process.
type Terminator interface {
	Kill(pid int32) error
}

// Options narrow and shape what Run shows.
type Options struct {
	ListeningOnly bool
	Port          uint16
	List          bool
	JSON          bool
}

type App struct {
	System   Snapshot
	Resolver platform.Platform
	Picker   Picker
	Killer   Terminator
	Out      io.Writer
	Options  Options
}

// Entries refreshes the process snapshot, resolves the listening ports and
// returns the joined, ordered and filtered list.
func (a *App) Entries(ctx context.Context) ([]model.Entry, error) {
	if err := a.System.Refresh(ctx); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table, err := a.Resolver.ResolvePortTable()
	// An interrupted lister exits non-zero with partial output.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		if !errors.Is(err, platform.ErrUnsupported) {
			return nil, errors.Wrap(err, "failed to resolve listening ports")
		}
		log.Warn("listening ports are unavailable", "err", err)
		table = model.PortTable{}
	}
	log.Debug("resolved listening ports", "processes", len(table))

	return filter(model.Merge(a.System.Processes(), table), a.Options), nil
}

// Run lists the processes, lets the operator choose one and kills it. A
// cancelled prompt is not an error; a cancelled ctx is returned as is.
func (a *App) Run(ctx context.Context) error {
	entries, err := a.Entries(ctx)
	if err != nil {
		return err
	}

	if a.Options.List {
		if a.Options.JSON {
			return ui.WriteJSON(a.Out, entries)
		}
		return ui.WriteTable(a.Out, entries)
	}

	if len(entries) == 0 {
		log.Info("no matching processes found")
		return nil
	}

	choice, err := a.Picker.Pick(entries)
	if err != nil {
		if errors.Is(err, ui.ErrCancelled) {
			return nil
		}
		log.Debug("prompt failed", "err", err)
		return errors.WithStack(ErrTryAgain)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := a.Killer.Kill(choice.PID); err != nil {
		log.Debug("kill failed", "pid", choice.PID, "err", err)
		return errors.WithStack(ErrTryAgain)
	}
	fmt.Fprintln(a.Out, ui.Killed(choice.Process))
	return nil
}

// filter keeps the entries matching opts, in order.
func filter(entries []model.Entry, opts Options) []model.Entry {
	if !opts.ListeningOnly && opts.Port == 0 {
		return entries
	}
	kept := entries[:0]
	for _, e := range entries {
		if opts.ListeningOnly && len(e.Ports) == 0 {
			continue
		}
		if opts.Port != 0 && !e.ListensOn(opts.Port) {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}
