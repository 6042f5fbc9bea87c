package ui

import (
	"github.com/charmbracelet/huh"
	"github.com/pkg/errors"

	"github.com/xcodebuild/fastkill/internal/model"
)

// ErrCancelled is returned by Pick when the operator aborts the prompt.
var ErrCancelled = errors.New("selection cancelled")

// Picker prompts the operator to choose one process.
type Picker struct {
	Title string
	// Height is the number of visible options; 0 lets the prompt decide.
	Height int
}

func NewPicker() *Picker {
	return &Picker{Title: "Select process to kill:", Height: 20}
}

// Pick shows entries in order and returns the one chosen.
func (p *Picker) Pick(entries []model.Entry) (model.Entry, error) {
	if len(entries) == 0 {
		return model.Entry{}, errors.New("no processes to choose from")
	}

	var selected int
	sel := huh.NewSelect[int]().
		Title(p.Title).
		Options(options(entries)...).
		Filtering(true).
		Value(&selected)
	if p.Height > 0 {
		sel = sel.Height(p.Height)
	}

	if err := huh.NewForm(huh.NewGroup(sel)).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return model.Entry{}, ErrCancelled
		}
		return model.Entry{}, errors.Wrap(err, "prompt failed")
	}
	return entries[selected], nil
}

func options(entries []model.Entry) []huh.Option[int] {
	opts := make([]huh.Option[int], 0, len(entries))
	for i, e := range entries {
		opts = append(opts, huh.NewOption(Label(e), i))
	}
	return opts
}
