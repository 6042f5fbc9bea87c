package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/xcodebuild/fastkill/internal/model"
)

// nameWidth is the display width process names are right-aligned to.
const nameWidth = 35

var killedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))

// Label renders an entry as one selectable line:
//
//	    4242 |                                node | CPU  42.00% | MEM  118 MiB | TCP:3000 TCPv6:3000
func Label(e model.Entry) string {
	pad := nameWidth - lipgloss.Width(e.Name)
	if pad < 0 {
		pad = 0
	}
	return fmt.Sprintf("%8d | %s%s | CPU %6.2f%% | MEM %8s | %s",
		e.PID,
		strings.Repeat(" ", pad),
		e.Name,
		e.CPUPercent,
		humanize.IBytes(e.MemRSS),
		e.PortsString(),
	)
}

// Killed renders the confirmation printed after a process was terminated.
func Killed(p model.Process) string {
	return killedStyle.Render(fmt.Sprintf("Process %s(%d) killed.", p.Name, p.PID))
}
