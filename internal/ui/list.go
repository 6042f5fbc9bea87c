package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/xcodebuild/fastkill/internal/model"
)

// WriteTable prints entries as an aligned table.
func WriteTable(w io.Writer, entries []model.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PID\tNAME\tCPU%\tMEM\tPORTS")
	for _, e := range entries {
		ports := e.PortsString()
		if ports == "" {
			ports = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\t%s\n",
			e.PID, truncate(e.Name, 32), e.CPUPercent, humanize.IBytes(e.MemRSS), ports)
	}
	return tw.Flush()
}

// WriteJSON prints entries as an indented JSON array.
func WriteJSON(w io.Writer, entries []model.Entry) error {
	if entries == nil {
		entries = []model.Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// truncate shortens s to maxLen display columns, "..." included, without
// splitting a character.
func truncate(s string, maxLen int) string {
	return ansi.Truncate(s, maxLen, "...")
}
