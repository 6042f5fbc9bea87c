package model

import (
	"cmp"
	"slices"
)

// Merge attaches to every process the bindings table holds for it and orders
// the result by descending CPU usage. Processes with equal usage keep their
// snapshot order.
func Merge(procs []Process, table PortTable) []Entry {
	entries := make([]Entry, 0, len(procs))
	for _, p := range procs {
		ports := table[p.PID]
		if ports == nil {
			ports = []PortBinding{}
		}
		entries = append(entries, Entry{Process: p, Ports: ports})
	}

	slices.SortStableFunc(entries, func(a, b Entry) int {
		return cmp.Compare(b.CPUPercent, a.CPUPercent)
	})
	return entries
}
