package model

import (
	"fmt"
	"strings"
)

// Protocol names the socket table a binding was observed in.
type Protocol string

// Known protocols. Command output supplies the protocol name verbatim, so a
// PortBinding may carry other values.
const (
	ProtocolTCP   Protocol = "TCP"
	ProtocolTCPv6 Protocol = "TCPv6"
)

// PortBinding is one listening (protocol, port) pair owned by a process.
type PortBinding struct {
	Protocol Protocol `json:"protocol"`
	Port     uint16   `json:"port"`
}

func (b PortBinding) String() string {
	return fmt.Sprintf("%s:%d", b.Protocol, b.Port)
}

// PortTable maps a process id to the listening ports it owns.
// A pid is present only if at least one binding was observed for it.
type PortTable map[int32][]PortBinding

// Add records a binding for pid, after any binding already recorded for it.
func (t PortTable) Add(pid int32, b PortBinding) {
	t[pid] = append(t[pid], b)
}

// Process is one entry of a process snapshot.
type Process struct {
	PID        int32   `json:"pid"`
	Name       string  `json:"name"`
	CPUPercent float64 `json:"cpu_percent"`
	MemRSS     uint64  `json:"mem_rss"`
}

// Entry is a process joined with the listening ports it owns.
type Entry struct {
	Process
	Ports []PortBinding `json:"ports"`
}

// ListensOn reports whether the entry owns a binding on port, under any protocol.
func (e Entry) ListensOn(port uint16) bool {
	for _, b := range e.Ports {
		if b.Port == port {
			return true
		}
	}
	return false
}

// PortsString renders the bindings space separated, e.g. "TCP:8080 TCPv6:8080".
func (e Entry) PortsString() string {
	parts := make([]string, 0, len(e.Ports))
	for _, b := range e.Ports {
		parts = append(parts, b.String())
	}
	return strings.Join(parts, " ")
}
