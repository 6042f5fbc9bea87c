package platform

import (
	"os/exec"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/xcodebuild/fastkill/internal/model"
)

// DefaultLister lists TCP listening sockets with numeric hosts and ports.
var DefaultLister = []string{"lsof", "-nP", "-iTCP", "-sTCP:LISTEN"}

// Columns of the lister output, 0-indexed after splitting on runs of whitespace:
//
//	COMMAND   PID  USER  FD   TYPE  DEVICE              SIZE/OFF  NODE  NAME
//	nginx     812  root  6u   IPv4  0x5a2d3c1e0b7f4e21  0t0       TCP   *:8080 (LISTEN)
//	postgres  977  pg    7u   IPv6  0x5a2d3c1e0b7f5a09  0t0       TCP   [::1]:5432 (LISTEN)
//
// Only lines containing listenMarker are parsed. The port is the text after
// the last colon of the NAME column.
const (
	lsofPIDColumn      = 1
	lsofProtocolColumn = 7
	lsofAddressColumn  = 8

	listenMarker = "LISTEN"
)

// runFunc runs a command and returns its standard output.
type runFunc func(name string, args ...string) ([]byte, error)

// lsofResolver resolves the port table from the output of the lister command.
type lsofResolver struct {
	lister []string
	run    runFunc
}

// ResolvePortTable runs the lister and parses its output. Failing to start
// the lister is an error; a non-zero exit status is not, since lsof exits 1
// when nothing matched or some files could not be inspected.
func (r *lsofResolver) ResolvePortTable() (model.PortTable, error) {
	out, err := r.run(r.lister[0], r.lister[1:]...)
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, errors.Wrapf(err, "failed to execute %s", r.lister[0])
		}
		log.Debug("lister exited with non-zero status", "cmd", r.lister[0], "code", exitErr.ExitCode())
	}
	return parseLsofOutput(out), nil
}

// parseLsofOutput groups the listening sockets found in out by pid. Lines
// that cannot be parsed are skipped.
func parseLsofOutput(out []byte) model.PortTable {
	table := make(model.PortTable)
	for _, line := range strings.Split(string(out), "\n") {
		if !strings.Contains(line, listenMarker) {
			continue
		}
		pid, binding, ok := parseLsofLine(line)
		if !ok {
			log.Debug("skipping unparsable lister line", "line", line)
			continue
		}
		table.Add(pid, binding)
	}
	return table
}

// parseLsofLine extracts the pid and listening binding from one output line.
func parseLsofLine(line string) (int32, model.PortBinding, bool) {
	fields := strings.Fields(line)
	if len(fields) <= lsofAddressColumn {
		return 0, model.PortBinding{}, false
	}

	pid, err := strconv.ParseInt(fields[lsofPIDColumn], 10, 32)
	if err != nil || pid <= 0 {
		return 0, model.PortBinding{}, false
	}

	addr := fields[lsofAddressColumn]
	idx := strings.LastIndex(addr, ":")
	if idx < 0 {
		return 0, model.PortBinding{}, false
	}
	port, err := strconv.ParseUint(addr[idx+1:], 10, 16)
	if err != nil {
		return 0, model.PortBinding{}, false
	}

	return int32(pid), model.PortBinding{
		Protocol: model.Protocol(fields[lsofProtocolColumn]),
		Port:     uint16(port),
	}, true
}
