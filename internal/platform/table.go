package platform

import (
	"encoding/binary"
	"math"
	"runtime"
	"unsafe"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/xcodebuild/fastkill/internal/model"
)

// tableStatus is the return code of a connection table query.
type tableStatus uint32

const (
	statusSuccess            tableStatus = 0   // NO_ERROR
	statusInsufficientBuffer tableStatus = 122 // ERROR_INSUFFICIENT_BUFFER
)

// tableQuery fills buf with a connection table of at most *size bytes. When
// the table does not fit, it stores the required size in *size and reports
// statusInsufficientBuffer. buf is nil on the sizing call.
type tableQuery func(buf *byte, size *uint32) tableStatus

// row is one record of a connection table.
type row interface {
	pid() uint32
	state() uint32
	// localPort returns the local port in host byte order.
	localPort() uint16
}

// tableLayout mirrors the in-memory layout of a connection table: a row
// count followed by that many rows.
type tableLayout[R row] struct {
	numEntries uint32
	rows       [1]R
}

// tableKind describes one connection table.
type tableKind struct {
	protocol    model.Protocol
	listenState uint32
	query       tableQuery
}

// listener is a listening socket copied out of a connection table.
type listener struct {
	pid     int32
	binding model.PortBinding
}

// rowView returns the rows held in buf as a slice borrowed from buf. The
// count stored in the table is checked against the size of buf.
func rowView[R row](buf []byte) ([]R, error) {
	var layout tableLayout[R]
	offset := unsafe.Offsetof(layout.rows)
	if uintptr(len(buf)) < offset {
		return nil, errors.Errorf("table buffer of %d bytes has no room for a header", len(buf))
	}

	n := binary.NativeEndian.Uint32(buf[:unsafe.Sizeof(layout.numEntries)])
	if n == 0 {
		return nil, nil
	}
	need := offset + uintptr(n)*unsafe.Sizeof(layout.rows[0])
	if need > uintptr(len(buf)) {
		return nil, errors.Errorf("table reports %d rows (%d bytes) but buffer holds %d bytes", n, need, len(buf))
	}
	return unsafe.Slice((*R)(unsafe.Pointer(&buf[offset])), n), nil
}

// withRows asks the query for the size of its table, allocates a buffer of
// that size, fills it and hands the rows to visit. The rows are only valid
// during visit.
func withRows[R row](query tableQuery, visit func(rows []R)) error {
	var size uint32
	switch status := query(nil, &size); status {
	case statusSuccess:
		// Nothing to size: the table is empty.
		return nil
	case statusInsufficientBuffer:
	default:
		return errors.Errorf("size query failed with status %d", status)
	}
	if size == 0 {
		return errors.New("size query reported an empty buffer")
	}

	buf := make([]byte, size)
	if status := query(&buf[0], &size); status != statusSuccess {
		return errors.Errorf("table query failed with status %d", status)
	}

	rows, err := rowView[R](buf)
	if err != nil {
		return err
	}
	visit(rows)
	runtime.KeepAlive(buf)
	return nil
}

// listeners returns the rows of kind's table that are in the listening state.
func listeners[R row](kind tableKind) ([]listener, error) {
	var out []listener
	err := withRows(kind.query, func(rows []R) {
		for _, r := range rows {
			if r.state() != kind.listenState {
				continue
			}
			// Process ids are int32 everywhere else.
			if r.pid() > math.MaxInt32 {
				log.Debug("skipping row with out of range pid", "protocol", kind.protocol, "pid", r.pid())
				continue
			}
			out = append(out, listener{
				pid:     int32(r.pid()),
				binding: model.PortBinding{Protocol: kind.protocol, Port: r.localPort()},
			})
		}
	})
	if err != nil {
		return nil, errors.Wrapf(err, "%s table", kind.protocol)
	}
	return out, nil
}

// tableSource yields the listeners of one connection table.
type tableSource func() ([]listener, error)

func source[R row](kind tableKind) tableSource {
	return func() ([]listener, error) {
		return listeners[R](kind)
	}
}

// resolveTables queries every source in turn and merges their listeners. A
// failing source contributes nothing and does not affect the others.
func resolveTables(sources ...tableSource) model.PortTable {
	table := make(model.PortTable)
	for _, src := range sources {
		found, err := src()
		if err != nil {
			log.Debug("skipping connection table", "err", err)
			continue
		}
		for _, l := range found {
			table.Add(l.pid, l.binding)
		}
	}
	return table
}
