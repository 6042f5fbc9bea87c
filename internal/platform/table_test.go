package platform

import (
	"encoding/binary"
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xcodebuild/fastkill/internal/model"
)

// encodeTable lays rows out the way the OS does: a row count followed by the rows.
func encodeTable[R row](rows []R) []byte {
	var layout tableLayout[R]
	offset := unsafe.Offsetof(layout.rows)
	rowSize := unsafe.Sizeof(layout.rows[0])

	buf := make([]byte, offset+uintptr(len(rows))*rowSize)
	binary.NativeEndian.PutUint32(buf, uint32(len(rows)))
	if len(rows) > 0 {
		copy(buf[offset:], unsafe.Slice((*byte)(unsafe.Pointer(&rows[0])), uintptr(len(rows))*rowSize))
	}
	return buf
}

// fakeQuery serves a table through the size-then-fill protocol. Statuses
// queued in script are returned as is by the matching call.
type fakeQuery struct {
	table  []byte
	script []tableStatus
	calls  int
}

func (f *fakeQuery) query(buf *byte, size *uint32) tableStatus {
	f.calls++
	if len(f.script) > 0 {
		status := f.script[0]
		f.script = f.script[1:]
		if status != statusSuccess {
			*size = uint32(len(f.table))
		}
		return status
	}
	if buf == nil || int(*size) < len(f.table) {
		*size = uint32(len(f.table))
		return statusInsufficientBuffer
	}
	copy(unsafe.Slice(buf, *size), f.table)
	*size = uint32(len(f.table))
	return statusSuccess
}

func netPort(port uint16) [4]byte {
	var b [4]byte
	binary.BigEndian.PutUint16(b[:2], port)
	return b
}

func tcp4Row(pid uint32, state uint32, port uint16) tcpRowOwnerPID {
	return tcpRowOwnerPID{State: state, LocalPort: netPort(port), RemotePort: netPort(0), OwningPID: pid}
}

func tcp6Row(pid uint32, state uint32, port uint16) tcp6RowOwnerPID {
	return tcp6RowOwnerPID{State: state, LocalPort: netPort(port), OwningPID: pid}
}

const mibTCPStateEstablished = 5

func TestRowLayoutSizes(t *testing.T) {
	assert.Equal(t, uintptr(24), unsafe.Sizeof(tcpRowOwnerPID{}))
	assert.Equal(t, uintptr(56), unsafe.Sizeof(tcp6RowOwnerPID{}))

	var layout tableLayout[tcp6RowOwnerPID]
	assert.Equal(t, uintptr(4), unsafe.Offsetof(layout.rows))
}

func TestLocalPortByteOrder(t *testing.T) {
	row := tcpRowOwnerPID{LocalPort: [4]byte{0x1f, 0x90, 0, 0}}
	assert.Equal(t, uint16(8080), row.localPort())

	row6 := tcp6RowOwnerPID{LocalPort: [4]byte{0x00, 0x50, 0, 0}}
	assert.Equal(t, uint16(80), row6.localPort())
}

func TestWithRows_InsufficientThenSuccess(t *testing.T) {
	rows := []tcpRowOwnerPID{
		tcp4Row(4, mibTCPStateListen, 445),
		tcp4Row(812, mibTCPStateListen, 8080),
		tcp4Row(812, mibTCPStateEstablished, 8080),
	}
	q := &fakeQuery{table: encodeTable(rows)}

	var got []tcpRowOwnerPID
	err := withRows(q.query, func(view []tcpRowOwnerPID) {
		got = append(got, view...)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, q.calls)
	assert.Equal(t, rows, got)
}

func TestWithRows_ImmediateSuccess(t *testing.T) {
	q := &fakeQuery{script: []tableStatus{statusSuccess}}

	visited := false
	err := withRows(q.query, func([]tcpRowOwnerPID) { visited = true })
	require.NoError(t, err)
	assert.False(t, visited)
	assert.Equal(t, 1, q.calls)
}

func TestWithRows_EmptyTable(t *testing.T) {
	q := &fakeQuery{table: encodeTable[tcpRowOwnerPID](nil)}

	var got []tcpRowOwnerPID
	err := withRows(q.query, func(view []tcpRowOwnerPID) { got = view })
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWithRows_Faults(t *testing.T) {
	table := encodeTable([]tcpRowOwnerPID{tcp4Row(1, mibTCPStateListen, 80)})
	tests := []struct {
		name   string
		script []tableStatus
	}{
		{"size query fails", []tableStatus{87}},
		{"fill query fails", []tableStatus{statusInsufficientBuffer, 87}},
		{"table grew between calls", []tableStatus{statusInsufficientBuffer, statusInsufficientBuffer}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &fakeQuery{table: table, script: tt.script}
			err := withRows(q.query, func([]tcpRowOwnerPID) {
				t.Fatal("rows must not be visited on a fault")
			})
			assert.Error(t, err)
		})
	}
}

func TestWithRows_ZeroSizeReported(t *testing.T) {
	q := func(buf *byte, size *uint32) tableStatus {
		*size = 0
		return statusInsufficientBuffer
	}
	err := withRows(q, func([]tcpRowOwnerPID) {})
	assert.Error(t, err)
}

func TestRowView_CountExceedsBuffer(t *testing.T) {
	buf := encodeTable([]tcpRowOwnerPID{tcp4Row(1, mibTCPStateListen, 80)})
	binary.NativeEndian.PutUint32(buf, 5)

	_, err := rowView[tcpRowOwnerPID](buf)
	assert.Error(t, err)

	_, err = rowView[tcpRowOwnerPID](buf[:2])
	assert.Error(t, err)
}

func TestListeners_FiltersListenState(t *testing.T) {
	q := &fakeQuery{table: encodeTable([]tcpRowOwnerPID{
		tcp4Row(812, mibTCPStateListen, 8080),
		tcp4Row(812, mibTCPStateEstablished, 8080),
		tcp4Row(977, mibTCPStateListen, 5432),
	})}

	got, err := listeners[tcpRowOwnerPID](tableKind{
		protocol:    model.ProtocolTCP,
		listenState: mibTCPStateListen,
		query:       q.query,
	})
	require.NoError(t, err)
	assert.Equal(t, []listener{
		{pid: 812, binding: model.PortBinding{Protocol: model.ProtocolTCP, Port: 8080}},
		{pid: 977, binding: model.PortBinding{Protocol: model.ProtocolTCP, Port: 5432}},
	}, got)
}

func TestListeners_SkipsOutOfRangePID(t *testing.T) {
	q := &fakeQuery{table: encodeTable([]tcpRowOwnerPID{
		tcp4Row(math.MaxInt32+1, mibTCPStateListen, 8080),
		tcp4Row(math.MaxUint32, mibTCPStateListen, 8081),
		tcp4Row(math.MaxInt32, mibTCPStateListen, 8082),
	})}

	got, err := listeners[tcpRowOwnerPID](tableKind{
		protocol:    model.ProtocolTCP,
		listenState: mibTCPStateListen,
		query:       q.query,
	})
	require.NoError(t, err)
	assert.Equal(t, []listener{
		{pid: math.MaxInt32, binding: model.PortBinding{Protocol: model.ProtocolTCP, Port: 8082}},
	}, got)
}

func TestResolveTables(t *testing.T) {
	v4 := &fakeQuery{table: encodeTable([]tcpRowOwnerPID{
		tcp4Row(812, mibTCPStateListen, 8080),
		tcp4Row(977, mibTCPStateListen, 5432),
	})}
	v6 := &fakeQuery{table: encodeTable([]tcp6RowOwnerPID{
		tcp6Row(812, mibTCPStateListen, 8080),
		tcp6Row(1200, mibTCPStateEstablished, 443),
	})}

	table := resolveTables(tcp4Source(v4.query), tcp6Source(v6.query))
	assert.Equal(t, model.PortTable{
		812: {
			{Protocol: model.ProtocolTCP, Port: 8080},
			{Protocol: model.ProtocolTCPv6, Port: 8080},
		},
		977: {{Protocol: model.ProtocolTCP, Port: 5432}},
	}, table)
}

func TestResolveTables_FailingTableIsIsolated(t *testing.T) {
	never := func(buf *byte, size *uint32) tableStatus {
		*size = 64
		return statusInsufficientBuffer
	}
	v6 := &fakeQuery{table: encodeTable([]tcp6RowOwnerPID{tcp6Row(812, mibTCPStateListen, 8080)})}

	table := resolveTables(tcp4Source(never), tcp6Source(v6.query))
	assert.Equal(t, model.PortTable{
		812: {{Protocol: model.ProtocolTCPv6, Port: 8080}},
	}, table)
}

func TestResolveTables_AllFailing(t *testing.T) {
	broken := func(*byte, *uint32) tableStatus { return 87 }
	table := resolveTables(tcp4Source(broken), tcp6Source(broken))
	assert.NotNil(t, table)
	assert.Empty(t, table)
}
