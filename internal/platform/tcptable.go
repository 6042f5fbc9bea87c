package platform

import (
	"encoding/binary"

	"github.com/xcodebuild/fastkill/internal/model"
)

// mibTCPStateListen is MIB_TCP_STATE_LISTEN.
const mibTCPStateListen = 2

// tcpRowOwnerPID mirrors MIB_TCPROW_OWNER_PID. Ports are stored in network
// byte order in the first two bytes of their DWORD.
type tcpRowOwnerPID struct {
	State      uint32
	LocalAddr  uint32
	LocalPort  [4]byte
	RemoteAddr uint32
	RemotePort [4]byte
	OwningPID  uint32
}

func (r tcpRowOwnerPID) pid() uint32       { return r.OwningPID }
func (r tcpRowOwnerPID) state() uint32     { return r.State }
func (r tcpRowOwnerPID) localPort() uint16 { return binary.BigEndian.Uint16(r.LocalPort[:2]) }

// tcp6RowOwnerPID mirrors MIB_TCP6ROW_OWNER_PID.
type tcp6RowOwnerPID struct {
	LocalAddr     [16]byte
	LocalScopeID  uint32
	LocalPort     [4]byte
	RemoteAddr    [16]byte
	RemoteScopeID uint32
	RemotePort    [4]byte
	State         uint32
	OwningPID     uint32
}

func (r tcp6RowOwnerPID) pid() uint32       { return r.OwningPID }
func (r tcp6RowOwnerPID) state() uint32     { return r.State }
func (r tcp6RowOwnerPID) localPort() uint16 { return binary.BigEndian.Uint16(r.LocalPort[:2]) }

func tcp4Source(query tableQuery) tableSource {
	return source[tcpRowOwnerPID](tableKind{
		protocol:    model.ProtocolTCP,
		listenState: mibTCPStateListen,
		query:       query,
	})
}

func tcp6Source(query tableQuery) tableSource {
	return source[tcp6RowOwnerPID](tableKind{
		protocol:    model.ProtocolTCPv6,
		listenState: mibTCPStateListen,
		query:       query,
	})
}
