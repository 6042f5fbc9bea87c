//go:build windows

package platform

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modIphlpapi = windows.NewLazySystemDLL("iphlpapi.dll")

	procGetExtendedTCPTable = modIphlpapi.NewProc("GetExtendedTcpTable")
)

// tcpTableOwnerPIDAll is TCP_TABLE_OWNER_PID_ALL of TCP_TABLE_CLASS.
const tcpTableOwnerPIDAll = 5

// extendedTCPTable queries GetExtendedTcpTable for the given address family.
func extendedTCPTable(family uint32) tableQuery {
	return func(buf *byte, size *uint32) tableStatus {
		if err := procGetExtendedTCPTable.Find(); err != nil {
			return tableStatus(windows.ERROR_PROC_NOT_FOUND)
		}
		ret, _, _ := procGetExtendedTCPTable.Call(
			uintptr(unsafe.Pointer(buf)),
			uintptr(unsafe.Pointer(size)),
			0, // unsorted
			uintptr(family),
			tcpTableOwnerPIDAll,
			0,
		)
		return tableStatus(ret)
	}
}
