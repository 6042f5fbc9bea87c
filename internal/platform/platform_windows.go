//go:build windows

package platform

import (
	"golang.org/x/sys/windows"

	"github.com/xcodebuild/fastkill/internal/model"
)

type windowsPlatform struct{}

func newPlatform(Options) Platform { return &windowsPlatform{} }

// ResolvePortTable reads the IPv4 and IPv6 TCP tables one after the other.
// A table that cannot be read contributes nothing.
func (w *windowsPlatform) ResolvePortTable() (model.PortTable, error) {
	return resolveTables(
		tcp4Source(extendedTCPTable(windows.AF_INET)),
		tcp6Source(extendedTCPTable(windows.AF_INET6)),
	), nil
}
