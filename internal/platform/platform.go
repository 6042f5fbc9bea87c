package platform

import (
	"runtime"

	"github.com/pkg/errors"

	"github.com/xcodebuild/fastkill/internal/model"
)

// ErrUnsupported is returned by ResolvePortTable on systems without a resolver.
var ErrUnsupported = errors.New("listening port resolution is not supported on " + runtime.GOOS)

// Platform abstracts OS-specific listening socket introspection.
type Platform interface {
	// ResolvePortTable returns the listening TCP ports of every process on
	// the host, keyed by pid. It builds a fresh table on every call.
	ResolvePortTable() (model.PortTable, error)
}

// Options configure the platform implementation. Fields that do not apply to
// the current OS are ignored.
type Options struct {
	// Lister is the diagnostic command, with arguments, whose output is
	// parsed for listening sockets. DefaultLister is used when empty.
	Lister []string
}

func (o Options) lister() []string {
	if len(o.Lister) == 0 {
		return DefaultLister
	}
	return o.Lister
}

// New returns the implementation for the current OS, selected at build time
// by platform_unix.go, platform_windows.go or platform_other.go.
func New(opts Options) Platform {
	return newPlatform(opts)
}
