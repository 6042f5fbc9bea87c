//go:build !linux && !darwin && !windows

package platform

import "github.com/xcodebuild/fastkill/internal/model"

type unsupportedPlatform struct{}

func newPlatform(Options) Platform { return unsupportedPlatform{} }

func (unsupportedPlatform) ResolvePortTable() (model.PortTable, error) {
	return nil, ErrUnsupported
}
