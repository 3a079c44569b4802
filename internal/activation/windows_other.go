//go:build !windows

package activation

import "inputprefs/internal/hkl"

// Windows is only available on Windows.
type Windows struct{}

// NewWindows reports ErrUnsupported outside Windows.
func NewWindows() (*Windows, error) {
	return nil, ErrUnsupported
}

func (*Windows) Active() ([]hkl.Handle, error) { return nil, ErrUnsupported }
func (*Windows) Default() (hkl.Handle, error) { return 0, ErrUnsupported }
func (*Windows) ThreadLayout() hkl.Handle { return 0 }
func (*Windows) Activate(string, bool) (hkl.Handle, error) { return 0, ErrUnsupported }
func (*Windows) Deactivate(hkl.Handle) error { return ErrUnsupported }
func (*Windows) SetDefault(hkl.Handle) error { return ErrUnsupported }
func (*Windows) InputLanguageChanged(hkl.Handle) error { return ErrUnsupported }
