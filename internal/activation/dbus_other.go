//go:build !linux

package activation

import "inputprefs/internal/hkl"

// DBus is only available on Linux.
type DBus struct{}

// NewDBus reports ErrUnsupported outside Linux.
func NewDBus() (*DBus, error) {
	return nil, ErrUnsupported
}

func (*DBus) InputLanguageChanged(hkl.Handle) error { return ErrUnsupported }
func (*DBus) Close() error { return nil }
