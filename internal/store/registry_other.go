//go:build !windows

package store

// Registry is only available on Windows.
type Registry struct{}

// OpenRegistry reports ErrUnsupported outside Windows.
func OpenRegistry() (*Registry, error) {
	return nil, ErrUnsupported
}

func (*Registry) Reset() error { return ErrUnsupported }
func (*Registry) SetPreload(int, string) error { return ErrUnsupported }
func (*Registry) SetSubstitute(string, string) error { return ErrUnsupported }
func (*Registry) Preload() ([]string, error) { return nil, ErrUnsupported }
func (*Registry) Substitutes() (map[string]string, error) { return nil, ErrUnsupported }
func (*Registry) Close() error { return nil }
