// Package store persists the per-user input method configuration: the ordered
// preload list and the locale-to-layout substitute mappings.
//
// Three backends are provided: an in-memory store for tests, a SQLite store used on
// platforms without a native user registry, and the HKCU\Keyboard Layout registry
// store on Windows.
package store

import (
	"errors"
	"sort"

	"inputprefs/internal/hkl"
)

// Errors returned by the backends.
var (
	// ErrNotPrepared is returned when a write targets an area that Reset has not
	// created.
	ErrNotPrepared = errors.New("store: configuration area not prepared")

	// ErrUnsupported is returned for backends unavailable on this platform.
	ErrUnsupported = errors.New("store: backend not supported on this platform")
)

// Store is the persisted configuration boundary.
type Store interface {
	// Reset deletes the preload and substitute areas and recreates them empty.
	Reset() error

	// SetPreload writes the key at the given 1-based preference position.
	SetPreload(position int, key string) error

	// SetSubstitute maps a locale key to the layout key it should resolve to.
	SetSubstitute(from, to string) error

	// Preload returns the persisted keys ordered by position.
	Preload() ([]string, error)

	// Substitutes returns the persisted substitute mappings.
	Substitutes() (map[string]string, error)

	Close() error
}

// LiveStore remembers the live input method set between processes for
// activation backends that have no native live state.
type LiveStore interface {
	LiveMethods() (handles []hkl.Handle, def hkl.Handle, err error)
	SaveLiveMethods(handles []hkl.Handle, def hkl.Handle) error
}

// sortedByPosition flattens a position map into a key slice.
func sortedByPosition(m map[int]string) []string {
	positions := make([]int, 0, len(m))
	for p := range m {
		positions = append(positions, p)
	}
	sort.Ints(positions)

	out := make([]string, len(positions))
	for i, p := range positions {
		out[i] = m[p]
	}
	return out
}
