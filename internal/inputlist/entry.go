package inputlist

import (
	"inputprefs/internal/catalog"
	"inputprefs/internal/hkl"
)

// State is the pending change recorded for an entry.
type State int

const (
	// Unchanged entries match the live and persisted state.
	Unchanged State = iota
	// Added entries exist only in the list until the next commit.
	Added
	// Deleted entries are unloaded and dropped on the next commit.
	Deleted
	// Edited entries are unloaded and loaded again with new parameters.
	Edited
)

func (s State) String() string {
	switch s {
	case Unchanged:
		return "unchanged"
	case Added:
		return "added"
	case Deleted:
		return "deleted"
	case Edited:
		return "edited"
	default:
		return "unknown"
	}
}

// Entry is one installed or pending input method. Descriptors are borrowed from
// the catalog.
type Entry struct {
	locale    *catalog.Locale
	layout    *catalog.Layout
	indicator string
	handle    hkl.Handle
	state     State
	isDefault bool
}

func newEntry(locale *catalog.Locale, layout *catalog.Layout, state State) *Entry {
	return &Entry{
		locale:    locale,
		layout:    layout,
		indicator: locale.Indicator(),
		state:     state,
	}
}

func (e *Entry) Locale() *catalog.Locale { return e.locale }
func (e *Entry) Layout() *catalog.Layout { return e.layout }

// Indicator is the short language label shown for the entry.
func (e *Entry) Indicator() string { return e.indicator }

// Handle is the live handle, zero until the entry is loaded.
func (e *Entry) Handle() hkl.Handle { return e.handle }

func (e *Entry) State() State { return e.state }
func (e *Entry) IsDefault() bool { return e.isDefault }

// IsIME reports whether the entry's layout is an IME.
func (e *Entry) IsIME() bool { return e.layout.IsIME() }

// Key returns the identifier the entry is persisted and activated under: the
// full layout id for IMEs, the locale id otherwise.
func (e *Entry) Key() string {
	if e.IsIME() {
		return e.layout.Key()
	}
	return e.locale.Key()
}

// NeedsSubstitute reports whether committing the entry writes a substitute
// mapping from its locale to its layout.
func (e *Entry) NeedsSubstitute() bool {
	return !e.IsIME() && e.locale.ID != e.layout.ID
}

func (e *Entry) matches(locale *catalog.Locale, layout *catalog.Layout) bool {
	return e.locale.ID == locale.ID && e.layout.ID == layout.ID
}
