// Package inputlist maintains the pending set of per-user input methods.
//
// A List is populated from the live input subsystem, edited in memory with Add,
// Edit, Remove and SetDefault, and reconciled against the persisted configuration
// and the live subsystem only when Commit is called. A List is owned by a single
// goroutine; it does no locking of its own.
package inputlist

import (
	"log/slog"
	"slices"

	"inputprefs/internal/catalog"
	"inputprefs/internal/hkl"
)

// Store is the persisted configuration the list commits to.
type Store interface {
	Reset() error
	SetPreload(position int, key string) error
	SetSubstitute(from, to string) error
}

// Activator is the live input method subsystem.
type Activator interface {
	Active() ([]hkl.Handle, error)
	Default() (hkl.Handle, error)
	ThreadLayout() hkl.Handle
	Activate(key string, substitute bool) (hkl.Handle, error)
	Deactivate(h hkl.Handle) error
	SetDefault(h hkl.Handle) error
}

// Broadcaster announces a new default input method.
type Broadcaster interface {
	InputLanguageChanged(h hkl.Handle) error
}

// Catalog resolves live handles to descriptors.
type Catalog interface {
	LocaleByHandle(h hkl.Handle) *catalog.Locale
	LayoutByHandle(h hkl.Handle) *catalog.Layout
}

// List is the ordered pending input method list.
type List struct {
	entries     []*Entry
	store       Store
	activator   Activator
	broadcaster Broadcaster
	logger      *slog.Logger
}

// Option configures a List.
type Option func(*List)

// WithLogger sets the logger used for commit diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *List) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithBroadcaster sets the receiver of default input method changes.
func WithBroadcaster(b Broadcaster) Option {
	return func(l *List) {
		l.broadcaster = b
	}
}

// New returns an empty list.
func New(store Store, activator Activator, opts ...Option) *List {
	l := &List{
		store:     store,
		activator: activator,
		logger:    slog.Default().With("component", "inputlist"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Create returns a list populated from the live input methods. Methods whose
// locale or layout the catalog does not know are left out, as are handles that
// resolve to a pair already in the list.
func Create(cat Catalog, store Store, activator Activator, opts ...Option) *List {
	l := New(store, activator, opts...)

	active, err := activator.Active()
	if err != nil {
		l.logger.Warn("enumerate live input methods", "error", err)
		return l
	}

	def, err := activator.Default()
	if err != nil {
		def = activator.ThreadLayout()
		l.logger.Debug("system default unavailable, using thread layout", "handle", def.String(), "error", err)
	}

	for _, h := range active {
		locale := cat.LocaleByHandle(h)
		layout := cat.LayoutByHandle(h)
		if locale == nil || layout == nil {
			l.logger.Debug("skipping unknown input method", "handle", h.String())
			continue
		}

		// Distinct handles can resolve to the same pair; the first one wins.
		if dup := l.Find(locale, layout); dup != nil {
			l.logger.Debug("skipping duplicate input method", "handle", h.String(), "kept", dup.handle.String())
			if h == def && l.Default() == nil {
				dup.isDefault = true
			}
			continue
		}

		e := newEntry(locale, layout, Unchanged)
		e.handle = h
		e.isDefault = h == def && l.Default() == nil
		l.entries = append(l.entries, e)
	}
	return l
}

// Entries returns the entries in list order, including those marked Deleted.
func (l *List) Entries() []*Entry {
	return slices.Clone(l.entries)
}

// Len returns the number of entries in the list.
func (l *List) Len() int {
	return len(l.entries)
}

// Default returns the default entry, or nil.
func (l *List) Default() *Entry {
	for _, e := range l.entries {
		if e.isDefault {
			return e
		}
	}
	return nil
}

// Find returns the entry holding the locale/layout pair, or nil.
func (l *List) Find(locale *catalog.Locale, layout *catalog.Layout) *Entry {
	if locale == nil || layout == nil {
		return nil
	}
	for _, e := range l.entries {
		if e.matches(locale, layout) {
			return e
		}
	}
	return nil
}

// Add appends a new pending entry. It returns false when either descriptor is
// nil or the pair is already in the list.
func (l *List) Add(locale *catalog.Locale, layout *catalog.Layout) bool {
	if locale == nil || layout == nil {
		return false
	}
	if l.Find(locale, layout) != nil {
		return false
	}
	l.entries = append(l.entries, newEntry(locale, layout, Added))
	return true
}

// Edit points an entry at a new locale/layout pair. Committed entries become
// Edited so the next commit reloads them; pending additions stay Added. It
// returns false for nil arguments, entries not in the list, Deleted entries and
// pairs already held by another entry.
func (l *List) Edit(e *Entry, locale *catalog.Locale, layout *catalog.Layout) bool {
	if e == nil || locale == nil || layout == nil || l.index(e) < 0 {
		return false
	}
	if e.state == Deleted {
		return false
	}
	if e.matches(locale, layout) {
		return true
	}
	if l.Find(locale, layout) != nil {
		return false
	}

	e.locale = locale
	e.layout = layout
	e.indicator = locale.Indicator()
	if e.state != Added {
		e.state = Edited
	}
	return true
}

// Remove drops a pending addition outright and marks any other entry Deleted.
// When the removed entry was the default, the next live entry (or else the
// previous one) takes over.
func (l *List) Remove(e *Entry) {
	if e == nil {
		return
	}
	i := l.index(e)
	if i < 0 {
		return
	}

	if e.isDefault {
		e.isDefault = false
		if next := l.successor(i); next != nil {
			next.isDefault = true
		}
	}

	if e.state == Added {
		l.entries = slices.Delete(l.entries, i, i+1)
		return
	}
	e.state = Deleted
}

// successor picks the entry that inherits the default from the entry at i,
// preferring entries that will survive the next commit.
func (l *List) successor(i int) *Entry {
	alive := func(e *Entry) bool { return e.state != Deleted }
	for j := i + 1; j < len(l.entries); j++ {
		if alive(l.entries[j]) {
			return l.entries[j]
		}
	}
	for j := i - 1; j >= 0; j-- {
		if alive(l.entries[j]) {
			return l.entries[j]
		}
	}
	if i+1 < len(l.entries) {
		return l.entries[i+1]
	}
	if i > 0 {
		return l.entries[i-1]
	}
	return nil
}

// SetDefault makes e the only default entry.
func (l *List) SetDefault(e *Entry) {
	if e == nil || l.index(e) < 0 {
		return
	}
	for _, cur := range l.entries {
		cur.isDefault = cur == e
	}
}

// Destroy releases every entry.
func (l *List) Destroy() {
	clear(l.entries)
	l.entries = nil
}

func (l *List) index(e *Entry) int {
	return slices.Index(l.entries, e)
}
