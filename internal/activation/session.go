package activation

import (
	"fmt"
	"log/slog"
	"slices"

	"inputprefs/internal/catalog"
	"inputprefs/internal/hkl"
	"inputprefs/internal/store"
)

// SubstituteSource exposes the persisted substitute mappings consulted when a
// key is activated with substitution allowed.
type SubstituteSource interface {
	Substitutes() (map[string]string, error)
}

// Session is an in-process live input method set.
type Session struct {
	catalog *catalog.Catalog
	subs    SubstituteSource
	logger  *slog.Logger

	loaded []hkl.Handle
	def    hkl.Handle
}

// NewSession returns an empty live set resolving keys against cat.
func NewSession(cat *catalog.Catalog, subs SubstituteSource, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default().With("component", "activation")
	}
	return &Session{catalog: cat, subs: subs, logger: logger}
}

// Restore replaces the live set with what the store remembers.
func (s *Session) Restore(ls store.LiveStore) error {
	handles, def, err := ls.LiveMethods()
	if err != nil {
		return fmt.Errorf("restore live methods: %w", err)
	}
	s.loaded = handles
	s.def = def
	if def.Valid() && !slices.Contains(handles, def) {
		s.def = 0
	}
	return nil
}

// Save writes the live set to the store.
func (s *Session) Save(ls store.LiveStore) error {
	if err := ls.SaveLiveMethods(s.loaded, s.def); err != nil {
		return fmt.Errorf("save live methods: %w", err)
	}
	return nil
}

// Bootstrap populates an empty live set from persisted preload keys, or from
// fallback when nothing is persisted. The first key loaded becomes the default.
func (s *Session) Bootstrap(preload []string, fallback string) {
	if len(s.loaded) > 0 {
		return
	}
	keys := preload
	if len(keys) == 0 && fallback != "" {
		keys = []string{fallback}
	}
	for _, key := range keys {
		h, err := s.Activate(key, true)
		if err != nil {
			s.logger.Debug("bootstrap skipped key", "key", key, "error", err)
			continue
		}
		if !s.def.Valid() {
			s.def = h
		}
	}
}

// Active returns the loaded handles in load order.
func (s *Session) Active() ([]hkl.Handle, error) {
	return slices.Clone(s.loaded), nil
}

// Default returns the system default input method.
func (s *Session) Default() (hkl.Handle, error) {
	if !s.def.Valid() {
		return 0, ErrNoDefault
	}
	return s.def, nil
}

// ThreadLayout returns the input method currently in effect: the default if any,
// else the first loaded one.
func (s *Session) ThreadLayout() hkl.Handle {
	if s.def.Valid() {
		return s.def
	}
	if len(s.loaded) > 0 {
		return s.loaded[0]
	}
	return 0
}

// Activate loads the input method named by key. IME keys name the layout and
// carry the language in their low word; other keys name the locale, and the
// layout is the locale's own unless substitution is allowed and a mapping exists.
func (s *Session) Activate(key string, substitute bool) (hkl.Handle, error) {
	id, err := hkl.ParseKey(key)
	if err != nil {
		return 0, err
	}

	var (
		locale *catalog.Locale
		layout *catalog.Layout
	)
	if hkl.IsIME(id) {
		locale = s.catalog.FindLocale(id & 0xFFFF)
		layout = s.catalog.FindLayout(id)
	} else {
		locale = s.catalog.FindLocale(id)
		layoutID := id
		if substitute && s.subs != nil {
			if target, ok := s.lookupSubstitute(key); ok {
				layoutID = target
			}
		}
		layout = s.catalog.FindLayout(layoutID)
	}
	if locale == nil || layout == nil {
		return 0, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	h := catalog.HandleFor(locale, layout)
	if !slices.Contains(s.loaded, h) {
		s.loaded = append(s.loaded, h)
	}
	return h, nil
}

func (s *Session) lookupSubstitute(key string) (uint32, bool) {
	subs, err := s.subs.Substitutes()
	if err != nil {
		s.logger.Warn("read substitutes", "error", err)
		return 0, false
	}
	target, ok := subs[key]
	if !ok {
		return 0, false
	}
	id, err := hkl.ParseKey(target)
	if err != nil {
		s.logger.Warn("ignoring malformed substitute", "key", key, "target", target)
		return 0, false
	}
	return id, true
}

// Deactivate unloads a handle. The last loaded input method cannot be unloaded.
func (s *Session) Deactivate(h hkl.Handle) error {
	i := slices.Index(s.loaded, h)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotLoaded, h)
	}
	if len(s.loaded) == 1 {
		return ErrLastMethod
	}
	s.loaded = slices.Delete(s.loaded, i, i+1)
	if s.def == h {
		s.def = s.loaded[0]
	}
	return nil
}

// SetDefault makes a loaded handle the system default.
func (s *Session) SetDefault(h hkl.Handle) error {
	if !slices.Contains(s.loaded, h) {
		return fmt.Errorf("%w: %s", ErrNotLoaded, h)
	}
	s.def = h
	return nil
}
