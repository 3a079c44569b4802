// Package catalog provides the read-only locale and layout registries the input
// list resolves identifiers against.
//
// Catalogs are append-only: once a descriptor is added its pointer stays valid and
// unchanged for the lifetime of the catalog, so entries may hold it without owning it.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"inputprefs/internal/hkl"
)

//go:embed data/catalog.yaml
var builtinData embed.FS

// ErrDuplicate is returned when a descriptor with the same id is already present.
var ErrDuplicate = errors.New("catalog: duplicate id")

// Locale describes a language/region identifier.
type Locale struct {
	ID   uint32
	Name string
	// Abbrev is the raw abbreviated language name including its trailing
	// region marker ("ENU", "DEU").
	Abbrev string
}

// Indicator returns the short display label for the locale: the raw abbreviation
// with the trailing region marker removed.
func (l *Locale) Indicator() string {
	r := []rune(l.Abbrev)
	if len(r) == 0 {
		return ""
	}
	return string(r[:len(r)-1])
}

// Key returns the persisted form of the locale id.
func (l *Locale) Key() string {
	return hkl.Key(l.ID)
}

// Layout describes a key-to-character mapping.
type Layout struct {
	ID   uint32
	Name string
	// SpecialID is the variant id placed in the handle high word for layouts
	// that share a language with their base layout (US-Dvorak: 2).
	SpecialID uint16
}

// Key returns the persisted form of the layout id.
func (l *Layout) Key() string {
	return hkl.Key(l.ID)
}

// IsIME reports whether the layout id is in the IME band.
func (l *Layout) IsIME() bool {
	return hkl.IsIME(l.ID)
}

// Catalog holds locale and layout descriptors.
type Catalog struct {
	locales      []*Locale
	layouts      []*Layout
	localeByID   map[uint32]*Locale
	layoutByID   map[uint32]*Layout
	layoutByVari map[uint16]*Layout
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		localeByID:   make(map[uint32]*Locale),
		layoutByID:   make(map[uint32]*Layout),
		layoutByVari: make(map[uint16]*Layout),
	}
}

// Builtin returns a catalog populated from the embedded data set.
func Builtin() (*Catalog, error) {
	f, err := builtinData.Open("data/catalog.yaml")
	if err != nil {
		return nil, fmt.Errorf("open builtin catalog: %w", err)
	}
	defer f.Close()

	c := New()
	if err := c.LoadYAML(f); err != nil {
		return nil, fmt.Errorf("load builtin catalog: %w", err)
	}
	return c, nil
}

// AddLocale appends a locale and returns the stored descriptor.
func (c *Catalog) AddLocale(l Locale) (*Locale, error) {
	if _, ok := c.localeByID[l.ID]; ok {
		return nil, fmt.Errorf("%w: locale %s", ErrDuplicate, hkl.Key(l.ID))
	}
	p := &l
	c.locales = append(c.locales, p)
	c.localeByID[l.ID] = p
	return p, nil
}

// AddLayout appends a layout and returns the stored descriptor.
func (c *Catalog) AddLayout(l Layout) (*Layout, error) {
	if _, ok := c.layoutByID[l.ID]; ok {
		return nil, fmt.Errorf("%w: layout %s", ErrDuplicate, hkl.Key(l.ID))
	}
	if l.SpecialID != 0 {
		if _, ok := c.layoutByVari[l.SpecialID]; ok {
			return nil, fmt.Errorf("%w: layout variant %d", ErrDuplicate, l.SpecialID)
		}
	}
	p := &l
	c.layouts = append(c.layouts, p)
	c.layoutByID[l.ID] = p
	if l.SpecialID != 0 {
		c.layoutByVari[l.SpecialID] = p
	}
	return p, nil
}

// FindLocale looks a locale up by its raw id.
func (c *Catalog) FindLocale(id uint32) *Locale {
	return c.localeByID[id]
}

// FindLayout looks a layout up by its raw id.
func (c *Catalog) FindLayout(id uint32) *Layout {
	return c.layoutByID[id]
}

// LocaleByHandle resolves the locale of a live handle from its language word.
func (c *Catalog) LocaleByHandle(h hkl.Handle) *Locale {
	return c.FindLocale(uint32(h.LangID()))
}

// LayoutByHandle resolves the layout of a live handle.
func (c *Catalog) LayoutByHandle(h hkl.Handle) *Layout {
	switch {
	case h.IsIME():
		return c.FindLayout(uint32(h))
	case h.IsVariant():
		return c.layoutByVari[h.VariantID()]
	case h.HighWord() == 0:
		return c.FindLayout(uint32(h.LangID()))
	default:
		return c.FindLayout(uint32(h.HighWord()))
	}
}

// HandleFor computes the handle the live subsystem assigns to a locale/layout
// pair. It is the inverse of LocaleByHandle and LayoutByHandle.
func HandleFor(locale *Locale, layout *Layout) hkl.Handle {
	lang := uint16(locale.ID)
	switch {
	case layout.IsIME():
		return hkl.Handle(layout.ID)
	case layout.SpecialID != 0:
		return hkl.New(lang, 0xF000|layout.SpecialID)
	default:
		return hkl.New(lang, uint16(layout.ID))
	}
}

// Locales returns all locales sorted by id.
func (c *Catalog) Locales() []*Locale {
	out := append([]*Locale(nil), c.locales...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Layouts returns all layouts sorted by id.
func (c *Catalog) Layouts() []*Layout {
	out := append([]*Layout(nil), c.layouts...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type catalogFile struct {
	Locales []struct {
		ID     string `yaml:"id"`
		Name   string `yaml:"name"`
		Abbrev string `yaml:"abbrev"`
	} `yaml:"locales"`
	Layouts []struct {
		ID        string `yaml:"id"`
		Name      string `yaml:"name"`
		SpecialID uint16 `yaml:"special_id"`
	} `yaml:"layouts"`
}

// LoadYAML appends the descriptors of a YAML catalog document. Descriptors whose
// id is already known are skipped so that extension files can overlap the
// built-in set.
func (c *Catalog) LoadYAML(r io.Reader) error {
	var doc catalogFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode catalog: %w", err)
	}

	for _, l := range doc.Locales {
		id, err := hkl.ParseKey(l.ID)
		if err != nil {
			return fmt.Errorf("locale %q: %w", l.Name, err)
		}
		if _, err := c.AddLocale(Locale{ID: id, Name: l.Name, Abbrev: l.Abbrev}); err != nil && !errors.Is(err, ErrDuplicate) {
			return err
		}
	}
	for _, l := range doc.Layouts {
		id, err := hkl.ParseKey(l.ID)
		if err != nil {
			return fmt.Errorf("layout %q: %w", l.Name, err)
		}
		if _, err := c.AddLayout(Layout{ID: id, Name: l.Name, SpecialID: l.SpecialID}); err != nil && !errors.Is(err, ErrDuplicate) {
			return err
		}
	}
	return nil
}
