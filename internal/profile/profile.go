// Package profile loads declarative input method profiles and applies them to a
// pending input method list.
package profile

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"inputprefs/internal/catalog"
	"inputprefs/internal/hkl"
	"inputprefs/internal/inputlist"
)

// Version is the profile format version understood by this package.
const Version = 1

const schemaURL = "profile-v1.schema.json"

//go:embed schema/profile.schema.json
var schemaData []byte

// ErrInvalid is returned for profiles that fail schema validation.
var ErrInvalid = errors.New("invalid profile")

// Method is one desired input method. Locale and Layout are hexadecimal ids.
type Method struct {
	Locale  string `toml:"locale" json:"locale" yaml:"locale"`
	Layout  string `toml:"layout" json:"layout" yaml:"layout"`
	Default bool   `toml:"default" json:"default,omitempty" yaml:"default,omitempty"`
}

// Profile is the desired set of input methods in preference order.
type Profile struct {
	Version int      `toml:"version" json:"version" yaml:"version"`
	Methods []Method `toml:"methods" json:"methods" yaml:"methods"`
}

// schema compiles the embedded profile schema once.
var schema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaData)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	s, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return s, nil
})

// Load reads a profile, choosing the format by file extension: .toml, .json,
// .yaml or .yml.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes and validates a profile in the format named by ext.
func Parse(data []byte, ext string) (*Profile, error) {
	var raw any
	switch ext {
	case ".toml":
		var m map[string]any
		if _, err := toml.Decode(string(data), &m); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
		raw = m
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported profile format %q", ext)
	}

	// Validate the JSON form so every format is checked by the same schema.
	doc, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize profile: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	var instance any
	if err := dec.Decode(&instance); err != nil {
		return nil, fmt.Errorf("normalize profile: %w", err)
	}

	s, err := schema()
	if err != nil {
		return nil, err
	}
	if err := s.Validate(instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	var p Profile
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}

// Result summarizes the pending changes Apply made.
type Result struct {
	Added   int
	Removed int
	Skipped []Method
}

// Changed reports whether Apply touched the list.
func (r Result) Changed() bool {
	return r.Added > 0 || r.Removed > 0
}

type pair struct {
	locale *catalog.Locale
	layout *catalog.Layout
}

// Apply marks the changes that turn list into the profile's set: entries the
// profile does not name are removed, missing ones are added and the profile's
// default, if any, is selected. Entries already present keep their position.
// Methods the catalog cannot resolve are skipped. Nothing is committed.
func Apply(list *inputlist.List, cat *catalog.Catalog, p *Profile, logger *slog.Logger) Result {
	if logger == nil {
		logger = slog.Default().With("component", "profile")
	}

	var (
		res     Result
		want    []pair
		def     pair
		desired = make(map[pair]bool)
	)
	for _, m := range p.Methods {
		pr, ok := resolve(cat, m)
		if !ok {
			logger.Warn("skipping unknown input method", "locale", m.Locale, "layout", m.Layout)
			res.Skipped = append(res.Skipped, m)
			continue
		}
		if desired[pr] {
			continue
		}
		desired[pr] = true
		want = append(want, pr)
		if m.Default {
			def = pr
		}
	}

	for _, e := range list.Entries() {
		if e.State() == inputlist.Deleted {
			continue
		}
		if !desired[pair{e.Locale(), e.Layout()}] {
			list.Remove(e)
			res.Removed++
		}
	}

	for _, pr := range want {
		if list.Add(pr.locale, pr.layout) {
			res.Added++
		}
	}

	if def.locale != nil {
		list.SetDefault(list.Find(def.locale, def.layout))
	}

	logger.Debug("profile applied", "added", res.Added, "removed", res.Removed, "skipped", len(res.Skipped))
	return res
}

func resolve(cat *catalog.Catalog, m Method) (pair, bool) {
	localeID, err := hkl.ParseKey(m.Locale)
	if err != nil {
		return pair{}, false
	}
	layoutID, err := hkl.ParseKey(m.Layout)
	if err != nil {
		return pair{}, false
	}
	pr := pair{cat.FindLocale(localeID), cat.FindLayout(layoutID)}
	return pr, pr.locale != nil && pr.layout != nil
}
