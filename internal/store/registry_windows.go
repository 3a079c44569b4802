//go:build windows

package store

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"golang.org/x/sys/windows/registry"
)

const (
	keyboardLayoutPath = `Keyboard Layout`
	preloadPath        = keyboardLayoutPath + `\Preload`
	substitutesPath    = keyboardLayoutPath + `\Substitutes`
)

// Registry is the Store backed by HKEY_CURRENT_USER\Keyboard Layout.
type Registry struct {
	root registry.Key
}

// OpenRegistry returns the current user's keyboard layout store.
func OpenRegistry() (*Registry, error) {
	return &Registry{root: registry.CURRENT_USER}, nil
}

// Reset deletes Preload and Substitutes and recreates both empty.
func (r *Registry) Reset() error {
	if k, err := registry.OpenKey(r.root, keyboardLayoutPath, registry.ALL_ACCESS); err == nil {
		// Missing subkeys are fine; anything else surfaces on recreate.
		_ = registry.DeleteKey(k, "Preload")
		_ = registry.DeleteKey(k, "Substitutes")
		k.Close()
	}

	k, _, err := registry.CreateKey(r.root, keyboardLayoutPath, registry.ALL_ACCESS)
	if err != nil {
		return fmt.Errorf("create %s: %w", keyboardLayoutPath, err)
	}
	defer k.Close()

	for _, name := range []string{"Preload", "Substitutes"} {
		sub, _, err := registry.CreateKey(k, name, registry.ALL_ACCESS)
		if err != nil {
			return fmt.Errorf("create %s\\%s: %w", keyboardLayoutPath, name, err)
		}
		sub.Close()
	}
	return nil
}

func (r *Registry) SetPreload(position int, key string) error {
	k, err := registry.OpenKey(r.root, preloadPath, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("open preload: %w", errors.Join(ErrNotPrepared, err))
	}
	defer k.Close()

	if err := k.SetStringValue(strconv.Itoa(position), key); err != nil {
		return fmt.Errorf("set preload %d: %w", position, err)
	}
	return nil
}

func (r *Registry) SetSubstitute(from, to string) error {
	k, err := registry.OpenKey(r.root, substitutesPath, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("open substitutes: %w", errors.Join(ErrNotPrepared, err))
	}
	defer k.Close()

	if err := k.SetStringValue(from, to); err != nil {
		return fmt.Errorf("set substitute %s: %w", from, err)
	}
	return nil
}

func (r *Registry) Preload() ([]string, error) {
	values, err := r.readValues(preloadPath)
	if err != nil {
		return nil, err
	}

	byPos := make(map[int]string, len(values))
	for name, v := range values {
		pos, err := strconv.Atoi(name)
		if err != nil {
			continue
		}
		byPos[pos] = v
	}
	return sortedByPosition(byPos), nil
}

func (r *Registry) Substitutes() (map[string]string, error) {
	return r.readValues(substitutesPath)
}

func (r *Registry) readValues(path string) (map[string]string, error) {
	k, err := registry.OpenKey(r.root, path, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer k.Close()

	names, err := k.ReadValueNames(0)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	sort.Strings(names)

	out := make(map[string]string, len(names))
	for _, name := range names {
		v, _, err := k.GetStringValue(name)
		if err != nil {
			continue
		}
		out[name] = v
	}
	return out, nil
}

func (r *Registry) Close() error {
	return nil
}
