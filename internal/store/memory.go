package store

import (
	"fmt"
	"maps"
	"slices"

	"inputprefs/internal/hkl"
)

// Memory is a process-local Store and LiveStore.
type Memory struct {
	prepared    bool
	preload     map[int]string
	substitutes map[string]string

	live    []hkl.Handle
	liveDef hkl.Handle
}

// NewMemory returns an empty, unprepared memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Reset() error {
	m.preload = make(map[int]string)
	m.substitutes = make(map[string]string)
	m.prepared = true
	return nil
}

func (m *Memory) SetPreload(position int, key string) error {
	if !m.prepared {
		return ErrNotPrepared
	}
	if position < 1 {
		return fmt.Errorf("store: invalid preload position %d", position)
	}
	m.preload[position] = key
	return nil
}

func (m *Memory) SetSubstitute(from, to string) error {
	if !m.prepared {
		return ErrNotPrepared
	}
	m.substitutes[from] = to
	return nil
}

func (m *Memory) Preload() ([]string, error) {
	return sortedByPosition(m.preload), nil
}

func (m *Memory) Substitutes() (map[string]string, error) {
	out := make(map[string]string, len(m.substitutes))
	maps.Copy(out, m.substitutes)
	return out, nil
}

func (m *Memory) LiveMethods() ([]hkl.Handle, hkl.Handle, error) {
	return slices.Clone(m.live), m.liveDef, nil
}

func (m *Memory) SaveLiveMethods(handles []hkl.Handle, def hkl.Handle) error {
	m.live = slices.Clone(handles)
	m.liveDef = def
	return nil
}

func (m *Memory) Close() error {
	return nil
}
