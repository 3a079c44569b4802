// Package hkl holds the input method identifier helpers shared by the catalog,
// the activation backends and the pending list.
//
// A Handle is the 32-bit value the live input subsystem hands out for a loaded
// input method. Its low word is the language identifier; its high word names the
// layout, either directly (0x0409), through a variant id (0xF0nn) or as part of an
// IME identifier (0xEnnn).
package hkl

import (
	"fmt"
	"strconv"
	"strings"
)

// Handle identifies a live-loaded input method. The zero value means "not loaded".
type Handle uint32

// Identifier bands carried in the high word.
const (
	bandMask    = 0xF000
	imeBand     = 0xE000
	variantBand = 0xF000
)

// New builds a handle from a language id and a high word.
func New(lang, high uint16) Handle {
	return Handle(uint32(high)<<16 | uint32(lang))
}

// LangID returns the language identifier in the low word.
func (h Handle) LangID() uint16 {
	return uint16(h & 0xFFFF)
}

// HighWord returns the layout part of the handle.
func (h Handle) HighWord() uint16 {
	return uint16(h >> 16)
}

// IsIME reports whether the handle belongs to an IME.
func (h Handle) IsIME() bool {
	return IsIME(uint32(h))
}

// IsVariant reports whether the high word carries a layout variant id.
func (h Handle) IsVariant() bool {
	return h.HighWord()&bandMask == variantBand
}

// VariantID returns the layout variant id when IsVariant is true.
func (h Handle) VariantID() uint16 {
	return h.HighWord() &^ bandMask
}

// Valid reports whether the handle refers to anything.
func (h Handle) Valid() bool {
	return h != 0
}

func (h Handle) String() string {
	return fmt.Sprintf("0x%08X", uint32(h))
}

// IsIME reports whether a combined identifier falls in the reserved IME band.
func IsIME(id uint32) bool {
	return uint16(id>>16)&bandMask == imeBand
}

// Key formats an identifier the way it is persisted: eight upper-case hex digits.
func Key(id uint32) string {
	return fmt.Sprintf("%08X", id)
}

// ParseKey parses a persisted identifier. A leading "0x" is accepted.
func ParseKey(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" || len(s) > 8 {
		return 0, fmt.Errorf("invalid input method key %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid input method key %q: %w", s, err)
	}
	return uint32(v), nil
}
