// Package activation implements the live input method boundary: loading and
// unloading input methods, selecting the default, and announcing default changes.
//
// On Windows the user32 keyboard layout API is used directly. Elsewhere a Session
// keeps the live set in process and persists it through a store.LiveStore so
// successive command invocations see the same state.
package activation

import (
	"errors"
	"log/slog"

	"inputprefs/internal/hkl"
)

var (
	// ErrUnknownKey is returned when a key resolves to no locale or layout.
	ErrUnknownKey = errors.New("activation: unknown input method key")

	// ErrNotLoaded is returned when a handle is not in the live set.
	ErrNotLoaded = errors.New("activation: input method not loaded")

	// ErrNoDefault is returned when no system default can be read.
	ErrNoDefault = errors.New("activation: no default input method")

	// ErrLastMethod is returned when unloading would leave no input method.
	ErrLastMethod = errors.New("activation: cannot unload the last input method")

	// ErrUnsupported is returned for backends unavailable on this platform.
	ErrUnsupported = errors.New("activation: backend not supported on this platform")
)

// Broadcaster announces a new default input method to interested receivers.
// Implementations post the notification and return without waiting for delivery.
type Broadcaster interface {
	InputLanguageChanged(h hkl.Handle) error
}

// Recorder is a Broadcaster that remembers what it was asked to announce.
type Recorder struct {
	Sent []hkl.Handle
}

func (r *Recorder) InputLanguageChanged(h hkl.Handle) error {
	r.Sent = append(r.Sent, h)
	return nil
}

// LogBroadcaster announces changes only to the log, for sessions with no
// notification channel.
type LogBroadcaster struct {
	Logger *slog.Logger
}

func (b LogBroadcaster) InputLanguageChanged(h hkl.Handle) error {
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("input language changed", "handle", h.String(), "key", hkl.Key(uint32(h)))
	return nil
}
