//go:build linux

package activation

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"inputprefs/internal/hkl"
)

// D-Bus names used for the input language change signal.
const (
	SignalPath      = dbus.ObjectPath("/org/inputprefs/InputMethods")
	SignalInterface = "org.inputprefs.InputMethods"
	SignalMember    = "InputLanguageChanged"
)

// DBus broadcasts default input method changes as a session bus signal.
type DBus struct {
	conn *dbus.Conn
}

// NewDBus connects to the session bus.
func NewDBus() (*DBus, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return &DBus{conn: conn}, nil
}

// InputLanguageChanged emits the signal carrying the handle and its key.
// Signals are fire and forget; no receiver is waited on.
func (d *DBus) InputLanguageChanged(h hkl.Handle) error {
	if err := d.conn.Emit(SignalPath, SignalInterface+"."+SignalMember, uint32(h), hkl.Key(uint32(h))); err != nil {
		return fmt.Errorf("emit %s: %w", SignalMember, err)
	}
	return nil
}

// Close releases the bus connection.
func (d *DBus) Close() error {
	return d.conn.Close()
}
