//go:build windows

package activation

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"inputprefs/internal/hkl"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procGetKeyboardLayoutList   = user32.NewProc("GetKeyboardLayoutList")
	procGetKeyboardLayout       = user32.NewProc("GetKeyboardLayout")
	procLoadKeyboardLayoutW     = user32.NewProc("LoadKeyboardLayoutW")
	procUnloadKeyboardLayout    = user32.NewProc("UnloadKeyboardLayout")
	procSystemParametersInfoW   = user32.NewProc("SystemParametersInfoW")
	procBroadcastSystemMessageW = user32.NewProc("BroadcastSystemMessageW")
)

const (
	spiGetDefaultInputLang = 0x0059
	spiSetDefaultInputLang = 0x005A

	klfSubstituteOK = 0x00000002
	klfNoTellShell  = 0x00000080

	bsfPostMessage       = 0x00000010
	bsmAllComponents     = 0x00000000
	wmInputLangChangeReq = 0x0050
)

// Windows drives the user32 keyboard layout API.
type Windows struct{}

// NewWindows returns the Windows live activation backend.
func NewWindows() (*Windows, error) {
	if err := user32.Load(); err != nil {
		return nil, fmt.Errorf("load user32: %w", err)
	}
	return &Windows{}, nil
}

// HKL values are pointer sized and sign extended on 64-bit.
func toSys(h hkl.Handle) uintptr {
	return uintptr(int64(int32(h)))
}

func fromSys(v uintptr) hkl.Handle {
	return hkl.Handle(uint32(v))
}

func (w *Windows) Active() ([]hkl.Handle, error) {
	n, _, _ := procGetKeyboardLayoutList.Call(0, 0)
	if n == 0 {
		return nil, nil
	}
	buf := make([]uintptr, n)
	got, _, err := procGetKeyboardLayoutList.Call(n, uintptr(unsafe.Pointer(&buf[0])))
	if got == 0 {
		return nil, fmt.Errorf("GetKeyboardLayoutList: %w", err)
	}
	out := make([]hkl.Handle, 0, got)
	for _, v := range buf[:got] {
		out = append(out, fromSys(v))
	}
	return out, nil
}

func (w *Windows) Default() (hkl.Handle, error) {
	var v uintptr
	r, _, err := procSystemParametersInfoW.Call(spiGetDefaultInputLang, 0, uintptr(unsafe.Pointer(&v)), 0)
	if r == 0 {
		return 0, fmt.Errorf("%w: %v", ErrNoDefault, err)
	}
	return fromSys(v), nil
}

func (w *Windows) ThreadLayout() hkl.Handle {
	r, _, _ := procGetKeyboardLayout.Call(0)
	return fromSys(r)
}

func (w *Windows) Activate(key string, substitute bool) (hkl.Handle, error) {
	p, err := windows.UTF16PtrFromString(key)
	if err != nil {
		return 0, err
	}
	flags := uintptr(klfNoTellShell)
	if substitute {
		flags |= klfSubstituteOK
	}
	r, _, callErr := procLoadKeyboardLayoutW.Call(uintptr(unsafe.Pointer(p)), flags)
	if r == 0 {
		return 0, fmt.Errorf("LoadKeyboardLayoutW %s: %w", key, callErr)
	}
	return fromSys(r), nil
}

func (w *Windows) Deactivate(h hkl.Handle) error {
	r, _, err := procUnloadKeyboardLayout.Call(toSys(h))
	if r == 0 {
		return fmt.Errorf("UnloadKeyboardLayout %s: %w", h, err)
	}
	return nil
}

func (w *Windows) SetDefault(h hkl.Handle) error {
	v := toSys(h)
	r, _, err := procSystemParametersInfoW.Call(spiSetDefaultInputLang, 0, uintptr(unsafe.Pointer(&v)), 0)
	if r == 0 {
		return fmt.Errorf("SystemParametersInfoW: %w", err)
	}
	return nil
}

// InputLanguageChanged posts WM_INPUTLANGCHANGEREQUEST to all top-level
// components without waiting for them.
func (w *Windows) InputLanguageChanged(h hkl.Handle) error {
	recipients := uint32(bsmAllComponents)
	r, _, err := procBroadcastSystemMessageW.Call(
		bsfPostMessage,
		uintptr(unsafe.Pointer(&recipients)),
		wmInputLangChangeReq,
		0,
		toSys(h),
	)
	if int32(r) < 0 {
		return fmt.Errorf("BroadcastSystemMessageW: %w", err)
	}
	return nil
}
