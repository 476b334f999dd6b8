//go:build windows

package fix

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sys/windows"

	"github.com/k2io/wofffix/hookingo"
)

var (
	moduser32           = windows.NewLazySystemDLL("user32.dll")
	procCreateWindowExW = moduser32.NewProc("CreateWindowExW")
	procLoadCursorW     = moduser32.NewProc("LoadCursorW")
	procGetWindowLongW  = moduser32.NewProc("GetWindowLongW")
	procSetWindowLongW  = moduser32.NewProc("SetWindowLongW")
	procSetWindowPos    = moduser32.NewProc("SetWindowPos")
	procSetFocus        = moduser32.NewProc("SetFocus")
	procShowCursor      = moduser32.NewProc("ShowCursor")
)

const (
	wsPopup       = 0x80000000
	wsCaption     = 0x00C00000
	wsSysMenu     = 0x00080000
	wsMinimizeBox = 0x00020000

	hwndTop = 0
)

var gwlStyle int32 = -16

// The replacements are called by the host, possibly before Inline has
// returned, so the hooks are published through these.
var (
	windowHook atomic.Pointer[hookingo.InlineHook]
	cursorHook atomic.Pointer[hookingo.InlineHook]
	hookState  atomic.Pointer[State]
)

var (
	createWindowCallback = windows.NewCallback(createWindowExW)
	loadCursorCallback   = windows.NewCallback(loadCursorW)
)

func await(p *atomic.Pointer[hookingo.InlineHook]) *hookingo.InlineHook {
	for {
		if h := p.Load(); h != nil {
			return h
		}
		runtime.Gosched()
	}
}

func installWindow(s *State, h Hooker) error {
	if err := procCreateWindowExW.Find(); err != nil {
		return err
	}
	hookState.Store(s)
	hk, err := h.Inline("CreateWindowExW", procCreateWindowExW.Addr(), createWindowCallback)
	if err != nil {
		return err
	}
	windowHook.Store(hk)
	return nil
}

func installCursor(s *State, h Hooker) error {
	if err := procLoadCursorW.Find(); err != nil {
		return err
	}
	hookState.Store(s)
	hk, err := h.Inline("LoadCursorW", procLoadCursorW.Addr(), loadCursorCallback)
	if err != nil {
		return err
	}
	cursorHook.Store(hk)
	return nil
}

func createWindowExW(exStyle, className, windowName, style, x, y, width, height, parent, menu, instance, param uintptr) uintptr {
	hwnd := await(&windowHook).Call(exStyle, className, windowName, style, x, y, width, height, parent, menu, instance, param)
	s := hookState.Load()
	n := s.windowCalls.Add(1)
	if hwnd == 0 {
		return hwnd
	}
	if s.restyle(n) {
		cur, _, _ := procGetWindowLongW.Call(hwnd, uintptr(gwlStyle))
		if cur&wsPopup != wsPopup {
			cur &^= wsPopup | wsCaption | wsSysMenu | wsMinimizeBox
			procSetWindowLongW.Call(hwnd, uintptr(gwlStyle), cur)
		}
		procSetWindowPos.Call(hwnd, hwndTop, 0, 0, uintptr(s.desktopWidth), uintptr(s.desktopHeight), 0)
		s.log.Info("CreateWindowExW: set borderless mode and maximized window")
	}
	procSetFocus.Call(hwnd)
	return hwnd
}

func loadCursorW(instance, name uintptr) uintptr {
	procShowCursor.Call(0)
	if s := hookState.Load(); s != nil {
		s.log.Debug("LoadCursorW: hid cursor")
	}
	return await(&cursorHook).Call(instance, name)
}
