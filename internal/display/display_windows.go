//go:build windows

package display

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	moduser32               = windows.NewLazySystemDLL("user32.dll")
	procEnumDisplaySettings = moduser32.NewProc("EnumDisplaySettingsW")
)

const enumCurrentSettings = 0xffffffff

// devMode is DEVMODEW with the display variant of its union.
type devMode struct {
	DeviceName         [32]uint16
	SpecVersion        uint16
	DriverVersion      uint16
	Size               uint16
	DriverExtra        uint16
	Fields             uint32
	PositionX          int32
	PositionY          int32
	DisplayOrientation uint32
	DisplayFixedOutput uint32
	Color              int16
	Duplex             int16
	YResolution        int16
	TTOption           int16
	Collate            int16
	FormName           [32]uint16
	LogPixels          uint16
	BitsPerPel         uint32
	PelsWidth          uint32
	PelsHeight         uint32
	DisplayFlags       uint32
	DisplayFrequency   uint32
	ICMMethod          uint32
	ICMIntent          uint32
	MediaType          uint32
	DitherType         uint32
	Reserved1          uint32
	Reserved2          uint32
	PanningWidth       uint32
	PanningHeight      uint32
}

// Desktop is the primary monitor's current mode in physical pixels. The
// mode is read from the display driver, so DPI virtualisation of the host
// does not shrink it.
func Desktop() (int, int) {
	dm := devMode{}
	dm.Size = uint16(unsafe.Sizeof(dm))
	r, _, _ := procEnumDisplaySettings.Call(0, enumCurrentSettings, uintptr(unsafe.Pointer(&dm)))
	if r == 0 || dm.PelsWidth == 0 || dm.PelsHeight == 0 {
		return defaultWidth, defaultHeight
	}
	return int(dm.PelsWidth), int(dm.PelsHeight)
}
