//go:build windows

package logging

import (
	"io"
	"os"

	"golang.org/x/sys/windows"
)

var (
	modkernel32      = windows.NewLazySystemDLL("kernel32.dll")
	procAllocConsole = modkernel32.NewProc("AllocConsole")
)

// console opens a console window; the host is usually a GUI process with
// no standard streams of its own.
func console() io.Writer {
	procAllocConsole.Call()
	f, err := os.OpenFile("CONOUT$", os.O_WRONLY, 0)
	if err != nil {
		return os.Stderr
	}
	return f
}
