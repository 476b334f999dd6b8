//go:build windows

package hookingo

import "golang.org/x/sys/windows"

// entry point every stub calls with the Windows x64 convention
var dispatcher = windows.NewCallback(dispatch)
