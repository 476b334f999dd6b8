// Command wofffix is built as a DLL loaded into the game process:
//
//	go build -buildmode=c-shared -o WOFFFix.asi ./cmd/wofffix
//
// Loading it is process attach. A C constructor arms the startup gate
// while the loader still holds the host; the Go runtime later runs init on
// its own thread, and init hands the rest to a sequencer whose Ready flag
// opens the gate.
package main

import "C"

const (
	fixName    = "WOFFFix"
	fixVersion = "0.8.0"
	configFile = "WOFFFix.ini"
	logFile    = "WOFFFix.log"
)

func init() {
	attach()
}

// main is not run in a shared library.
func main() {}
