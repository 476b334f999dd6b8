//go:build !windows

package hookingo

// There is no portable way to turn a Go func into a C-callable pointer
// without cgo, so mid hooks cannot be entered here. Stubs can still be
// generated and inspected.
var dispatcher uintptr
