// Package display reports the desktop size.
package display

// fallback when the platform cannot say
const (
	defaultWidth  = 1920
	defaultHeight = 1080
)
