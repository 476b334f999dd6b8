//go:build !windows

package display

// Desktop has no display to ask outside Windows.
func Desktop() (int, int) {
	return defaultWidth, defaultHeight
}
