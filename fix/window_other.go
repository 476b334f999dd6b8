//go:build !windows

package fix

func installWindow(*State, Hooker) error {
	return ErrUnsupported
}

func installCursor(*State, Hooker) error {
	return ErrUnsupported
}
