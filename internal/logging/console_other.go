//go:build !windows

package logging

import (
	"io"
	"os"
)

func console() io.Writer {
	return os.Stderr
}
