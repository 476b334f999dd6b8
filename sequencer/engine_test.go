package sequencer

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnginePanicLog(t *testing.T) {
	var buf bytes.Buffer
	e := Engine{Log: slog.New(slog.NewTextHandler(&buf, nil))}
	report := e.panicked("Gameplay FOV")
	for n := int64(1); n <= 2000; n++ {
		report("index out of range", n)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], `level=ERROR msg="hook callback panicked" site="Gameplay FOV" panic="index out of range" count=1`)
	assert.Contains(t, lines[1], "count=1000")
	assert.Contains(t, lines[2], "count=2000")
}
