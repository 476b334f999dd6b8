package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenTruncates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "WOFFFix.log")
	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0o644))

	l, c, err := Open(dir, "WOFFFix.log")
	require.NoError(t, err)
	l.Info("hello", "k", 1)
	require.NoError(t, c.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "stale")
	assert.Contains(t, string(b), "msg=hello k=1")
}

func TestOpenFailure(t *testing.T) {
	_, _, err := Open(filepath.Join(t.TempDir(), "missing"), "WOFFFix.log")
	assert.Error(t, err)
	assert.NotNil(t, Console())
}

func TestBanner(t *testing.T) {
	var buf bytes.Buffer
	Banner(New(&buf), "WOFFFix", "0.8.0", "/tmp/WOFFFix.log", Module{
		Name: "WOFF.exe", Path: `C:\Games\WOFF`, Base: 0x140000000, Timestamp: 42,
	})
	out := buf.String()
	assert.Contains(t, out, "fix=WOFFFix version=0.8.0")
	assert.Contains(t, out, "address=0x140000000")
	assert.Contains(t, out, "timestamp=42")
}
