package sequencer

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k2io/wofffix/config"
	"github.com/k2io/wofffix/fix"
	"github.com/k2io/wofffix/hookingo"
	"github.com/k2io/wofffix/internal/gate"
	"github.com/k2io/wofffix/scan"
)

var text = [64]byte{
	0x00, 0x11, 0x22, 0x33,
	16: 0x89, 0x5c, 0x24, 0x89, 0x44, 0x24, 0xe9,
	32: 0x41, 0x8b, 0x4e, 0x10, 0x0f, 0x28, 0xc2,
}

type region struct{}

func (region) Start() uintptr { return uintptr(unsafe.Pointer(&text[0])) }
func (region) Bytes() []byte  { return text[:] }

type installed struct {
	name   string
	target uintptr
	cb     hookingo.MidFunc
}

type recorder struct {
	mu      sync.Mutex
	mids    []installed
	inlines []string
	fail    map[string]error
}

func (r *recorder) Mid(name string, target uintptr, cb hookingo.MidFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail[name]; err != nil {
		return err
	}
	r.mids = append(r.mids, installed{name, target, cb})
	return nil
}

func (r *recorder) Inline(name string, target, replacement uintptr) (*hookingo.InlineHook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inlines = append(r.inlines, name)
	return nil, nil
}

func site(name, pattern string, offset uintptr) fix.Site {
	return fix.Site{
		Name:    name,
		Pattern: scan.MustParse(pattern),
		Offset:  offset,
		Hook: func(*fix.State) hookingo.MidFunc {
			return func(*hookingo.Context) {}
		},
	}
}

func always(config.Config) bool { return true }

func testFeatures() []fix.Feature {
	return []fix.Feature{
		{
			Name:    "Found",
			Enabled: always,
			Sites:   []fix.Site{site("Found", "89 ?? ?? 89 ?? ?? E9", 0)},
		},
		{
			Name:    "Offset",
			Enabled: always,
			Sites:   []fix.Site{site("Offset", "41 ?? ?? ?? 0F 28", 4)},
		},
		{
			Name:    "Partial",
			Enabled: always,
			Sites: []fix.Site{
				site("Partial A", "11 22 33", 0),
				site("Partial B", "DE AD BE EF", 0),
			},
		},
		{
			Name:    "Off",
			Enabled: func(config.Config) bool { return false },
			Sites:   []fix.Site{site("Off", "11 22", 0)},
		},
		{
			Name:    "Extra",
			Enabled: always,
			Install: func(_ *fix.State, h fix.Hooker) error {
				_, err := h.Inline("Extra", 0x1234, 0x5678)
				return err
			},
		},
	}
}

func newSequencer(t *testing.T, h fix.Hooker, cfgErr error) (*Sequencer, *gate.Ready, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	ready := gate.NewReady()
	seq := New(Options{
		Image:  region{},
		Hooker: h,
		Config: func() (config.Config, error) {
			c := config.Default()
			c.Resolution.Width, c.Resolution.Height = 2560, 1080
			return c, cfgErr
		},
		Desktop:  func() (int, int) { return 3440, 1440 },
		Ready:    ready,
		Log:      slog.New(slog.NewTextHandler(&buf, nil)),
		Features: testFeatures(),
	})
	return seq, ready, &buf
}

func TestRun(t *testing.T) {
	rec := &recorder{}
	seq, ready, buf := newSequencer(t, rec, nil)
	assert.Equal(t, Attached, seq.State())
	assert.Nil(t, seq.Fix())

	report, err := seq.Run()
	require.NoError(t, err)

	assert.Equal(t, []string{"Found", "Offset", "Extra"}, report.Installed)
	assert.Equal(t, []string{"Partial"}, report.Skipped)
	assert.Empty(t, report.Failed)

	base := region{}.Start()
	require.Len(t, rec.mids, 2)
	assert.Equal(t, "Found", rec.mids[0].name)
	assert.Equal(t, base+16, rec.mids[0].target)
	assert.Equal(t, base+32+4, rec.mids[1].target)
	assert.Equal(t, []string{"Extra"}, rec.inlines)

	assert.Contains(t, buf.String(), `level=ERROR msg="pattern scan failed" feature=Partial site="Partial B"`)
	assert.Contains(t, buf.String(), `msg="address found" site=Found rva=0x10`)
	assert.NotContains(t, buf.String(), "feature=Off")
	assert.NotContains(t, buf.String(), "site=Off")
	assert.True(t, ready.IsSet())
	assert.Equal(t, Ready, seq.State())
	require.NotNil(t, seq.Fix())
	assert.Equal(t, 2560, seq.Fix().Geometry().Width)
}

func TestRunOnce(t *testing.T) {
	seq, _, _ := newSequencer(t, &recorder{}, nil)
	_, err := seq.Run()
	require.NoError(t, err)
	_, err = seq.Run()
	assert.ErrorIs(t, err, ErrAlreadyRun)
	assert.Equal(t, Ready, seq.State())
}

func TestRunHookFailure(t *testing.T) {
	rec := &recorder{fail: map[string]error{"Found": errors.New("no memory")}}
	seq, ready, buf := newSequencer(t, rec, nil)
	report, err := seq.Run()
	require.NoError(t, err)
	assert.Equal(t, []string{"Found"}, report.Failed)
	assert.Equal(t, []string{"Offset", "Extra"}, report.Installed)
	assert.Contains(t, buf.String(), `msg="hook failed" feature=Found err="Found: no memory"`)
	assert.True(t, ready.IsSet())
}

func TestRunConfigWarning(t *testing.T) {
	seq, ready, buf := newSequencer(t, &recorder{}, errors.New("missing"))
	_, err := seq.Run()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.True(t, ready.IsSet())
}

// a host thread held by the ready flag goes on only once Run is done
func TestRunReleasesWaiters(t *testing.T) {
	block := make(chan struct{})
	rec := &recorder{}
	seq, ready, _ := newSequencer(t, rec, nil)
	seq.opts.Features = append(seq.opts.Features, fix.Feature{
		Name:    "Slow",
		Enabled: always,
		Install: func(*fix.State, fix.Hooker) error {
			<-block
			return nil
		},
	})

	released := make(chan struct{})
	go func() {
		ready.Wait()
		close(released)
	}()
	go seq.Run()

	assert.Eventually(t, func() bool { return seq.State() == Installing }, time.Second, time.Millisecond)
	select {
	case <-released:
		t.Fatal("released before hooks were installed")
	case <-time.After(20 * time.Millisecond):
	}
	close(block)
	<-released
	assert.Equal(t, Ready, seq.State())
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{
		Attached:   "attached",
		Scanning:   "scanning",
		Installing: "installing",
		Ready:      "ready",
		State(7):   "unknown",
	} {
		assert.Equal(t, want, s.String())
	}
}
