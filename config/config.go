// Package config reads the fix's INI file.
//
//	[Custom Resolution]
//	Enabled = true
//	Width = 0
//	Height = 0
//	Windowed = false
//	Borderless = true
//
//	[Fix Aspect Ratio]
//	Enabled = true
//	...
//
// Every option has a default, so a missing or broken file still yields a
// usable Config with all fixes off.
package config

import (
	"log/slog"

	"gopkg.in/ini.v1"
)

const (
	sectionResolution = "Custom Resolution"
	sectionAspect     = "Fix Aspect Ratio"
	sectionFOV        = "Fix FOV"
	sectionHUD        = "Fix HUD"
	sectionCursor     = "Hide Mouse Cursor"
	sectionFramerate  = "Unlock Framerate"
	sectionShadow     = "Shadow Resolution"
)

type Resolution struct {
	Enabled    bool
	Width      int
	Height     int
	Windowed   bool
	Borderless bool
	// CreateWindowExW calls, counted from the first, that get the
	// borderless restyle. The host creates its game window first; later
	// windows are left alone.
	WindowCallLimit int
}

type Shadow struct {
	Enabled    bool
	Resolution int
}

type Config struct {
	Resolution      Resolution
	AspectFix       bool
	FOVFix          bool
	HUDFix          bool
	HideCursor      bool
	UnlockFramerate bool
	Shadow          Shadow
}

// Default is the configuration used when no file can be read.
func Default() Config {
	return Config{
		Resolution: Resolution{WindowCallLimit: 1},
		Shadow:     Shadow{Resolution: 8192},
	}
}

// Desktop supplies the screen size used when no resolution is configured.
type Desktop func() (width, height int)

// Load reads path. The returned Config is always usable; a non-nil error
// says the defaults were used and should be surfaced as a warning.
func Load(path string, desktop Desktop) (Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		c := Default()
		c.fill(desktop)
		return c, err
	}
	return from(f, desktop), nil
}

// Parse reads an in-memory INI document.
func Parse(data []byte, desktop Desktop) (Config, error) {
	f, err := ini.Load(data)
	if err != nil {
		c := Default()
		c.fill(desktop)
		return c, err
	}
	return from(f, desktop), nil
}

func from(f *ini.File, desktop Desktop) Config {
	c := Default()
	res := f.Section(sectionResolution)
	c.Resolution.Enabled = res.Key("Enabled").MustBool(false)
	c.Resolution.Width = res.Key("Width").MustInt(0)
	c.Resolution.Height = res.Key("Height").MustInt(0)
	c.Resolution.Windowed = res.Key("Windowed").MustBool(false)
	c.Resolution.Borderless = res.Key("Borderless").MustBool(false)
	c.Resolution.WindowCallLimit = res.Key("WindowCallLimit").MustInt(c.Resolution.WindowCallLimit)

	c.AspectFix = f.Section(sectionAspect).Key("Enabled").MustBool(false)
	c.FOVFix = f.Section(sectionFOV).Key("Enabled").MustBool(false)
	c.HUDFix = f.Section(sectionHUD).Key("Enabled").MustBool(false)
	c.HideCursor = f.Section(sectionCursor).Key("Enabled").MustBool(false)
	c.UnlockFramerate = f.Section(sectionFramerate).Key("Enabled").MustBool(false)

	sh := f.Section(sectionShadow)
	c.Shadow.Enabled = sh.Key("Enabled").MustBool(false)
	c.Shadow.Resolution = sh.Key("Resolution").MustInt(c.Shadow.Resolution)

	c.fill(desktop)
	return c
}

// fill applies the rules that tie options together.
func (c *Config) fill(desktop Desktop) {
	// borderless only makes sense in a window
	if c.Resolution.Borderless {
		c.Resolution.Windowed = true
	}
	if (c.Resolution.Width <= 0 || c.Resolution.Height <= 0) && desktop != nil {
		c.Resolution.Width, c.Resolution.Height = desktop()
	}
	if c.Shadow.Resolution <= 0 {
		c.Shadow.Resolution = Default().Shadow.Resolution
	}
}

// Log writes one line per option.
func (c Config) Log(l *slog.Logger) {
	l.Info("config parse",
		slog.Group("resolution",
			slog.Bool("enabled", c.Resolution.Enabled),
			slog.Int("width", c.Resolution.Width),
			slog.Int("height", c.Resolution.Height),
			slog.Bool("windowed", c.Resolution.Windowed),
			slog.Bool("borderless", c.Resolution.Borderless),
			slog.Int("window_call_limit", c.Resolution.WindowCallLimit)),
	)
	l.Info("config parse", slog.Bool("aspect_fix", c.AspectFix))
	l.Info("config parse", slog.Bool("fov_fix", c.FOVFix))
	l.Info("config parse", slog.Bool("hud_fix", c.HUDFix))
	l.Info("config parse", slog.Bool("hide_cursor", c.HideCursor))
	l.Info("config parse", slog.Bool("unlock_framerate", c.UnlockFramerate))
	l.Info("config parse", slog.Bool("shadow_res", c.Shadow.Enabled), slog.Int("shadow_resolution", c.Shadow.Resolution))
}
