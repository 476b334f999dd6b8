package fix

import (
	"github.com/k2io/wofffix/config"
	"github.com/k2io/wofffix/hookingo"
	"github.com/k2io/wofffix/scan"
)

// Site is one place in the host image a feature hooks, found by Pattern
// and shifted by Offset.
type Site struct {
	Name    string
	Pattern scan.Pattern
	Offset  uintptr
	Hook    func(s *State) hookingo.MidFunc
}

// Feature is a set of hooks that are installed together or not at all.
type Feature struct {
	Name    string
	Enabled func(c config.Config) bool
	// every site must be found before any is hooked
	Sites []Site
	// Install adds hooks that are not located by pattern.
	Install func(s *State, h Hooker) error
}

func mid(f func(*State, *hookingo.Context)) func(*State) hookingo.MidFunc {
	return func(s *State) hookingo.MidFunc {
		return func(ctx *hookingo.Context) { f(s, ctx) }
	}
}

// Features lists everything the fix can do, in install order.
func Features() []Feature {
	return []Feature{
		{
			Name: "Custom Resolution",
			// the other fixes work from the geometry this hook publishes
			Enabled: func(c config.Config) bool {
				return c.Resolution.Enabled || c.Resolution.Windowed || c.AspectFix || c.FOVFix || c.HUDFix
			},
			Sites: []Site{{
				Name:    "Custom Resolution",
				Pattern: scan.MustParse("89 ?? ?? 89 ?? ?? E9 ?? ?? ?? ?? 48 8D ?? ?? ?? ?? ?? 49 ?? ?? E8 ?? ?? ?? ?? 85 ?? 75 ?? 48 ?? ?? 02"),
				Hook:    mid((*State).applyResolution),
			}},
		},
		{
			Name:    "Borderless Window",
			Enabled: func(c config.Config) bool { return c.Resolution.Borderless },
			Install: installWindow,
		},
		{
			Name:    "Hide Mouse Cursor",
			Enabled: func(c config.Config) bool { return c.HideCursor },
			Install: installCursor,
		},
		{
			Name:    "Aspect Ratio",
			Enabled: func(c config.Config) bool { return c.AspectFix },
			Sites: []Site{{
				Name:    "Aspect Ratio",
				Pattern: scan.MustParse("F3 0F ?? ?? ?? ?? ?? 00 F3 0F ?? ?? ?? ?? 0F 28 ?? 48 8B ?? ?? ?? ?? ?? 00"),
				Hook:    mid((*State).aspectRatio),
			}},
		},
		{
			Name:    "FOV",
			Enabled: func(c config.Config) bool { return c.FOVFix },
			Sites: []Site{
				{
					Name:    "Gameplay FOV",
					Pattern: scan.MustParse("F3 ?? ?? ?? ?? ?? ?? ?? ?? 0F ?? ?? ?? ?? ?? ?? 0F ?? ?? ?? ?? ?? ?? 76 ?? 0F ?? ?? 0F ?? ?? F3 0F ?? ?? ?? ?? ?? ?? 73 ??"),
					Hook:    mid((*State).gameplayFOV),
				},
				{
					Name:    "Cutscene FOV",
					Pattern: scan.MustParse("89 ?? ?? ?? ?? ?? F3 ?? ?? ?? ?? 41 ?? ?? ?? F3 ?? ?? ?? ?? F3 0F ?? ?? 0F ?? ??"),
					Hook:    mid((*State).cutsceneFOV),
				},
			},
		},
		{
			Name:    "HUD",
			Enabled: func(c config.Config) bool { return c.HUDFix },
			Sites: []Site{{
				Name:    "HUD",
				Pattern: scan.MustParse("41 ?? ?? ?? 0F ?? ?? F3 0F ?? ?? ?? ?? E8 ?? ?? ?? ??"),
				Offset:  0x4,
				Hook:    mid((*State).hud),
			}},
		},
		{
			Name:    "Unlock Framerate",
			Enabled: func(c config.Config) bool { return c.UnlockFramerate },
			Sites: []Site{
				{
					Name:    "FPS Cap",
					Pattern: scan.MustParse("F3 0F ?? ?? ?? ?? F3 0F ?? ?? ?? ?? F3 0F ?? ?? ?? ?? 48 ?? ?? ?? ?? ?? ?? 00 83 ?? ?? ?? ?? ?? 00 74 ??"),
					Hook:    mid((*State).fpsCap),
				},
				{
					Name:    "Current Frametime",
					Pattern: scan.MustParse("F3 0F ?? ?? ?? ?? 48 ?? ?? ?? ?? 48 ?? ?? ?? ?? ?? 48 ?? ?? E8 ?? ?? ?? ?? 48 ?? ?? ?? ?? 83 ?? ?? ?? ?? ?? 00 74 ??"),
					Hook:    mid((*State).captureFrametime),
				},
				{
					Name:    "Game Speed 1",
					Pattern: scan.MustParse("EB ?? F3 0F ?? ?? ?? ?? ?? ?? F3 0F ?? ?? ?? ?? F3 0F ?? ?? ?? ?? 48 ?? ?? ?? C3"),
					Offset:  0x16,
					Hook:    func(s *State) hookingo.MidFunc { return s.gameSpeed(1) },
				},
				{
					Name:    "Game Speed 2",
					Pattern: scan.MustParse("F3 0F ?? ?? ?? ?? F3 0F ?? ?? ?? ?? F3 0F ?? ?? 0F 28 ?? F3 0F ?? ?? ?? ?? 48 ?? ?? ?? ?? 8B ?? ?? 83 ?? 10"),
					Hook:    func(s *State) hookingo.MidFunc { return s.gameSpeed(animationRate) },
				},
			},
		},
		{
			Name:    "Shadow Resolution",
			Enabled: func(c config.Config) bool { return c.Shadow.Enabled },
			Sites: []Site{{
				Name:    "Shadow Resolution",
				Pattern: scan.MustParse("89 ?? ?? 89 ?? ?? E9 ?? ?? ?? ?? 48 8D ?? ?? ?? ?? ?? 49 ?? ??"),
				Hook:    mid((*State).shadowResolution),
			}},
		},
	}
}
