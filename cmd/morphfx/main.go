// Command morphfx runs the scroll-driven particle morph demo: scroll (or hold
// Down/PageDown) to assemble the wave into the logo shape, move the mouse to
// disturb the particles. Space pauses the wave, D toggles debug logging, F1
// the debug overlay.
package main

import (
	"flag"
	"log"

	morphfx "github.com/morphfx/morphfx"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config overriding the built-in defaults")
	shapePath := flag.String("shape", "", "optional glTF/GLB target shape (default: generated X)")
	fontPath := flag.String("font", "", "optional TTF/OTF font enabling the F1 debug overlay")
	debug := flag.Bool("debug", false, "enable debug logging")
	writeDefaults := flag.String("write-defaults", "", "write the effective config to this path and exit")
	flag.Parse()

	cfg, err := morphfx.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if *writeDefaults != "" {
		if err := cfg.WriteYAML(*writeDefaults); err != nil {
			log.Fatalf("write config: %v", err)
		}
		return
	}

	if *fontPath != "" {
		cfg.Hud.FontPath = *fontPath
	}

	app := morphfx.NewAppBuilder().
		UseStates(morphfx.StateLoading, morphfx.StateShutdown).
		UseModule(
			morphfx.LoggingModule{Prefix: "morphfx", Debug: *debug},
			morphfx.NewPlatformWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title),
			morphfx.InputModule{},
			morphfx.TimeModule{},
			morphfx.MorphModule{Config: cfg},
			morphfx.ShapesModule{Path: *shapePath},
			morphfx.RendererModule{},
			morphfx.HudModule{FontPath: cfg.Hud.FontPath, FontSize: cfg.Hud.FontSize},
		).
		Build()

	app.Run()
}
