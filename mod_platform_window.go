package morphfx

import (
	"reflect"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// PlatformWindowModule ensures a single shared GLFW window (WindowState) is
// created and made available as a resource for the renderer and input modules.
// Install is idempotent: if a WindowState resource already exists, it is
// reused.
type PlatformWindowModule struct {
	Width  int
	Height int
	Title  string
}

// NewPlatformWindow creates a module that provides a shared WindowState
// resource. If Width/Height are zero, sensible defaults are used.
func NewPlatformWindow(width, height int, title string) *PlatformWindowModule {
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	if title == "" {
		title = "morphfx"
	}
	return &PlatformWindowModule{
		Width:  width,
		Height: height,
		Title:  title,
	}
}

// Install provides the WindowState resource if missing.
func (m PlatformWindowModule) Install(app *App, cmd *Commands) {
	t := reflect.TypeOf((*WindowState)(nil)).Elem()
	if _, ok := app.resources[t]; ok {
		// Already created by another module; keep the single-window invariant.
		return
	}

	ws := createWindowState(m.Width, m.Height, m.Title)
	app.addResources(ws)

	app.UseSystem(
		System(windowTeardownSystem).
			InStage(Finale).
			InState(OnExit(StateShutdown)),
	)
}

// windowTeardownSystem destroys the window and terminates GLFW. The final
// state's exit phase is the last thing the app runs, after GPU teardown.
func windowTeardownSystem(s *WindowState, cmd *Commands) {
	cmd.Logger().Infof("closing window")
	s.windowGlfw.Destroy()
	glfw.Terminate()
}
