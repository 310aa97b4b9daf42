package morphfx

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	KeyEscape int = iota
	KeySpace
	KeyHome
	KeyEnd
	KeyUp
	KeyDown
	KeyPageUp
	KeyPageDown
	KeyR
	KeyD
	KeyF1
	keyCount
)

type InputModule struct{}

// Input is the per-frame snapshot of everything the host window reports:
// keyboard, cursor position, accumulated wheel scroll and window size. The
// wheel counter is cumulative; consumers diff it or drain ScrollDelta.
type Input struct {
	Pressed      [keyCount]bool
	JustPressed  [keyCount]bool
	JustReleased [keyCount]bool

	MouseX, MouseY float64

	// ScrollDelta is the wheel movement since the previous frame, vertical
	// axis only. Positive = scroll up/away from the user.
	ScrollDelta float64

	WindowWidth, WindowHeight int

	scrollAccum   float64
	callbackBound bool
}

func (mod InputModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Input{})
	app.UseSystem(
		System(inputSystem).
			InStage(PreUpdate).
			RunAlways(),
	)
}

func inputSystem(s *WindowState, input *Input) {
	if !input.callbackBound {
		s.windowGlfw.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
			input.scrollAccum += yoff
		})
		input.callbackBound = true
	}

	glfw.PollEvents()

	for key, glfwKey := range keyToGlfw {
		action := s.windowGlfw.GetKey(glfwKey)

		input.JustPressed[key] = false
		input.JustReleased[key] = false

		if glfw.Press == action {
			if !input.Pressed[key] {
				input.JustPressed[key] = true
			}
			input.Pressed[key] = true
		} else if glfw.Release == action {
			if input.Pressed[key] {
				input.JustReleased[key] = true
			}
			input.Pressed[key] = false
		}
	}

	input.MouseX, input.MouseY = s.windowGlfw.GetCursorPos()
	input.WindowWidth, input.WindowHeight = s.windowGlfw.GetSize()

	// Drain whatever the scroll callback accumulated since last poll.
	input.ScrollDelta = input.scrollAccum
	input.scrollAccum = 0
}

var keyToGlfw = map[int]glfw.Key{
	KeyEscape:   glfw.KeyEscape,
	KeySpace:    glfw.KeySpace,
	KeyHome:     glfw.KeyHome,
	KeyEnd:      glfw.KeyEnd,
	KeyUp:       glfw.KeyUp,
	KeyDown:     glfw.KeyDown,
	KeyPageUp:   glfw.KeyPageUp,
	KeyPageDown: glfw.KeyPageDown,
	KeyR:        glfw.KeyR,
	KeyD:        glfw.KeyD,
	KeyF1:       glfw.KeyF1,
}
