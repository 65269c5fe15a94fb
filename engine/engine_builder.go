package engine

import (
	"time"

	"github.com/Carmen-Shannon/prism-go/engine/renderer"
	"github.com/Carmen-Shannon/prism-go/engine/window"
)

// EngineBuilderOption defines the option-builder pattern function signature used when creating a new Engine.
type EngineBuilderOption func(*engine)

// WithWindow sets the window for the engine.
//
// Parameters:
//   - win: the window instance the engine should drive
//
// Returns:
//   - EngineBuilderOption: the option-builder function
func WithWindow(win window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = win
	}
}

// WithRenderer sets the renderer for the engine.
//
// Parameters:
//   - r: the renderer instance the engine should drive
//
// Returns:
//   - EngineBuilderOption: the option-builder function
func WithRenderer(r renderer.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: whether profiling starts enabled
//
// Returns:
//   - EngineBuilderOption: the option-builder function
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the engine tick rate in frames per second.
//
// Parameters:
//   - fps: target ticks per second (defaults to 60 if <= 0)
//
// Returns:
//   - EngineBuilderOption: the option-builder function
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60
		}
		e.engineTickRate = time.Second / time.Duration(fps)
	}
}

// WithRenderFrameLimit caps the render loop at the given frames per second.
// Pass 0 to leave the render loop uncapped.
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: the option-builder function
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Second / time.Duration(fps)
	}
}
