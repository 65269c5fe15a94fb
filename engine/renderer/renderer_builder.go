package renderer

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingPresentMode = &mode
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe). Useful for running on machines without a GPU.
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithEncodeWorkers sets the number of workers used to encode pass command buffers
// concurrently. Defaults to the number of CPUs.
//
// Parameters:
//   - workers: the worker count, minimum 1
//
// Returns:
//   - RendererBuilderOption: a function that applies the worker count option to a renderer
func WithEncodeWorkers(workers int) RendererBuilderOption {
	return func(r *renderer) {
		if workers > 0 {
			r.encodeWorkers = workers
		}
	}
}

// WithShaderHotReload watches every pipeline's shader source file and rebuilds the
// pipeline cache when a file changes. Rebuilds happen at the start of the next frame.
//
// Parameters:
//   - enabled: true to watch shader sources
//
// Returns:
//   - RendererBuilderOption: a function that applies the hot reload option to a renderer
func WithShaderHotReload(enabled bool) RendererBuilderOption {
	return func(r *renderer) {
		r.hotReload = enabled
	}
}

// WithBackend replaces the GPU backend, bypassing backend construction entirely.
// Intended for non-WGPU backends and tests.
//
// Parameters:
//   - backend: the backend implementation to use
//
// Returns:
//   - RendererBuilderOption: a function that applies the backend option to a renderer
func WithBackend(backend RendererBackend) RendererBuilderOption {
	return func(r *renderer) {
		r.backend = backend
	}
}
