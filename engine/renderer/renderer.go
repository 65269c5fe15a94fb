// package renderer executes render-graph frames: it owns the GPU backend, the
// resource registry, the bind-group resolver, the pipeline cache, and the pass
// schedule, and turns per-frame draw data into ordered GPU submissions.
package renderer

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/binding"
	"github.com/Carmen-Shannon/prism-go/engine/graph"
	"github.com/Carmen-Shannon/prism-go/engine/logger"
	"github.com/Carmen-Shannon/prism-go/engine/passgraph"
	"github.com/Carmen-Shannon/prism-go/engine/pipeline"
	"github.com/Carmen-Shannon/prism-go/engine/registry"
	"github.com/Carmen-Shannon/prism-go/engine/shader"
	"github.com/Carmen-Shannon/prism-go/engine/window"
)

type renderer struct {
	mu            *sync.Mutex
	backendType   RendererBackendType
	backend       RendererBackend
	model         *graph.Model
	registry      registry.Registry
	resolver      binding.Resolver
	builder       pipeline.Builder
	pipelineCache map[string]pipeline.Pipeline
	passes        passgraph.Graph
	encodePool    worker.DynamicWorkerPool
	watcher       shader.Watcher

	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	encodeWorkers        int
	hotReload            bool
}

// Renderer is the top-level frame executor for a render-graph model.
type Renderer interface {
	// Init realizes a validated model: resources, bind groups, pipelines, and the
	// pass schedule. Init must succeed before Render is called.
	//
	// Parameters:
	//   - m: the model to realize
	//
	// Returns:
	//   - error: a validation, allocation, or compile error
	Init(m *graph.Model) error

	// Render executes one frame. Draw data is validated in full against the model
	// and the built schedule before any GPU work is encoded; on any error nothing
	// is submitted. Passes encode concurrently and submit in schedule order.
	//
	// Parameters:
	//   - drawData: the draw calls per pass name; passes absent from the map still
	//     run to apply their attachment load/store policy
	//
	// Returns:
	//   - error: a not-built, unknown-pass, unknown-pipeline, or draw-range error
	Render(drawData map[string][]graph.DrawCall) error

	// WriteBuffer uploads bytes into a named buffer. The write must fit entirely
	// within the buffer's declared size.
	//
	// Parameters:
	//   - name: the buffer name
	//   - offset: the destination byte offset
	//   - data: the bytes to upload
	//
	// Returns:
	//   - error: an unknown-resource or out-of-bounds error
	WriteBuffer(name string, offset uint64, data []byte) error

	// Resize reconfigures the surface and every window-sized texture, then
	// refreshes any bind group left stale by the recreation.
	//
	// Parameters:
	//   - width: the new surface width in pixels
	//   - height: the new surface height in pixels
	//
	// Returns:
	//   - error: an allocation or refresh error
	Resize(width, height int) error

	// RebuildPipelines recompiles every pipeline from current shader sources,
	// swapping the cache only when every compile succeeds.
	//
	// Returns:
	//   - error: the first compile error; the previous cache stays active
	RebuildPipelines() error

	// Pipeline returns a cached compiled pipeline by key.
	//
	// Parameters:
	//   - key: the pipeline name
	//
	// Returns:
	//   - pipeline.Pipeline: the compiled pipeline, nil if absent
	Pipeline(key string) pipeline.Pipeline

	// PassOrder returns the built pass schedule.
	//
	// Returns:
	//   - []string: the pass names in execution order
	//   - error: a not-built error
	PassOrder() ([]string, error)

	// SetPresentMode sets the surface present mode.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// Release frees every GPU object the renderer realized, then the backend.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer with the specified backend type over a window's
// surface.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - win: the window supplying the surface descriptor and initial extent
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
func NewRenderer(backendType RendererBackendType, win window.Window, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   backendType,
		encodeWorkers: runtime.NumCPU(),
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter, a test
	// backend) are available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	if r.backend == nil {
		switch backendType {
		case BackendTypeWGPU:
			fallthrough
		default:
			r.backend = newWGPURendererBackend(win.SurfaceDescriptor(), r.forceFallbackAdapter)
		}
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	if win != nil {
		r.backend.ConfigureSurface(win.Width(), win.Height())
	}

	r.encodePool = worker.NewDynamicWorkerPool(r.encodeWorkers, 256, 1*time.Second)
	return r
}

func (r *renderer) Init(m *graph.Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Window-sized textures are declared without an extent; they take the current
	// surface size and follow it through Resize. Seeded before validation so region
	// checks see the real extent.
	if size := r.backend.SurfaceSize(); !size.IsZero() {
		for i := range m.Textures {
			if m.Textures[i].WindowSized {
				m.Textures[i].Size2d = size
			}
		}
	}

	if err := m.Validate(); err != nil {
		return err
	}

	reg := registry.NewRegistry(r.backend)
	if err := reg.InitFromModel(m); err != nil {
		reg.Release()
		return err
	}

	res := binding.NewResolver(r.backend, reg)
	if err := res.Realize(m); err != nil {
		res.Release()
		reg.Release()
		return err
	}

	builder := pipeline.NewBuilder(r.backend, res, r.backend.SurfaceFormat())
	cache, err := builder.BuildAll(m)
	if err != nil {
		builder.Release()
		res.Release()
		reg.Release()
		return err
	}

	passes, err := passgraph.FromModel(m)
	if err != nil {
		builder.Release()
		res.Release()
		reg.Release()
		return err
	}

	r.model = m
	r.registry = reg
	r.resolver = res
	r.builder = builder
	r.pipelineCache = cache
	r.passes = passes

	if r.hotReload {
		if err := r.watchShaders(m); err != nil {
			logger.LogWarn("shader hot reload unavailable: %v", err)
		}
	}

	logger.LogInfo("render graph initialized: %d buffers, %d textures, %d pipelines, %d passes",
		len(m.Buffers), len(m.Textures), len(m.Pipelines), len(m.Passes))
	return nil
}

// watchShaders registers every distinct shader source file for change notification.
func (r *renderer) watchShaders(m *graph.Model) error {
	w, err := shader.NewWatcher()
	if err != nil {
		return err
	}
	seen := map[string]bool{}
	for _, decl := range m.Pipelines {
		if decl.Shader.URI == "" || seen[decl.Shader.URI] {
			continue
		}
		seen[decl.Shader.URI] = true
		src, err := shader.NewShader(decl.Shader.URI, shader.WithSourceFile(decl.Shader.URI))
		if err != nil {
			w.Close()
			return err
		}
		if err := w.Watch(src); err != nil {
			w.Close()
			return err
		}
	}
	r.watcher = w
	return nil
}

func (r *renderer) Render(drawData map[string][]graph.DrawCall) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.passes == nil {
		return graph.ErrGraphNotBuilt
	}
	order, err := r.passes.Order()
	if err != nil {
		return err
	}

	if r.drainShaderChanges() {
		if err := r.rebuildPipelinesLocked(); err != nil {
			return err
		}
	}
	if err := r.resolver.Refresh(r.model); err != nil {
		return err
	}

	plans, err := BuildFramePlan(r.model, order, r.pipelineCache, drawData)
	if err != nil {
		return err
	}

	frameID := uuid.New()

	var surfaceView *wgpu.TextureView
	if modelTargetsWindow(r.model) {
		surfaceView, err = r.backend.AcquireFrame()
		if err != nil {
			return fmt.Errorf("frame %s: %w", frameID, err)
		}
	}

	encoded, err := resolvePlans(r.model, plans, r.registry, r.resolver, r.pipelineCache, surfaceView)
	if err != nil {
		r.backend.Present()
		return err
	}

	buffers, err := r.encodePasses(encoded)
	if err != nil {
		r.backend.Present()
		return fmt.Errorf("frame %s: %w", frameID, err)
	}

	r.backend.SubmitFrame(buffers)
	if surfaceView != nil {
		r.backend.Present()
	}
	logger.LogDebug("frame %s: submitted %d passes", frameID, len(buffers))
	return nil
}

// encodePasses encodes every pass concurrently on the worker pool and returns the
// command buffers in schedule order. On any failure the finished buffers are released
// and nothing is handed to the queue.
func (r *renderer) encodePasses(encoded []*EncodedPass) ([]*wgpu.CommandBuffer, error) {
	buffers := make([]*wgpu.CommandBuffer, len(encoded))
	errs := make([]error, len(encoded))

	var wg sync.WaitGroup
	for i, pass := range encoded {
		wg.Add(1)
		idx := i
		p := pass
		r.encodePool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				buffers[idx], errs[idx] = r.backend.EncodePass(p)
				return nil, errs[idx]
			},
		})
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			for _, buf := range buffers {
				if buf != nil {
					buf.Release()
				}
			}
			return nil, err
		}
	}
	return buffers, nil
}

// drainShaderChanges consumes pending hot-reload notifications and reports whether
// any shader source changed.
func (r *renderer) drainShaderChanges() bool {
	if r.watcher == nil {
		return false
	}
	changed := false
	for {
		select {
		case key := <-r.watcher.Changed():
			logger.LogInfo("shader %q changed, scheduling pipeline rebuild", key)
			r.builder.InvalidateShader(key)
			changed = true
		default:
			return changed
		}
	}
}

func (r *renderer) WriteBuffer(name string, offset uint64, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.registry == nil {
		return graph.ErrGraphNotBuilt
	}
	return r.registry.WriteBuffer(name, offset, data)
}

func (r *renderer) Resize(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.backend.ConfigureSurface(width, height)
	if r.registry == nil {
		return nil
	}
	size := common.Size2d{X: uint32(width), Y: uint32(height)}
	if err := r.registry.ResizeWindowTextures(size); err != nil {
		return err
	}
	return r.resolver.Refresh(r.model)
}

func (r *renderer) RebuildPipelines() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rebuildPipelinesLocked()
}

// rebuildPipelinesLocked compiles a fresh cache with a new builder so current shader
// sources are re-read from disk. The old cache and its GPU objects are released only
// after every pipeline compiles.
func (r *renderer) rebuildPipelinesLocked() error {
	if r.model == nil {
		return graph.ErrGraphNotBuilt
	}
	next := pipeline.NewBuilder(r.backend, r.resolver, r.backend.SurfaceFormat())
	cache, err := next.BuildAll(r.model)
	if err != nil {
		next.Release()
		return err
	}
	r.builder.Release()
	r.builder = next
	r.pipelineCache = cache
	return nil
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) PassOrder() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.passes == nil {
		return nil, graph.ErrGraphNotBuilt
	}
	return r.passes.Order()
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.watcher != nil {
		r.watcher.Close()
		r.watcher = nil
	}
	if r.builder != nil {
		r.builder.Release()
		r.builder = nil
	}
	if r.resolver != nil {
		r.resolver.Release()
		r.resolver = nil
	}
	if r.registry != nil {
		r.registry.Release()
		r.registry = nil
	}
	r.pipelineCache = map[string]pipeline.Pipeline{}
	r.backend.Release()
}

// modelTargetsWindow reports whether any pass writes the window surface.
func modelTargetsWindow(m *graph.Model) bool {
	for _, pass := range m.Passes {
		for _, att := range pass.Attachments {
			if att.Window {
				return true
			}
		}
	}
	return false
}
