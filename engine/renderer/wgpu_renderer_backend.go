package renderer

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/graph"
)

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat *wgpu.TextureFormat
	surfaceSize   common.Size2d
	presentMode   wgpu.PresentMode // defaults to PresentModeFifo (VSync)

	// Frame state: the acquired swapchain image, held from AcquireFrame to Present.
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

type wgpuRendererBackend interface {
	Device() *wgpu.Device
	Queue() *wgpu.Queue
	Instance() *wgpu.Instance
	Adapter() *wgpu.Adapter
	Surface() *wgpu.Surface
	SetDevice(device *wgpu.Device)
	SetQueue(queue *wgpu.Queue)
	SetInstance(instance *wgpu.Instance)
	SetAdapter(adapter *wgpu.Adapter)
	SetSurface(surface *wgpu.Surface)

	// ConfigureSurface is a wrapper for boilerplate logic required when calling ConfigureSurface on a surface.
	// This is required when the surface size changes, such as when the window is resized.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// SurfaceFormat returns the swapchain texture format chosen at surface configuration.
	//
	// Returns:
	//   - wgpu.TextureFormat: the surface format
	SurfaceFormat() wgpu.TextureFormat

	// SurfaceSize returns the extent the surface was last configured with.
	//
	// Returns:
	//   - common.Size2d: the surface extent in pixels
	SurfaceSize() common.Size2d

	// AcquireFrame acquires the next swapchain image and returns its view. The image is
	// held until Present.
	//
	// Returns:
	//   - *wgpu.TextureView: the swapchain view for window attachments
	//   - error: an acquisition error, including a still-held previous frame
	AcquireFrame() (*wgpu.TextureView, error)

	// EncodePass encodes one resolved pass into its own command buffer. Passes encode
	// independently, so callers may encode several concurrently and submit in order.
	//
	// Parameters:
	//   - pass: the resolved pass to encode
	//
	// Returns:
	//   - *wgpu.CommandBuffer: the finished command buffer
	//   - error: an encoder or finish error
	EncodePass(pass *EncodedPass) (*wgpu.CommandBuffer, error)

	// SubmitFrame submits command buffers to the queue in the given order and
	// releases them.
	//
	// Parameters:
	//   - buffers: the command buffers in submission order
	SubmitFrame(buffers []*wgpu.CommandBuffer)

	// Present presents the held swapchain image and releases the frame state.
	Present()

	// Release frees the device, queue, surface, adapter, and instance.
	Release()

	// CreateBuffer allocates a GPU buffer.
	//
	// Parameters:
	//   - label: the debug label for the allocation
	//   - size: the allocation size in bytes
	//   - usage: the usage flags
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer handle
	//   - error: an allocation error
	CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error)

	// CreateTexture allocates a 2D GPU texture and its default view.
	//
	// Parameters:
	//   - label: the debug label for the allocation
	//   - size: the texture extent in pixels
	//   - format: the texel format
	//   - usage: the usage flags
	//   - sampleCount: samples per texel, 1 or 4
	//
	// Returns:
	//   - *wgpu.Texture: the texture handle
	//   - *wgpu.TextureView: the default whole-texture view
	//   - error: an allocation error
	CreateTexture(label string, size common.Size2d, format wgpu.TextureFormat, usage wgpu.TextureUsage, sampleCount uint32) (*wgpu.Texture, *wgpu.TextureView, error)

	// CreateSampler creates a GPU sampler of the given kind.
	//
	// Parameters:
	//   - label: the debug label
	//   - kind: the filtering/comparison behavior
	//
	// Returns:
	//   - *wgpu.Sampler: the sampler handle
	//   - error: a creation error
	CreateSampler(label string, kind graph.SamplerKind) (*wgpu.Sampler, error)

	// WriteBuffer uploads bytes into a buffer at the given offset.
	//
	// Parameters:
	//   - buf: the target buffer handle
	//   - offset: the destination byte offset
	//   - data: the bytes to upload
	//
	// Returns:
	//   - error: an upload error
	WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) error

	// ReleaseBuffer releases a buffer handle.
	//
	// Parameters:
	//   - buf: the buffer handle to release
	ReleaseBuffer(buf *wgpu.Buffer)

	// ReleaseTexture releases a texture handle and its view.
	//
	// Parameters:
	//   - tex: the texture handle to release
	//   - view: the view to release
	ReleaseTexture(tex *wgpu.Texture, view *wgpu.TextureView)

	// ReleaseSampler releases a sampler handle.
	//
	// Parameters:
	//   - s: the sampler handle to release
	ReleaseSampler(s *wgpu.Sampler)

	// CreateBindGroupLayout creates a bind-group layout from derived entries.
	//
	// Parameters:
	//   - label: the debug label
	//   - entries: the layout entries
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the layout handle
	//   - error: a creation error
	CreateBindGroupLayout(label string, entries []wgpu.BindGroupLayoutEntry) (*wgpu.BindGroupLayout, error)

	// CreateBindGroup creates a concrete bind group against a layout.
	//
	// Parameters:
	//   - label: the debug label
	//   - layout: the layout the group conforms to
	//   - entries: the concrete resource bindings
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group handle
	//   - error: a creation error
	CreateBindGroup(label string, layout *wgpu.BindGroupLayout, entries []wgpu.BindGroupEntry) (*wgpu.BindGroup, error)

	// ReleaseBindGroup releases a bind group and its layout.
	//
	// Parameters:
	//   - layout: the layout handle to release
	//   - group: the group handle to release
	ReleaseBindGroup(layout *wgpu.BindGroupLayout, group *wgpu.BindGroup)

	// CreateShaderModule compiles WGSL source into a shader module.
	//
	// Parameters:
	//   - label: the debug label
	//   - source: the WGSL source text
	//
	// Returns:
	//   - *wgpu.ShaderModule: the compiled module
	//   - error: a compile error
	CreateShaderModule(label, source string) (*wgpu.ShaderModule, error)

	// CreatePipelineLayout creates a pipeline layout over bind-group layouts.
	//
	// Parameters:
	//   - label: the debug label
	//   - layouts: the bind-group layouts, by group index
	//
	// Returns:
	//   - *wgpu.PipelineLayout: the layout handle
	//   - error: a creation error
	CreatePipelineLayout(label string, layouts []*wgpu.BindGroupLayout) (*wgpu.PipelineLayout, error)

	// CreateRenderPipeline creates a render pipeline from a full descriptor.
	//
	// Parameters:
	//   - desc: the pipeline descriptor
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the pipeline handle
	//   - error: a creation error
	CreateRenderPipeline(desc *wgpu.RenderPipelineDescriptor) (*wgpu.RenderPipeline, error)

	// ReleaseShaderModule releases a compiled shader module.
	//
	// Parameters:
	//   - m: the module to release
	ReleaseShaderModule(m *wgpu.ShaderModule)

	// ReleasePipelineLayout releases a pipeline layout.
	//
	// Parameters:
	//   - l: the layout to release
	ReleasePipelineLayout(l *wgpu.PipelineLayout)

	// ReleaseRenderPipeline releases a render pipeline.
	//
	// Parameters:
	//   - p: the pipeline to release
	ReleaseRenderPipeline(p *wgpu.RenderPipeline)
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool) wgpuRendererBackend {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
	}
	w.SetSurface(w.instance.CreateSurface(surfaceDescriptor))

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		panic(err)
	}
	w.SetAdapter(a)

	limits := wgpu.DefaultLimits()

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		panic(err)
	}
	w.SetDevice(d)
	w.SetQueue(d.GetQueue())

	return w
}

func (b *wgpuRendererBackendImpl) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuRendererBackendImpl) Queue() *wgpu.Queue {
	return b.queue
}

func (b *wgpuRendererBackendImpl) Instance() *wgpu.Instance {
	return b.instance
}

func (b *wgpuRendererBackendImpl) Adapter() *wgpu.Adapter {
	return b.adapter
}

func (b *wgpuRendererBackendImpl) Surface() *wgpu.Surface {
	return b.surface
}

func (b *wgpuRendererBackendImpl) SetDevice(device *wgpu.Device) {
	b.device = device
}

func (b *wgpuRendererBackendImpl) SetQueue(queue *wgpu.Queue) {
	b.queue = queue
}

func (b *wgpuRendererBackendImpl) SetInstance(instance *wgpu.Instance) {
	b.instance = instance
}

func (b *wgpuRendererBackendImpl) SetAdapter(adapter *wgpu.Adapter) {
	b.adapter = adapter
}

func (b *wgpuRendererBackendImpl) SetSurface(surface *wgpu.Surface) {
	b.surface = surface
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	b.surfaceSize = common.Size2d{X: uint32(width), Y: uint32(height)}
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeUncapped:
		b.presentMode = wgpu.PresentModeImmediate
	case PresentModeVSync:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeFifo
	}
}

func (b *wgpuRendererBackendImpl) SurfaceFormat() wgpu.TextureFormat {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surfaceFormat == nil {
		return wgpu.TextureFormatBGRA8Unorm
	}
	return *b.surfaceFormat
}

func (b *wgpuRendererBackendImpl) SurfaceSize() common.Size2d {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.surfaceSize
}

func (b *wgpuRendererBackendImpl) AcquireFrame() (*wgpu.TextureView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// If a previous frame's surface texture is still held, avoid acquiring another
	// one. This prevents wgpu-native validation errors like "Surface image is
	// already acquired" when frames overlap.
	if b.frameSurface != nil {
		return nil, fmt.Errorf("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return nil, err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return nil, err
	}
	b.frameSurface = surfaceTexture
	b.frameView = view
	return view, nil
}

func (b *wgpuRendererBackendImpl) EncodePass(pass *EncodedPass) (*wgpu.CommandBuffer, error) {
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, err
	}
	defer encoder.Release()

	rp := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:                  pass.Label,
		ColorAttachments:       pass.Color,
		DepthStencilAttachment: pass.Depth,
	})
	if !pass.RegionSize.IsZero() {
		rp.SetViewport(float32(pass.RegionOffset.X), float32(pass.RegionOffset.Y),
			float32(pass.RegionSize.X), float32(pass.RegionSize.Y), 0, 1)
		rp.SetScissorRect(pass.RegionOffset.X, pass.RegionOffset.Y, pass.RegionSize.X, pass.RegionSize.Y)
	}
	for _, cmd := range pass.Commands {
		switch cmd.Kind {
		case CommandSetPipeline:
			rp.SetPipeline(cmd.Pipeline)
		case CommandSetBindGroup:
			rp.SetBindGroup(cmd.GroupIndex, cmd.Group, nil)
		case CommandSetVertexBuffer:
			rp.SetVertexBuffer(cmd.Slot, cmd.Buffer, 0, wgpu.WholeSize)
		case CommandSetIndexBuffer:
			rp.SetIndexBuffer(cmd.Buffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		case CommandDraw:
			if cmd.Indexed {
				rp.DrawIndexed(
					cmd.Draw.IndexRange.Count(),
					cmd.Draw.InstanceRange.Count(),
					cmd.Draw.IndexRange.Start,
					cmd.Draw.BaseVertex,
					cmd.Draw.InstanceRange.Start,
				)
			} else {
				rp.Draw(
					cmd.Draw.IndexRange.Count(),
					cmd.Draw.InstanceRange.Count(),
					cmd.Draw.IndexRange.Start,
					cmd.Draw.InstanceRange.Start,
				)
			}
		}
	}
	rp.End()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return nil, err
	}
	return commandBuffer, nil
}

func (b *wgpuRendererBackendImpl) SubmitFrame(buffers []*wgpu.CommandBuffer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, buf := range buffers {
		b.queue.Submit(buf)
		buf.Release()
	}
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}

	b.surface.Present()

	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

func (b *wgpuRendererBackendImpl) CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	return b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
}

func (b *wgpuRendererBackendImpl) CreateTexture(label string, size common.Size2d, format wgpu.TextureFormat, usage wgpu.TextureUsage, sampleCount uint32) (*wgpu.Texture, *wgpu.TextureView, error) {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              size.X,
			Height:             size.Y,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   sampleCount,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, nil, err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, err
	}
	return tex, view, nil
}

func (b *wgpuRendererBackendImpl) CreateSampler(label string, kind graph.SamplerKind) (*wgpu.Sampler, error) {
	desc := &wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		MaxAnisotropy: 1,
	}
	switch kind {
	case graph.SamplerKindNonFilter:
		desc.MagFilter = wgpu.FilterModeNearest
		desc.MinFilter = wgpu.FilterModeNearest
		desc.MipmapFilter = wgpu.MipmapFilterModeNearest
	case graph.SamplerKindComparison:
		desc.Compare = wgpu.CompareFunctionLessEqual
	}
	return b.device.CreateSampler(desc)
}

func (b *wgpuRendererBackendImpl) WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) error {
	b.queue.WriteBuffer(buf, offset, data)
	return nil
}

func (b *wgpuRendererBackendImpl) ReleaseBuffer(buf *wgpu.Buffer) {
	if buf != nil {
		buf.Release()
	}
}

func (b *wgpuRendererBackendImpl) ReleaseTexture(tex *wgpu.Texture, view *wgpu.TextureView) {
	if view != nil {
		view.Release()
	}
	if tex != nil {
		tex.Release()
	}
}

func (b *wgpuRendererBackendImpl) ReleaseSampler(s *wgpu.Sampler) {
	if s != nil {
		s.Release()
	}
}

func (b *wgpuRendererBackendImpl) CreateBindGroupLayout(label string, entries []wgpu.BindGroupLayoutEntry) (*wgpu.BindGroupLayout, error) {
	return b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   label,
		Entries: entries,
	})
}

func (b *wgpuRendererBackendImpl) CreateBindGroup(label string, layout *wgpu.BindGroupLayout, entries []wgpu.BindGroupEntry) (*wgpu.BindGroup, error) {
	return b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   label,
		Layout:  layout,
		Entries: entries,
	})
}

func (b *wgpuRendererBackendImpl) ReleaseBindGroup(layout *wgpu.BindGroupLayout, group *wgpu.BindGroup) {
	if group != nil {
		group.Release()
	}
	if layout != nil {
		layout.Release()
	}
}

func (b *wgpuRendererBackendImpl) CreateShaderModule(label, source string) (*wgpu.ShaderModule, error) {
	return b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: source,
		},
	})
}

func (b *wgpuRendererBackendImpl) CreatePipelineLayout(label string, layouts []*wgpu.BindGroupLayout) (*wgpu.PipelineLayout, error) {
	return b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: layouts,
	})
}

func (b *wgpuRendererBackendImpl) CreateRenderPipeline(desc *wgpu.RenderPipelineDescriptor) (*wgpu.RenderPipeline, error) {
	return b.device.CreateRenderPipeline(desc)
}

func (b *wgpuRendererBackendImpl) ReleaseShaderModule(m *wgpu.ShaderModule) {
	if m != nil {
		m.Release()
	}
}

func (b *wgpuRendererBackendImpl) ReleasePipelineLayout(l *wgpu.PipelineLayout) {
	if l != nil {
		l.Release()
	}
}

func (b *wgpuRendererBackendImpl) ReleaseRenderPipeline(p *wgpu.RenderPipeline) {
	if p != nil {
		p.Release()
	}
}
