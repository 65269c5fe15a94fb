package pipeline

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/prism-go/engine/binding"
	"github.com/Carmen-Shannon/prism-go/engine/graph"
	"github.com/Carmen-Shannon/prism-go/engine/registry"
	"github.com/Carmen-Shannon/prism-go/engine/shader"
)

// Device is the subset of GPU device operations the builder needs. The renderer's
// backend provides the real implementation.
type Device interface {
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

// Builder compiles declared pipelines against resolved bind groups and the owning
// pass's attachment formats.
type Builder interface {
	// Build compiles one declared pipeline.
	//
	// Parameters:
	//   - m: the validated model
	//   - decl: the pipeline declaration to compile
	//
	// Returns:
	//   - Pipeline: the compiled pipeline record
	//   - error: a shader, layout, or pipeline creation error
	Build(m *graph.Model, decl graph.Pipeline) (Pipeline, error)

	// BuildAll compiles every pipeline the model declares, in declaration order.
	//
	// Parameters:
	//   - m: the validated model
	//
	// Returns:
	//   - map[string]Pipeline: the compiled pipelines by name
	//   - error: the first compile error
	BuildAll(m *graph.Model) (map[string]Pipeline, error)

	// InvalidateShader drops the cached source for a shader path so the next Build
	// re-reads it from disk.
	//
	// Parameters:
	//   - uri: the shader source path
	InvalidateShader(uri string)

	// Release frees every pipeline and shader module the builder created.
	Release()
}

type builder struct {
	mu            *sync.Mutex
	device        Device
	resolver      binding.Resolver
	surfaceFormat wgpu.TextureFormat
	shaders       map[string]shader.Shader
	built         []builtPipeline
}

type builtPipeline struct {
	handle *wgpu.RenderPipeline
	module *wgpu.ShaderModule
	layout *wgpu.PipelineLayout
}

var _ Builder = &builder{}

// NewBuilder creates a pipeline builder.
//
// Parameters:
//   - device: the GPU device operations to compile through
//   - resolver: the bind-group resolver supplying realized layouts
//   - surfaceFormat: the swapchain format used for window attachments
//
// Returns:
//   - Builder: the constructed builder
func NewBuilder(device Device, resolver binding.Resolver, surfaceFormat wgpu.TextureFormat) Builder {
	return &builder{
		mu:            &sync.Mutex{},
		device:        device,
		resolver:      resolver,
		surfaceFormat: surfaceFormat,
		shaders:       make(map[string]shader.Shader),
	}
}

func (b *builder) Build(m *graph.Model, decl graph.Pipeline) (Pipeline, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buildLocked(m, decl)
}

func (b *builder) buildLocked(m *graph.Model, decl graph.Pipeline) (Pipeline, error) {
	src, err := b.shaderFor(decl)
	if err != nil {
		return nil, err
	}
	if !src.HasEntry(decl.Shader.VertexEntry) {
		return nil, fmt.Errorf("pipeline %q vertex entry point %q: %w", decl.Name, decl.Shader.VertexEntry, graph.ErrShaderEntryPointMissing)
	}
	if decl.Shader.FragmentEntry != "" && !src.HasEntry(decl.Shader.FragmentEntry) {
		return nil, fmt.Errorf("pipeline %q fragment entry point %q: %w", decl.Name, decl.Shader.FragmentEntry, graph.ErrShaderEntryPointMissing)
	}

	vertexLayouts := make([]wgpu.VertexBufferLayout, 0, len(decl.InputBuffers))
	inputNames := make([]string, 0, len(decl.InputBuffers))
	for _, in := range decl.InputBuffers {
		vertexLayouts = append(vertexLayouts, binding.InputLayout(in))
		inputNames = append(inputNames, in.BufferName)
	}

	groupLayouts := make([]*wgpu.BindGroupLayout, 0, len(decl.BindGroups))
	for _, name := range decl.BindGroups {
		group, err := b.resolver.Group(name)
		if err != nil {
			return nil, fmt.Errorf("pipeline %q: %w", decl.Name, err)
		}
		groupLayouts = append(groupLayouts, group.Layout)
	}

	targets, err := ColorTargets(m, decl.Name, b.surfaceFormat)
	if err != nil {
		return nil, err
	}

	module, err := b.device.CreateShaderModule(decl.Name, src.Source())
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader for pipeline %q: %w", decl.Name, err)
	}
	layout, err := b.device.CreatePipelineLayout(decl.Name, groupLayouts)
	if err != nil {
		b.device.ReleaseShaderModule(module)
		return nil, fmt.Errorf("failed to create layout for pipeline %q: %w", decl.Name, err)
	}

	desc := &wgpu.RenderPipelineDescriptor{
		Label:  decl.Name,
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: decl.Shader.VertexEntry,
			Buffers:    vertexLayouts,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeFront,
		},
		Multisample: wgpu.MultisampleState{
			Count: decl.SampleCount(),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: DepthState(decl),
	}
	if decl.Shader.FragmentEntry != "" {
		desc.Fragment = &wgpu.FragmentState{
			Module:     module,
			EntryPoint: decl.Shader.FragmentEntry,
			Targets:    targets,
		}
	}

	handle, err := b.device.CreateRenderPipeline(desc)
	if err != nil {
		b.device.ReleasePipelineLayout(layout)
		b.device.ReleaseShaderModule(module)
		return nil, fmt.Errorf("failed to create pipeline %q: %w", decl.Name, err)
	}
	b.built = append(b.built, builtPipeline{handle: handle, module: module, layout: layout})

	return NewPipeline(decl.Name,
		WithHandle(handle),
		WithInputBuffers(inputNames),
		WithIndexBuffer(decl.IndexBuffer),
		WithBindGroups(decl.BindGroups),
		WithDepth(decl.Depth != nil),
	), nil
}

func (b *builder) BuildAll(m *graph.Model) (map[string]Pipeline, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pipelines := make(map[string]Pipeline, len(m.Pipelines))
	for _, decl := range m.Pipelines {
		p, err := b.buildLocked(m, decl)
		if err != nil {
			return nil, err
		}
		pipelines[decl.Name] = p
	}
	return pipelines, nil
}

func (b *builder) InvalidateShader(uri string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.shaders, uri)
}

func (b *builder) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, built := range b.built {
		b.device.ReleaseRenderPipeline(built.handle)
		b.device.ReleasePipelineLayout(built.layout)
		b.device.ReleaseShaderModule(built.module)
	}
	b.built = nil
}

// shaderFor returns the cached source for the declaration's URI, loading it on first
// use. Entry points are validated by the caller per pipeline, so the cache entry
// carries none.
func (b *builder) shaderFor(decl graph.Pipeline) (shader.Shader, error) {
	if cached, ok := b.shaders[decl.Shader.URI]; ok {
		return cached, nil
	}
	src, err := shader.NewShader(decl.Shader.URI, shader.WithSourceFile(decl.Shader.URI))
	if err != nil {
		return nil, fmt.Errorf("pipeline %q: %w", decl.Name, err)
	}
	b.shaders[decl.Shader.URI] = src
	return src, nil
}

// ColorTargets derives the color target states for a pipeline from its owning pass's
// attachments. Depth attachments are skipped; window attachments use the surface
// format.
//
// Parameters:
//   - m: the validated model
//   - pipelineName: the pipeline whose owning pass supplies the attachments
//   - surfaceFormat: the swapchain format
//
// Returns:
//   - []wgpu.ColorTargetState: the color targets in attachment order
//   - error: an unresolved-reference error when no pass lists the pipeline
func ColorTargets(m *graph.Model, pipelineName string, surfaceFormat wgpu.TextureFormat) ([]wgpu.ColorTargetState, error) {
	pass, ok := m.PassForPipeline(pipelineName)
	if !ok {
		return nil, fmt.Errorf("pipeline %q listed by no pass: %w", pipelineName, graph.ErrUnresolvedReference)
	}
	var targets []wgpu.ColorTargetState
	for _, att := range pass.Attachments {
		format := surfaceFormat
		if !att.Window {
			tex, ok := m.TextureByName(att.Texture)
			if !ok {
				return nil, fmt.Errorf("pass %q attachment texture %q: %w", pass.Name, att.Texture, graph.ErrUnresolvedReference)
			}
			if tex.Format.IsDepth() {
				continue
			}
			format = registry.TextureFormat(tex.Format)
		}
		targets = append(targets, wgpu.ColorTargetState{
			Format:    format,
			WriteMask: wgpu.ColorWriteMaskAll,
		})
	}
	return targets, nil
}

// DepthState derives the depth-stencil state for a pipeline declaration, nil when the
// declaration carries no depth.
//
// Parameters:
//   - decl: the pipeline declaration
//
// Returns:
//   - *wgpu.DepthStencilState: the depth state, nil when depth is disabled
func DepthState(decl graph.Pipeline) *wgpu.DepthStencilState {
	if decl.Depth == nil {
		return nil
	}
	return &wgpu.DepthStencilState{
		Format:            wgpu.TextureFormatDepth32Float,
		DepthWriteEnabled: true,
		DepthCompare:      wgpu.CompareFunctionLess,
		StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
	}
}
