package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/binding"
	"github.com/Carmen-Shannon/prism-go/engine/graph"
)

const builderSource = `
@vertex
fn vs_main(@builtin(vertex_index) index: u32) -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 1.0, 1.0, 1.0);
}
`

// fakePipelineDevice records compilation without a GPU.
type fakePipelineDevice struct {
	modules   int
	layouts   int
	pipelines int
	released  int

	lastDesc *wgpu.RenderPipelineDescriptor
	failNext error
}

func (d *fakePipelineDevice) CreateShaderModule(label, source string) (*wgpu.ShaderModule, error) {
	if d.failNext != nil {
		err := d.failNext
		d.failNext = nil
		return nil, err
	}
	d.modules++
	return &wgpu.ShaderModule{}, nil
}

func (d *fakePipelineDevice) CreatePipelineLayout(label string, layouts []*wgpu.BindGroupLayout) (*wgpu.PipelineLayout, error) {
	d.layouts++
	return &wgpu.PipelineLayout{}, nil
}

func (d *fakePipelineDevice) CreateRenderPipeline(desc *wgpu.RenderPipelineDescriptor) (*wgpu.RenderPipeline, error) {
	d.pipelines++
	d.lastDesc = desc
	return &wgpu.RenderPipeline{}, nil
}

func (d *fakePipelineDevice) ReleaseShaderModule(m *wgpu.ShaderModule)   { d.released++ }
func (d *fakePipelineDevice) ReleasePipelineLayout(l *wgpu.PipelineLayout) { d.released++ }
func (d *fakePipelineDevice) ReleaseRenderPipeline(p *wgpu.RenderPipeline) { d.released++ }

// fakeResolver hands out empty layouts for any known group name.
type fakeResolver struct {
	known map[string]bool
}

func (r *fakeResolver) Realize(m *graph.Model) error { return nil }
func (r *fakeResolver) Refresh(m *graph.Model) error { return nil }
func (r *fakeResolver) Release()                     {}

func (r *fakeResolver) Group(name string) (*binding.Group, error) {
	if !r.known[name] {
		return nil, fmt.Errorf("bind group %q not realized: %w", name, graph.ErrUnresolvedReference)
	}
	return &binding.Group{Name: name, Layout: &wgpu.BindGroupLayout{}, Handle: &wgpu.BindGroup{}}, nil
}

// builderModel declares one depth-tested pipeline rendering to a color texture and
// the window surface.
func builderModel(t *testing.T) *graph.Model {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shader.wgsl")
	require.NoError(t, os.WriteFile(path, []byte(builderSource), 0o644))

	return &graph.Model{
		Buffers: []graph.Buffer{
			{Name: "verts", Size: 256, BufferType: graph.BufferTypeVertex},
			{Name: "indices", Size: 64, BufferType: graph.BufferTypeIndex},
		},
		Textures: []graph.Texture{
			{Name: "color", Format: graph.TextureFormatRGBA16Float, Size2d: common.Size2d{X: 64, Y: 64}},
			{Name: "depth", Format: graph.TextureFormatDepth32Float, Size2d: common.Size2d{X: 64, Y: 64}},
		},
		Pipelines: []graph.Pipeline{
			{
				Name: "lit",
				InputBuffers: []graph.InputBuffer{
					{BufferName: "verts", StepMode: graph.StepModeVertex, Stride: 12, Attributes: []graph.Attribute{
						{Location: 0, Offset: 0, Format: graph.AttributeFormatFloat32x3},
					}},
				},
				IndexBuffer: "indices",
				BindGroups:  []string{"scene"},
				Shader:      graph.Shader{URI: path, VertexEntry: "vs_main", FragmentEntry: "fs_main"},
				Depth:       &graph.Depth{Texture: "depth"},
			},
		},
		Passes: []graph.Pass{
			{
				Name:      "main",
				Pipelines: []string{"lit"},
				Attachments: []graph.Attachment{
					{Texture: "color", LoadOp: graph.LoadOpClear, Store: true},
					{Texture: "depth", LoadOp: graph.LoadOpClear, Store: true},
					{Window: true, LoadOp: graph.LoadOpClear, Store: true},
				},
			},
		},
	}
}

func TestBuildAll(t *testing.T) {
	m := builderModel(t)
	dev := &fakePipelineDevice{}
	b := NewBuilder(dev, &fakeResolver{known: map[string]bool{"scene": true}}, wgpu.TextureFormatBGRA8Unorm)

	pipelines, err := b.BuildAll(m)
	require.NoError(t, err)
	require.Len(t, pipelines, 1)

	p := pipelines["lit"]
	require.NotNil(t, p)
	assert.Equal(t, "lit", p.Key())
	assert.NotNil(t, p.Handle())
	assert.Equal(t, []string{"verts"}, p.InputBuffers())
	assert.Equal(t, "indices", p.IndexBuffer())
	assert.Equal(t, []string{"scene"}, p.BindGroups())
	assert.True(t, p.HasDepth())

	desc := dev.lastDesc
	require.NotNil(t, desc)
	assert.Equal(t, "vs_main", desc.Vertex.EntryPoint)
	require.NotNil(t, desc.Fragment)
	assert.Equal(t, "fs_main", desc.Fragment.EntryPoint)
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, desc.Primitive.Topology)
	assert.Equal(t, wgpu.FrontFaceCCW, desc.Primitive.FrontFace)
	assert.Equal(t, wgpu.CullModeFront, desc.Primitive.CullMode)
	require.NotNil(t, desc.DepthStencil)
	assert.Equal(t, wgpu.TextureFormatDepth32Float, desc.DepthStencil.Format)
	assert.Equal(t, uint32(1), desc.Multisample.Count)

	// Depth attachment skipped; color texture, then the window in surface format.
	require.Len(t, desc.Fragment.Targets, 2)
	assert.Equal(t, wgpu.TextureFormatRGBA16Float, desc.Fragment.Targets[0].Format)
	assert.Equal(t, wgpu.TextureFormatBGRA8Unorm, desc.Fragment.Targets[1].Format)
}

func TestBuildMultisampledPipeline(t *testing.T) {
	m := builderModel(t)
	m.Pipelines[0].Multisampled = true
	dev := &fakePipelineDevice{}
	b := NewBuilder(dev, &fakeResolver{known: map[string]bool{"scene": true}}, wgpu.TextureFormatBGRA8Unorm)

	_, err := b.BuildAll(m)
	require.NoError(t, err)
	require.NotNil(t, dev.lastDesc)
	assert.Equal(t, uint32(4), dev.lastDesc.Multisample.Count)
}

func TestBuildMissingEntryPoint(t *testing.T) {
	m := builderModel(t)
	m.Pipelines[0].Shader.FragmentEntry = "fs_other"
	b := NewBuilder(&fakePipelineDevice{}, &fakeResolver{known: map[string]bool{"scene": true}}, wgpu.TextureFormatBGRA8Unorm)

	_, err := b.BuildAll(m)
	assert.ErrorIs(t, err, graph.ErrShaderEntryPointMissing)
}

func TestBuildUnrealizedBindGroup(t *testing.T) {
	m := builderModel(t)
	b := NewBuilder(&fakePipelineDevice{}, &fakeResolver{known: map[string]bool{}}, wgpu.TextureFormatBGRA8Unorm)

	_, err := b.BuildAll(m)
	assert.ErrorIs(t, err, graph.ErrUnresolvedReference)
}

func TestBuildVertexOnlyPipeline(t *testing.T) {
	m := builderModel(t)
	m.Pipelines[0].Shader.FragmentEntry = ""
	dev := &fakePipelineDevice{}
	b := NewBuilder(dev, &fakeResolver{known: map[string]bool{"scene": true}}, wgpu.TextureFormatBGRA8Unorm)

	_, err := b.BuildAll(m)
	require.NoError(t, err)
	assert.Nil(t, dev.lastDesc.Fragment)
}

func TestBuildShaderCompileFailureReleases(t *testing.T) {
	m := builderModel(t)
	dev := &fakePipelineDevice{failNext: errors.New("compile failed")}
	b := NewBuilder(dev, &fakeResolver{known: map[string]bool{"scene": true}}, wgpu.TextureFormatBGRA8Unorm)

	_, err := b.BuildAll(m)
	require.Error(t, err)
	assert.Zero(t, dev.pipelines)
}

func TestRelease(t *testing.T) {
	m := builderModel(t)
	dev := &fakePipelineDevice{}
	b := NewBuilder(dev, &fakeResolver{known: map[string]bool{"scene": true}}, wgpu.TextureFormatBGRA8Unorm)

	_, err := b.BuildAll(m)
	require.NoError(t, err)

	b.Release()
	// Pipeline, layout, and module all released.
	assert.Equal(t, 3, dev.released)
}

func TestColorTargetsUnownedPipeline(t *testing.T) {
	m := builderModel(t)
	_, err := ColorTargets(m, "unowned", wgpu.TextureFormatBGRA8Unorm)
	assert.ErrorIs(t, err, graph.ErrUnresolvedReference)
}

func TestDepthState(t *testing.T) {
	assert.Nil(t, DepthState(graph.Pipeline{}))

	state := DepthState(graph.Pipeline{Depth: &graph.Depth{Texture: "depth"}})
	require.NotNil(t, state)
	assert.True(t, state.DepthWriteEnabled)
	assert.Equal(t, wgpu.CompareFunctionLess, state.DepthCompare)
	assert.Equal(t, wgpu.CompareFunctionAlways, state.StencilFront.Compare)
}
