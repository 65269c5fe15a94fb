package binding

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/graph"
)

func layoutModel() *graph.Model {
	return &graph.Model{
		Buffers: []graph.Buffer{
			{Name: "camera", Size: 64, BufferType: graph.BufferTypeUniform},
			{Name: "instances", Size: 1024, BufferType: graph.BufferTypeStorage},
		},
		Textures: []graph.Texture{
			{Name: "albedo", Format: graph.TextureFormatRGBA8Unorm, Size2d: common.Size2d{X: 64, Y: 64}},
			{Name: "positions", Format: graph.TextureFormatRGBA32Float, Size2d: common.Size2d{X: 64, Y: 64}},
			{Name: "depth", Format: graph.TextureFormatDepth32Float, Size2d: common.Size2d{X: 64, Y: 64}},
		},
		Samplers: []graph.Sampler{
			{Name: "linear", Kind: graph.SamplerKindFilter},
			{Name: "nearest", Kind: graph.SamplerKindNonFilter},
			{Name: "shadow", Kind: graph.SamplerKindComparison},
		},
	}
}

func TestLayoutEntriesOrderAndTypes(t *testing.T) {
	m := layoutModel()
	bg := graph.BindGroup{
		Name: "everything",
		BufferBindings: []graph.BufferBinding{
			{Binding: 0, Stages: graph.StageVertex, Buffer: "camera", Size: 64},
			{Binding: 1, Stages: graph.StageBoth, Buffer: "instances", Size: 1024},
		},
		TextureBindings: []graph.TextureBinding{
			{Binding: 2, Stages: graph.StageFragment, Texture: "albedo", Filterable: true},
			{Binding: 3, Stages: graph.StageFragment, Texture: "positions"},
			{Binding: 4, Stages: graph.StageFragment, Texture: "depth"},
		},
		SamplerBindings: []graph.SamplerBinding{
			{Binding: 5, Stages: graph.StageFragment, Sampler: "linear"},
			{Binding: 6, Stages: graph.StageFragment, Sampler: "nearest"},
			{Binding: 7, Stages: graph.StageFragment, Sampler: "shadow"},
		},
	}

	entries, err := LayoutEntries(m, bg)
	require.NoError(t, err)
	require.Len(t, entries, 8)

	// Buffers first: uniform then read-only storage.
	assert.Equal(t, uint32(0), entries[0].Binding)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, entries[0].Buffer.Type)
	assert.Equal(t, uint64(64), entries[0].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.ShaderStageVertex, entries[0].Visibility)

	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, entries[1].Buffer.Type)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, entries[1].Visibility)

	// Textures next: filterable float, unfilterable float, depth.
	assert.Equal(t, wgpu.TextureSampleTypeFloat, entries[2].Texture.SampleType)
	assert.Equal(t, wgpu.TextureSampleTypeUnfilterableFloat, entries[3].Texture.SampleType)
	assert.Equal(t, wgpu.TextureSampleTypeDepth, entries[4].Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimension2D, entries[2].Texture.ViewDimension)

	// Samplers last: filtering, non-filtering, comparison.
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, entries[5].Sampler.Type)
	assert.Equal(t, wgpu.SamplerBindingTypeNonFiltering, entries[6].Sampler.Type)
	assert.Equal(t, wgpu.SamplerBindingTypeComparison, entries[7].Sampler.Type)

	// Derivation is deterministic.
	again, err := LayoutEntries(m, bg)
	require.NoError(t, err)
	assert.Equal(t, entries, again)
}

func TestLayoutEntriesUnresolved(t *testing.T) {
	m := layoutModel()

	_, err := LayoutEntries(m, graph.BindGroup{
		Name:           "bad",
		BufferBindings: []graph.BufferBinding{{Binding: 0, Buffer: "missing"}},
	})
	assert.ErrorIs(t, err, graph.ErrUnresolvedReference)

	_, err = LayoutEntries(m, graph.BindGroup{
		Name:            "bad",
		TextureBindings: []graph.TextureBinding{{Binding: 0, Texture: "missing"}},
	})
	assert.ErrorIs(t, err, graph.ErrUnresolvedReference)

	_, err = LayoutEntries(m, graph.BindGroup{
		Name:            "bad",
		SamplerBindings: []graph.SamplerBinding{{Binding: 0, Sampler: "missing"}},
	})
	assert.ErrorIs(t, err, graph.ErrUnresolvedReference)
}

func TestInputLayout(t *testing.T) {
	layout := InputLayout(graph.InputBuffer{
		BufferName: "verts",
		StepMode:   graph.StepModeInstance,
		Stride:     16,
		Attributes: []graph.Attribute{
			{Location: 3, Offset: 0, Format: graph.AttributeFormatFloat32x4},
		},
	})

	assert.Equal(t, uint64(16), layout.ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeInstance, layout.StepMode)
	require.Len(t, layout.Attributes, 1)
	assert.Equal(t, wgpu.VertexFormatFloat32x4, layout.Attributes[0].Format)
	assert.Equal(t, uint32(3), layout.Attributes[0].ShaderLocation)
}

func TestVertexFormat(t *testing.T) {
	assert.Equal(t, wgpu.VertexFormatFloat32x3, VertexFormat(graph.AttributeFormatFloat32x3))
	assert.Equal(t, wgpu.VertexFormatUnorm8x4, VertexFormat(graph.AttributeFormatUnorm8x4))
	assert.Equal(t, wgpu.VertexFormatSint16x2, VertexFormat(graph.AttributeFormatSint16x2))
	assert.Equal(t, wgpu.VertexFormatUint32, VertexFormat(graph.AttributeFormatUint32))
}
