package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/prism-go/common"
)

// twoPassModel builds a consistent geometry+compose model used as the baseline for
// validation tests; individual tests mutate a copy to trigger one violation.
func twoPassModel() *Model {
	return &Model{
		Buffers: []Buffer{
			{Name: "verts", Size: 1024, BufferType: BufferTypeVertex},
			{Name: "indices", Size: 256, BufferType: BufferTypeIndex},
			{Name: "camera", Size: 64, BufferType: BufferTypeUniform},
		},
		Textures: []Texture{
			{Name: "color", Format: TextureFormatRGBA8Unorm, Size2d: common.Size2d{X: 640, Y: 480}},
			{Name: "depth", Format: TextureFormatDepth32Float, Size2d: common.Size2d{X: 640, Y: 480}},
		},
		Samplers: []Sampler{
			{Name: "nearest", Kind: SamplerKindNonFilter},
		},
		BindGroups: []BindGroup{
			{
				Name: "scene",
				BufferBindings: []BufferBinding{
					{Binding: 0, Stages: StageVertex, Buffer: "camera", Size: 64},
				},
			},
			{
				Name: "blit",
				TextureBindings: []TextureBinding{
					{Binding: 0, Stages: StageFragment, Texture: "color"},
				},
				SamplerBindings: []SamplerBinding{
					{Binding: 1, Stages: StageFragment, Sampler: "nearest"},
				},
			},
		},
		Pipelines: []Pipeline{
			{
				Name: "geometry",
				InputBuffers: []InputBuffer{
					{BufferName: "verts", StepMode: StepModeVertex, Stride: 24, Attributes: []Attribute{
						{Location: 0, Offset: 0, Format: AttributeFormatFloat32x3},
						{Location: 1, Offset: 12, Format: AttributeFormatFloat32x3},
					}},
				},
				IndexBuffer: "indices",
				BindGroups:  []string{"scene"},
				Shader:      Shader{URI: "geometry.wgsl", VertexEntry: "vs_main", FragmentEntry: "fs_main"},
				Depth:       &Depth{Texture: "depth"},
			},
			{
				Name:       "compose",
				BindGroups: []string{"blit"},
				Shader:     Shader{URI: "compose.wgsl", VertexEntry: "vs_main", FragmentEntry: "fs_main"},
			},
		},
		Passes: []Pass{
			{
				Name:      "geometry_pass",
				Pipelines: []string{"geometry"},
				Attachments: []Attachment{
					{Texture: "color", LoadOp: LoadOpClear, Store: true},
					{Texture: "depth", LoadOp: LoadOpClear, ClearColor: [4]float64{1, 0, 0, 0}, Store: true},
				},
			},
			{
				Name:      "compose_pass",
				Pipelines: []string{"compose"},
				Attachments: []Attachment{
					{Window: true, LoadOp: LoadOpClear, Store: true},
				},
			},
		},
		Dependencies: map[string][]string{
			"compose_pass": {"geometry_pass"},
		},
	}
}

func TestValidateAcceptsConsistentModel(t *testing.T) {
	require.NoError(t, twoPassModel().Validate())
}

func TestValidateDuplicateNames(t *testing.T) {
	m := twoPassModel()
	m.Buffers = append(m.Buffers, Buffer{Name: "verts", Size: 16, BufferType: BufferTypeVertex})
	assert.ErrorIs(t, m.Validate(), ErrDuplicateName)

	// The same name is fine across kinds.
	m = twoPassModel()
	m.Textures = append(m.Textures, Texture{Name: "verts", Format: TextureFormatRGBA8Unorm, Size2d: common.Size2d{X: 4, Y: 4}})
	assert.NoError(t, m.Validate())
}

func TestValidateUnresolvedReferences(t *testing.T) {
	m := twoPassModel()
	m.BindGroups[0].BufferBindings[0].Buffer = "missing"
	assert.ErrorIs(t, m.Validate(), ErrUnresolvedReference)

	m = twoPassModel()
	m.Pipelines[0].IndexBuffer = "missing"
	assert.ErrorIs(t, m.Validate(), ErrUnresolvedReference)

	m = twoPassModel()
	m.Pipelines[0].BindGroups = []string{"missing"}
	assert.ErrorIs(t, m.Validate(), ErrUnresolvedReference)

	m = twoPassModel()
	m.Passes[0].Pipelines = []string{"missing"}
	assert.ErrorIs(t, m.Validate(), ErrUnresolvedReference)

	m = twoPassModel()
	m.Passes[0].Attachments[0].Texture = "missing"
	assert.ErrorIs(t, m.Validate(), ErrUnresolvedReference)
}

func TestValidateIncompatibleUsage(t *testing.T) {
	// Vertex buffer bound in a bind group.
	m := twoPassModel()
	m.BindGroups[0].BufferBindings[0].Buffer = "verts"
	assert.ErrorIs(t, m.Validate(), ErrIncompatibleUsage)

	// Uniform buffer used as a vertex input.
	m = twoPassModel()
	m.Pipelines[0].InputBuffers[0].BufferName = "camera"
	assert.ErrorIs(t, m.Validate(), ErrIncompatibleUsage)

	// Uniform buffer used as an index buffer.
	m = twoPassModel()
	m.Pipelines[0].IndexBuffer = "camera"
	assert.ErrorIs(t, m.Validate(), ErrIncompatibleUsage)

	// Color texture used for depth.
	m = twoPassModel()
	m.Pipelines[0].Depth = &Depth{Texture: "color"}
	assert.ErrorIs(t, m.Validate(), ErrIncompatibleUsage)
}

func TestValidateBindingRanges(t *testing.T) {
	m := twoPassModel()
	m.BindGroups[0].BufferBindings[0].Offset = 32
	m.BindGroups[0].BufferBindings[0].Size = 64
	assert.ErrorIs(t, m.Validate(), ErrOutOfBounds)

	m = twoPassModel()
	m.BindGroups[1].TextureBindings[0].Size = common.Size2d{X: 700, Y: 480}
	assert.ErrorIs(t, m.Validate(), ErrOutOfBounds)

	// Attribute offset past the stride.
	m = twoPassModel()
	m.Pipelines[0].InputBuffers[0].Attributes[1].Offset = 24
	assert.ErrorIs(t, m.Validate(), ErrOutOfBounds)

	// Attachment region past the texture extent.
	m = twoPassModel()
	m.Passes[0].Attachments[0].Offset = common.Size2d{X: 600, Y: 0}
	m.Passes[0].Attachments[0].Size = common.Size2d{X: 100, Y: 100}
	assert.ErrorIs(t, m.Validate(), ErrOutOfBounds)
}

func TestValidateRejectsTextureBindingRegion(t *testing.T) {
	// In-bounds sampled sub-regions are still rejected: the backend has no way
	// to bind them.
	m := twoPassModel()
	m.BindGroups[1].TextureBindings[0].Offset = common.Size2d{X: 16, Y: 16}
	m.BindGroups[1].TextureBindings[0].Size = common.Size2d{X: 32, Y: 32}
	assert.ErrorIs(t, m.Validate(), ErrIncompatibleUsage)
}

func TestValidateSampleCounts(t *testing.T) {
	// A multisampled texture can only be rendered into, never sampled.
	m := twoPassModel()
	m.Textures[0].Multisampled = true
	assert.ErrorIs(t, m.Validate(), ErrIncompatibleUsage)

	// Every attachment and pipeline in a pass renders at one sample count.
	m = twoPassModel()
	m.Textures[1].Multisampled = true
	assert.ErrorIs(t, m.Validate(), ErrIncompatibleUsage)

	m = twoPassModel()
	m.Pipelines[0].Multisampled = true
	assert.ErrorIs(t, m.Validate(), ErrIncompatibleUsage)

	// A pass that agrees at 4 samples throughout is fine, as long as nothing
	// samples its targets.
	m = twoPassModel()
	m.Textures[0].Multisampled = true
	m.Textures[1].Multisampled = true
	m.Pipelines[0].Multisampled = true
	m.BindGroups[1].TextureBindings = nil
	assert.NoError(t, m.Validate())
}

func TestValidateAttachmentRegionsMustAgree(t *testing.T) {
	m := twoPassModel()
	m.Passes[0].Attachments[0].Size = common.Size2d{X: 320, Y: 240}
	m.Passes[0].Attachments[1].Size = common.Size2d{X: 100, Y: 100}
	assert.ErrorIs(t, m.Validate(), ErrIncompatibleUsage)

	// Matching regions are fine; zero-size attachments do not conflict.
	m = twoPassModel()
	m.Passes[0].Attachments[0].Size = common.Size2d{X: 320, Y: 240}
	m.Passes[0].Attachments[1].Size = common.Size2d{X: 320, Y: 240}
	assert.NoError(t, m.Validate())
}

func TestValidateDuplicateSlot(t *testing.T) {
	m := twoPassModel()
	m.BindGroups[1].SamplerBindings[0].Binding = 0
	assert.ErrorIs(t, m.Validate(), ErrDuplicateName)
}

func TestValidateSingleDepthAttachment(t *testing.T) {
	m := twoPassModel()
	m.Textures = append(m.Textures, Texture{Name: "depth2", Format: TextureFormatDepth32Float, Size2d: common.Size2d{X: 640, Y: 480}})
	m.Passes[0].Attachments = append(m.Passes[0].Attachments, Attachment{Texture: "depth2", LoadOp: LoadOpClear})
	assert.ErrorIs(t, m.Validate(), ErrIncompatibleUsage)
}

func TestValidatePipelineOwnership(t *testing.T) {
	m := twoPassModel()
	m.Passes[1].Pipelines = append(m.Passes[1].Pipelines, "geometry")
	assert.ErrorIs(t, m.Validate(), ErrDuplicateName)
}

func TestValidateDependencies(t *testing.T) {
	m := twoPassModel()
	m.Dependencies["compose_pass"] = []string{"missing"}
	assert.ErrorIs(t, m.Validate(), ErrUnresolvedReference)

	m = twoPassModel()
	m.Dependencies["missing"] = []string{"geometry_pass"}
	assert.ErrorIs(t, m.Validate(), ErrUnresolvedReference)
}

func TestPassForPipeline(t *testing.T) {
	m := twoPassModel()
	pass, ok := m.PassForPipeline("compose")
	require.True(t, ok)
	assert.Equal(t, "compose_pass", pass.Name)

	_, ok = m.PassForPipeline("missing")
	assert.False(t, ok)
}
