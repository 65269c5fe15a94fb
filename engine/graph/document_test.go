package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalDocument = `
[[buffers]]
name = "verts"
size = 96
buffer_type = "vertex"

[[buffers]]
name = "indices"
size = 24
buffer_type = "index"

[[pipelines]]
name = "flat"
index_buffer = "indices"

[[pipelines.input_buffers]]
buffer = "verts"
step_mode = "vertex"
stride = 12

[[pipelines.input_buffers.attributes]]
location = 0
offset = 0
format = "float32x3"

[pipelines.shader]
uri = "flat.wgsl"
vertex_entry = "vs_main"
fragment_entry = "fs_main"

[[passes]]
name = "main"
pipelines = ["flat"]

[[passes.attachments]]
window = true
load_op = "clear"
clear_color = [0.1, 0.2, 0.3, 1.0]
store = true
`

func TestParseModel(t *testing.T) {
	m, err := ParseModel([]byte(minimalDocument))
	require.NoError(t, err)

	require.Len(t, m.Buffers, 2)
	assert.Equal(t, Buffer{Name: "verts", Size: 96, BufferType: BufferTypeVertex}, m.Buffers[0])
	assert.Equal(t, BufferTypeIndex, m.Buffers[1].BufferType)

	require.Len(t, m.Pipelines, 1)
	p := m.Pipelines[0]
	assert.Equal(t, "indices", p.IndexBuffer)
	require.Len(t, p.InputBuffers, 1)
	assert.Equal(t, StepModeVertex, p.InputBuffers[0].StepMode)
	assert.Equal(t, uint64(12), p.InputBuffers[0].Stride)
	require.Len(t, p.InputBuffers[0].Attributes, 1)
	assert.Equal(t, AttributeFormatFloat32x3, p.InputBuffers[0].Attributes[0].Format)
	assert.Equal(t, Shader{URI: "flat.wgsl", VertexEntry: "vs_main", FragmentEntry: "fs_main"}, p.Shader)

	require.Len(t, m.Passes, 1)
	require.Len(t, m.Passes[0].Attachments, 1)
	att := m.Passes[0].Attachments[0]
	assert.True(t, att.Window)
	assert.Equal(t, LoadOpClear, att.LoadOp)
	assert.Equal(t, [4]float64{0.1, 0.2, 0.3, 1.0}, att.ClearColor)
	assert.True(t, att.Store)
}

func TestParseModelRejectsInvalid(t *testing.T) {
	// Syntactically valid TOML referencing an undeclared buffer.
	doc := `
[[pipelines]]
name = "flat"
index_buffer = "missing"
`
	_, err := ParseModel([]byte(doc))
	assert.ErrorIs(t, err, ErrUnresolvedReference)
}

func TestParseModelRejectsBadEnum(t *testing.T) {
	doc := `
[[buffers]]
name = "verts"
size = 96
buffer_type = "nonsense"
`
	_, err := ParseModel([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "buffer type")
}

func TestEncodeModelRoundTrip(t *testing.T) {
	m, err := ParseModel([]byte(minimalDocument))
	require.NoError(t, err)

	data, err := EncodeModel(m)
	require.NoError(t, err)

	back, err := ParseModel(data)
	require.NoError(t, err)

	// Absent sections decode as empty rather than nil slices, so the models are
	// compared through a second encode instead of structurally.
	again, err := EncodeModel(back)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))

	assert.Equal(t, m.Buffers, back.Buffers)
	require.Len(t, back.Pipelines, 1)
	assert.Equal(t, m.Pipelines[0].InputBuffers, back.Pipelines[0].InputBuffers)
	assert.Equal(t, m.Pipelines[0].Shader, back.Pipelines[0].Shader)
	require.Len(t, back.Passes, 1)
	assert.Equal(t, m.Passes[0].Attachments, back.Passes[0].Attachments)
}

func TestLoadModelMissingFile(t *testing.T) {
	_, err := LoadModel("does-not-exist.toml")
	require.Error(t, err)
}

func TestEnumTokens(t *testing.T) {
	assert.Equal(t, "depth32float", TextureFormatDepth32Float.String())
	assert.Equal(t, "non_filter", SamplerKindNonFilter.String())
	assert.Equal(t, "instance", StepModeInstance.String())
	assert.Equal(t, "both", StageBoth.String())
	assert.Equal(t, "load", LoadOpLoad.String())

	var f TextureFormat
	require.NoError(t, f.UnmarshalText([]byte("rgba16float")))
	assert.Equal(t, TextureFormatRGBA16Float, f)
	assert.Error(t, f.UnmarshalText([]byte("rgba64float")))
}
