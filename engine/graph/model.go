// package graph defines the declarative render-graph model: named GPU resources,
// bind groups, pipelines, and passes, plus the dependency relation between passes.
// The model is plain data and owns no GPU objects. The registry, binding resolver,
// pipeline builder, and pass graph consume it at setup time; the renderer consumes
// the resulting structures each frame.
package graph

import (
	"github.com/Carmen-Shannon/prism-go/common"
)

// --- Resource Descriptions ---

// BufferType declares how a buffer is used by pipelines and bind groups. The GPU usage
// flags for the underlying allocation are derived from this.
type BufferType int

const (
	// BufferTypeVertex marks a buffer bound as a vertex input.
	BufferTypeVertex BufferType = iota

	// BufferTypeIndex marks a buffer bound as an index buffer.
	BufferTypeIndex

	// BufferTypeUniform marks a buffer bound as a uniform in a bind group.
	BufferTypeUniform

	// BufferTypeStorage marks a buffer bound as read-only storage in a bind group.
	BufferTypeStorage
)

// Buffer describes a named GPU buffer allocation.
type Buffer struct {
	// Name is the unique identifier for this buffer within the model.
	Name string `toml:"name"`

	// Size is the allocation size in bytes.
	Size uint64 `toml:"size"`

	// BufferType declares the binding usage this buffer is created for.
	BufferType BufferType `toml:"buffer_type"`
}

// TextureFormat identifies the texel format of a texture. The set matches what the
// render-graph supports as attachments and sampled bindings.
type TextureFormat int

const (
	// TextureFormatRGBA8Unorm is 8-bit-per-channel normalized color.
	TextureFormatRGBA8Unorm TextureFormat = iota

	// TextureFormatBGRA8Unorm is the common swapchain color format.
	TextureFormatBGRA8Unorm

	// TextureFormatRGBA16Float is 16-bit float color, used for HDR intermediate targets.
	TextureFormatRGBA16Float

	// TextureFormatRGBA32Float is 32-bit float color, used for position/normal G-buffers.
	TextureFormatRGBA32Float

	// TextureFormatDepth32Float is the depth-target format.
	TextureFormatDepth32Float
)

// IsDepth reports whether the format is a depth format.
//
// Returns:
//   - bool: true for depth formats, false for color formats
func (f TextureFormat) IsDepth() bool {
	return f == TextureFormatDepth32Float
}

// Texture describes a named 2D GPU texture.
type Texture struct {
	// Name is the unique identifier for this texture within the model.
	Name string `toml:"name"`

	// Format is the texel format.
	Format TextureFormat `toml:"format"`

	// Size2d is the texture extent in pixels.
	Size2d common.Size2d `toml:"size"`

	// WindowSized marks the texture as tracking the window surface size; the renderer
	// resizes it through the registry when the surface is reconfigured.
	WindowSized bool `toml:"window_sized"`

	// Multisampled allocates the texture with 4 samples per texel for MSAA.
	// Multisampled textures can only be rendered into, not bound for sampling.
	Multisampled bool `toml:"multisampled"`
}

// SampleCount reports the GPU sample count the texture is allocated with.
//
// Returns:
//   - uint32: 4 when multisampled, 1 otherwise
func (t Texture) SampleCount() uint32 {
	if t.Multisampled {
		return 4
	}
	return 1
}

// SamplerKind selects the filtering/comparison behavior of a sampler.
type SamplerKind int

const (
	// SamplerKindFilter is a linear-filtering sampler.
	SamplerKindFilter SamplerKind = iota

	// SamplerKindNonFilter is a nearest-neighbor sampler.
	SamplerKindNonFilter

	// SamplerKindComparison is a depth-comparison sampler.
	SamplerKindComparison
)

// Sampler describes a named GPU sampler.
type Sampler struct {
	// Name is the unique identifier for this sampler within the model.
	Name string `toml:"name"`

	// Kind selects filtering or comparison behavior.
	Kind SamplerKind `toml:"kind"`
}

// --- Shader ---

// Shader identifies an externally compiled shader module: a source URI plus the names
// of its entry points. The engine never parses or validates shader code beyond checking
// that the named entry points exist in the source text.
type Shader struct {
	// URI locates the WGSL source, typically a file path.
	URI string `toml:"uri"`

	// VertexEntry is the vertex entry point function name.
	VertexEntry string `toml:"vertex_entry"`

	// FragmentEntry is the fragment entry point function name.
	FragmentEntry string `toml:"fragment_entry"`
}

// --- Pipeline Inputs ---

// StepMode selects whether an input buffer advances per vertex or per instance.
type StepMode int

const (
	// StepModeVertex advances the buffer once per vertex.
	StepModeVertex StepMode = iota

	// StepModeInstance advances the buffer once per instance.
	StepModeInstance
)

// AttributeFormat identifies the data format of a single vertex attribute.
type AttributeFormat int

const (
	AttributeFormatFloat16x2 AttributeFormat = iota
	AttributeFormatFloat16x4
	AttributeFormatFloat32
	AttributeFormatFloat32x2
	AttributeFormatFloat32x3
	AttributeFormatFloat32x4
	AttributeFormatSint8x2
	AttributeFormatSint8x4
	AttributeFormatSint16x2
	AttributeFormatSint16x4
	AttributeFormatSint32
	AttributeFormatSint32x2
	AttributeFormatSint32x3
	AttributeFormatSint32x4
	AttributeFormatSnorm8x2
	AttributeFormatSnorm8x4
	AttributeFormatSnorm16x2
	AttributeFormatSnorm16x4
	AttributeFormatUint8x2
	AttributeFormatUint8x4
	AttributeFormatUint16x2
	AttributeFormatUint16x4
	AttributeFormatUint32
	AttributeFormatUint32x2
	AttributeFormatUint32x3
	AttributeFormatUint32x4
	AttributeFormatUnorm8x2
	AttributeFormatUnorm8x4
	AttributeFormatUnorm16x2
	AttributeFormatUnorm16x4
)

// Attribute describes one vertex attribute within an input buffer layout.
type Attribute struct {
	// Location is the shader location the attribute binds to.
	Location uint32 `toml:"location"`

	// Offset is the byte offset of the attribute within one stride.
	Offset uint64 `toml:"offset"`

	// Format is the attribute's data format.
	Format AttributeFormat `toml:"format"`
}

// InputBuffer describes one vertex-buffer binding slot of a pipeline: which named
// buffer feeds it, the step mode, the attribute list, and the stride.
type InputBuffer struct {
	// BufferName references a Buffer declared in the model.
	BufferName string `toml:"buffer"`

	// StepMode selects per-vertex or per-instance advancement.
	StepMode StepMode `toml:"step_mode"`

	// Attributes is the ordered attribute list for this slot.
	Attributes []Attribute `toml:"attributes"`

	// Stride is the byte distance between consecutive elements.
	Stride uint64 `toml:"stride"`
}

// --- Bind Groups ---

// StageFlags declares which shader stages see a binding.
type StageFlags int

const (
	// StageVertex exposes the binding to the vertex stage only.
	StageVertex StageFlags = iota

	// StageFragment exposes the binding to the fragment stage only.
	StageFragment

	// StageBoth exposes the binding to both stages.
	StageBoth
)

// BufferBinding binds a byte range of a named buffer into a bind group slot.
type BufferBinding struct {
	// Binding is the slot index within the group; must be unique across the group.
	Binding uint32 `toml:"binding"`

	// Stages declares shader-stage visibility.
	Stages StageFlags `toml:"stages"`

	// Buffer references a Buffer declared in the model.
	Buffer string `toml:"buffer"`

	// Offset is the byte offset of the bound range.
	Offset uint64 `toml:"offset"`

	// Size is the byte length of the bound range.
	Size uint64 `toml:"size"`
}

// TextureBinding binds a sub-region of a named texture into a bind group slot.
type TextureBinding struct {
	// Binding is the slot index within the group; must be unique across the group.
	Binding uint32 `toml:"binding"`

	// Stages declares shader-stage visibility.
	Stages StageFlags `toml:"stages"`

	// Texture references a Texture declared in the model.
	Texture string `toml:"texture"`

	// Offset is the top-left corner of the bound sub-region, in pixels.
	Offset common.Size2d `toml:"offset"`

	// Size is the extent of the bound sub-region, in pixels. Must be zero (the
	// whole texture): WebGPU texture views cannot subset texels, so validation
	// rejects non-zero regions. Shaders address sub-regions through coordinates.
	Size common.Size2d `toml:"size"`

	// Filterable marks the texture as sampled with a filtering sampler.
	Filterable bool `toml:"filterable"`
}

// SamplerBinding binds a named sampler into a bind group slot.
type SamplerBinding struct {
	// Binding is the slot index within the group; must be unique across the group.
	Binding uint32 `toml:"binding"`

	// Stages declares shader-stage visibility.
	Stages StageFlags `toml:"stages"`

	// Sampler references a Sampler declared in the model.
	Sampler string `toml:"sampler"`
}

// BindGroup is a named, ordered set of resource bindings. Its GPU layout is derived
// from the binding lists in order: buffers, then textures, then samplers.
type BindGroup struct {
	// Name is the unique identifier for this group within the model.
	Name string `toml:"name"`

	// BufferBindings are the buffer slots of the group.
	BufferBindings []BufferBinding `toml:"buffers"`

	// TextureBindings are the texture slots of the group.
	TextureBindings []TextureBinding `toml:"textures"`

	// SamplerBindings are the sampler slots of the group.
	SamplerBindings []SamplerBinding `toml:"samplers"`
}

// BindingCount returns the total number of slots declared in the group.
//
// Returns:
//   - int: the number of bindings across all three binding lists
func (bg BindGroup) BindingCount() int {
	return len(bg.BufferBindings) + len(bg.TextureBindings) + len(bg.SamplerBindings)
}

// --- Pipelines ---

// Depth configures depth testing for a pipeline against a named depth texture.
type Depth struct {
	// Texture references a depth-format Texture declared in the model.
	Texture string `toml:"texture"`
}

// Pipeline describes a graphics pipeline: its vertex inputs, bind groups, shader,
// index buffer, and optional depth state. Order matters: InputBuffers determine
// vertex-buffer slot indices and BindGroups determine bind-group indices.
type Pipeline struct {
	// Name is the unique identifier for this pipeline within the model.
	Name string `toml:"name"`

	// InputBuffers is the ordered vertex-buffer slot list.
	InputBuffers []InputBuffer `toml:"input_buffers"`

	// IndexBuffer references the Buffer supplying indices for indexed draws.
	IndexBuffer string `toml:"index_buffer"`

	// BindGroups is the ordered list of BindGroup names, by group index.
	BindGroups []string `toml:"bind_groups"`

	// Shader is the compiled module handle plus entry point names.
	Shader Shader `toml:"shader"`

	// Depth, when non-nil, enables depth test/write against the named texture.
	Depth *Depth `toml:"depth"`

	// Multisampled compiles the pipeline with 4 samples per pixel. It must match
	// the sample count of the attachments of every pass that runs the pipeline.
	Multisampled bool `toml:"multisampled"`
}

// SampleCount reports the sample count the pipeline renders at.
//
// Returns:
//   - uint32: 4 when multisampled, 1 otherwise
func (p Pipeline) SampleCount() uint32 {
	if p.Multisampled {
		return 4
	}
	return 1
}

// --- Passes ---

// LoadOp selects how an attachment's previous contents are treated when a pass begins.
type LoadOp int

const (
	// LoadOpClear clears the attachment to the declared clear value.
	LoadOpClear LoadOp = iota

	// LoadOpLoad preserves the attachment's existing contents.
	LoadOpLoad
)

// Attachment designates a render target slice for a pass: either a sub-region of a
// named texture or the window surface itself.
type Attachment struct {
	// Texture references a Texture declared in the model. Ignored when Window is set.
	Texture string `toml:"texture"`

	// Window targets the current swapchain surface instead of a named texture.
	Window bool `toml:"window"`

	// Offset is the top-left corner of the target slice, in pixels.
	Offset common.Size2d `toml:"offset"`

	// Size is the extent of the target slice, in pixels. A zero size means the
	// whole texture; a non-zero size renders through a matching viewport and
	// scissor, and every attachment in the pass that declares a region must
	// declare the same one.
	Size common.Size2d `toml:"size"`

	// LoadOp selects clear-or-load behavior at pass begin.
	LoadOp LoadOp `toml:"load_op"`

	// ClearColor is the clear value used when LoadOp is LoadOpClear. For depth
	// attachments only the first component is used.
	ClearColor [4]float64 `toml:"clear_color"`

	// Store controls whether results are written back at pass end.
	Store bool `toml:"store"`
}

// Pass is the unit of GPU render-pass scoping: the pipelines usable within it and the
// attachments it writes, in declaration order.
type Pass struct {
	// Name is the unique identifier for this pass within the model.
	Name string `toml:"name"`

	// Pipelines is the ordered list of Pipeline names usable within the pass.
	Pipelines []string `toml:"pipelines"`

	// Attachments is the ordered render-target list. Depth attachments are
	// recognized by their texture's format.
	Attachments []Attachment `toml:"attachments"`
}

// --- Draw Calls ---

// DrawCall is one instanced rendering invocation supplied externally per frame. When the
// pipeline declares an index buffer the call is indexed; otherwise IndexRange is treated
// as a vertex range.
type DrawCall struct {
	// PipelineName selects the pipeline; it must be declared for the pass the call
	// is submitted under.
	PipelineName string

	// IndexRange is the half-open range of indices to draw.
	IndexRange common.Range

	// BaseVertex is added to each index before vertex fetch.
	BaseVertex int32

	// InstanceRange is the half-open range of instances to draw.
	InstanceRange common.Range
}

// --- Model ---

// Model aggregates the full declarative description of one render graph. Slices keep
// declaration order; the pass graph uses that order to break scheduling ties.
type Model struct {
	// Buffers are the named buffer declarations.
	Buffers []Buffer `toml:"buffers"`

	// Textures are the named texture declarations.
	Textures []Texture `toml:"textures"`

	// Samplers are the named sampler declarations.
	Samplers []Sampler `toml:"samplers"`

	// BindGroups are the named bind group declarations.
	BindGroups []BindGroup `toml:"bind_groups"`

	// Pipelines are the named pipeline declarations.
	Pipelines []Pipeline `toml:"pipelines"`

	// Passes are the named pass declarations, in declaration order.
	Passes []Pass `toml:"passes"`

	// Dependencies maps a pass name to the pass names it must execute after.
	Dependencies map[string][]string `toml:"dependencies"`
}

// BufferByName looks up a buffer declaration by name.
//
// Parameters:
//   - name: the buffer name to look up
//
// Returns:
//   - Buffer: the declaration, zero value if absent
//   - bool: true if the buffer is declared
func (m *Model) BufferByName(name string) (Buffer, bool) {
	for _, b := range m.Buffers {
		if b.Name == name {
			return b, true
		}
	}
	return Buffer{}, false
}

// TextureByName looks up a texture declaration by name.
//
// Parameters:
//   - name: the texture name to look up
//
// Returns:
//   - Texture: the declaration, zero value if absent
//   - bool: true if the texture is declared
func (m *Model) TextureByName(name string) (Texture, bool) {
	for _, t := range m.Textures {
		if t.Name == name {
			return t, true
		}
	}
	return Texture{}, false
}

// SamplerByName looks up a sampler declaration by name.
//
// Parameters:
//   - name: the sampler name to look up
//
// Returns:
//   - Sampler: the declaration, zero value if absent
//   - bool: true if the sampler is declared
func (m *Model) SamplerByName(name string) (Sampler, bool) {
	for _, s := range m.Samplers {
		if s.Name == name {
			return s, true
		}
	}
	return Sampler{}, false
}

// BindGroupByName looks up a bind group declaration by name.
//
// Parameters:
//   - name: the bind group name to look up
//
// Returns:
//   - BindGroup: the declaration, zero value if absent
//   - bool: true if the group is declared
func (m *Model) BindGroupByName(name string) (BindGroup, bool) {
	for _, bg := range m.BindGroups {
		if bg.Name == name {
			return bg, true
		}
	}
	return BindGroup{}, false
}

// PipelineByName looks up a pipeline declaration by name.
//
// Parameters:
//   - name: the pipeline name to look up
//
// Returns:
//   - Pipeline: the declaration, zero value if absent
//   - bool: true if the pipeline is declared
func (m *Model) PipelineByName(name string) (Pipeline, bool) {
	for _, p := range m.Pipelines {
		if p.Name == name {
			return p, true
		}
	}
	return Pipeline{}, false
}

// PassByName looks up a pass declaration by name.
//
// Parameters:
//   - name: the pass name to look up
//
// Returns:
//   - Pass: the declaration, zero value if absent
//   - bool: true if the pass is declared
func (m *Model) PassByName(name string) (Pass, bool) {
	for _, p := range m.Passes {
		if p.Name == name {
			return p, true
		}
	}
	return Pass{}, false
}

// PassForPipeline returns the pass that lists the given pipeline. Each pipeline may be
// listed by at most one pass; Validate enforces that.
//
// Parameters:
//   - pipeline: the pipeline name to search for
//
// Returns:
//   - Pass: the pass listing the pipeline, zero value if none does
//   - bool: true if a pass lists the pipeline
func (m *Model) PassForPipeline(pipeline string) (Pass, bool) {
	for _, p := range m.Passes {
		for _, name := range p.Pipelines {
			if name == pipeline {
				return p, true
			}
		}
	}
	return Pass{}, false
}
