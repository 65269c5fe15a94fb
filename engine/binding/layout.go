// package binding turns declarative input-buffer and bind-group descriptions into GPU
// layout descriptors, and realizes concrete bind groups against the resource registry.
// Layout derivation is pure so the mapping can be exercised without a device.
package binding

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/prism-go/engine/graph"
)

// VertexFormat maps a declared attribute format to its GPU vertex format.
//
// Parameters:
//   - f: the declared attribute format
//
// Returns:
//   - wgpu.VertexFormat: the GPU vertex format
func VertexFormat(f graph.AttributeFormat) wgpu.VertexFormat {
	switch f {
	case graph.AttributeFormatFloat16x2:
		return wgpu.VertexFormatFloat16x2
	case graph.AttributeFormatFloat16x4:
		return wgpu.VertexFormatFloat16x4
	case graph.AttributeFormatFloat32:
		return wgpu.VertexFormatFloat32
	case graph.AttributeFormatFloat32x2:
		return wgpu.VertexFormatFloat32x2
	case graph.AttributeFormatFloat32x3:
		return wgpu.VertexFormatFloat32x3
	case graph.AttributeFormatFloat32x4:
		return wgpu.VertexFormatFloat32x4
	case graph.AttributeFormatSint8x2:
		return wgpu.VertexFormatSint8x2
	case graph.AttributeFormatSint8x4:
		return wgpu.VertexFormatSint8x4
	case graph.AttributeFormatSint16x2:
		return wgpu.VertexFormatSint16x2
	case graph.AttributeFormatSint16x4:
		return wgpu.VertexFormatSint16x4
	case graph.AttributeFormatSint32:
		return wgpu.VertexFormatSint32
	case graph.AttributeFormatSint32x2:
		return wgpu.VertexFormatSint32x2
	case graph.AttributeFormatSint32x3:
		return wgpu.VertexFormatSint32x3
	case graph.AttributeFormatSint32x4:
		return wgpu.VertexFormatSint32x4
	case graph.AttributeFormatSnorm8x2:
		return wgpu.VertexFormatSnorm8x2
	case graph.AttributeFormatSnorm8x4:
		return wgpu.VertexFormatSnorm8x4
	case graph.AttributeFormatSnorm16x2:
		return wgpu.VertexFormatSnorm16x2
	case graph.AttributeFormatSnorm16x4:
		return wgpu.VertexFormatSnorm16x4
	case graph.AttributeFormatUint8x2:
		return wgpu.VertexFormatUint8x2
	case graph.AttributeFormatUint8x4:
		return wgpu.VertexFormatUint8x4
	case graph.AttributeFormatUint16x2:
		return wgpu.VertexFormatUint16x2
	case graph.AttributeFormatUint16x4:
		return wgpu.VertexFormatUint16x4
	case graph.AttributeFormatUint32:
		return wgpu.VertexFormatUint32
	case graph.AttributeFormatUint32x2:
		return wgpu.VertexFormatUint32x2
	case graph.AttributeFormatUint32x3:
		return wgpu.VertexFormatUint32x3
	case graph.AttributeFormatUint32x4:
		return wgpu.VertexFormatUint32x4
	case graph.AttributeFormatUnorm8x2:
		return wgpu.VertexFormatUnorm8x2
	case graph.AttributeFormatUnorm8x4:
		return wgpu.VertexFormatUnorm8x4
	case graph.AttributeFormatUnorm16x2:
		return wgpu.VertexFormatUnorm16x2
	case graph.AttributeFormatUnorm16x4:
		return wgpu.VertexFormatUnorm16x4
	default:
		return wgpu.VertexFormatFloat32
	}
}

// ShaderStages maps declared stage flags to GPU shader-stage visibility.
//
// Parameters:
//   - s: the declared stage flags
//
// Returns:
//   - wgpu.ShaderStage: the visibility flags
func ShaderStages(s graph.StageFlags) wgpu.ShaderStage {
	switch s {
	case graph.StageVertex:
		return wgpu.ShaderStageVertex
	case graph.StageFragment:
		return wgpu.ShaderStageFragment
	default:
		return wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
	}
}

// InputLayout derives the GPU vertex-buffer layout for one declared input slot.
//
// Parameters:
//   - in: the declared input buffer
//
// Returns:
//   - wgpu.VertexBufferLayout: the layout for the slot
func InputLayout(in graph.InputBuffer) wgpu.VertexBufferLayout {
	attributes := make([]wgpu.VertexAttribute, 0, len(in.Attributes))
	for _, attr := range in.Attributes {
		attributes = append(attributes, wgpu.VertexAttribute{
			Format:         VertexFormat(attr.Format),
			Offset:         attr.Offset,
			ShaderLocation: attr.Location,
		})
	}
	stepMode := wgpu.VertexStepModeVertex
	if in.StepMode == graph.StepModeInstance {
		stepMode = wgpu.VertexStepModeInstance
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: in.Stride,
		StepMode:    stepMode,
		Attributes:  attributes,
	}
}

// LayoutEntries derives the GPU bind-group layout entries for a declared group.
// Entries are emitted in a fixed order: buffer bindings, texture bindings, then
// sampler bindings, each in declaration order, so repeated derivation is identical.
//
// Parameters:
//   - m: the model the group's references resolve against
//   - bg: the declared bind group
//
// Returns:
//   - []wgpu.BindGroupLayoutEntry: the layout entries
//   - error: an unresolved-reference or incompatible-usage error
func LayoutEntries(m *graph.Model, bg graph.BindGroup) ([]wgpu.BindGroupLayoutEntry, error) {
	entries := make([]wgpu.BindGroupLayoutEntry, 0, bg.BindingCount())
	for _, b := range bg.BufferBindings {
		buf, ok := m.BufferByName(b.Buffer)
		if !ok {
			return nil, fmt.Errorf("bind group %q buffer %q: %w", bg.Name, b.Buffer, graph.ErrUnresolvedReference)
		}
		bindingType := wgpu.BufferBindingTypeUniform
		if buf.BufferType == graph.BufferTypeStorage {
			bindingType = wgpu.BufferBindingTypeReadOnlyStorage
		}
		entries = append(entries, wgpu.BindGroupLayoutEntry{
			Binding:    b.Binding,
			Visibility: ShaderStages(b.Stages),
			Buffer: wgpu.BufferBindingLayout{
				Type:           bindingType,
				MinBindingSize: b.Size,
			},
		})
	}
	for _, t := range bg.TextureBindings {
		tex, ok := m.TextureByName(t.Texture)
		if !ok {
			return nil, fmt.Errorf("bind group %q texture %q: %w", bg.Name, t.Texture, graph.ErrUnresolvedReference)
		}
		sampleType := wgpu.TextureSampleTypeUnfilterableFloat
		switch {
		case tex.Format.IsDepth():
			sampleType = wgpu.TextureSampleTypeDepth
		case t.Filterable:
			sampleType = wgpu.TextureSampleTypeFloat
		}
		entries = append(entries, wgpu.BindGroupLayoutEntry{
			Binding:    t.Binding,
			Visibility: ShaderStages(t.Stages),
			Texture: wgpu.TextureBindingLayout{
				SampleType:    sampleType,
				ViewDimension: wgpu.TextureViewDimension2D,
				Multisampled:  false,
			},
		})
	}
	for _, s := range bg.SamplerBindings {
		decl, ok := m.SamplerByName(s.Sampler)
		if !ok {
			return nil, fmt.Errorf("bind group %q sampler %q: %w", bg.Name, s.Sampler, graph.ErrUnresolvedReference)
		}
		samplerType := wgpu.SamplerBindingTypeFiltering
		switch decl.Kind {
		case graph.SamplerKindNonFilter:
			samplerType = wgpu.SamplerBindingTypeNonFiltering
		case graph.SamplerKindComparison:
			samplerType = wgpu.SamplerBindingTypeComparison
		}
		entries = append(entries, wgpu.BindGroupLayoutEntry{
			Binding:    s.Binding,
			Visibility: ShaderStages(s.Stages),
			Sampler: wgpu.SamplerBindingLayout{
				Type: samplerType,
			},
		})
	}
	return entries, nil
}
