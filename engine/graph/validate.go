package graph

import (
	"fmt"
)

// Validate checks the model's internal consistency: unique names per kind, resolvable
// references, usage compatibility, binding ranges within resource extents, unique slot
// indices per bind group, and each pipeline owned by at most one pass. It does not
// touch the GPU and does not inspect shader sources.
//
// Returns:
//   - error: nil when the model is consistent, otherwise the first violation found
func (m *Model) Validate() error {
	if err := m.validateNames(); err != nil {
		return err
	}
	for _, bg := range m.BindGroups {
		if err := m.validateBindGroup(bg); err != nil {
			return err
		}
	}
	for _, p := range m.Pipelines {
		if err := m.validatePipeline(p); err != nil {
			return err
		}
	}
	for _, p := range m.Passes {
		if err := m.validatePass(p); err != nil {
			return err
		}
	}
	if err := m.validateOwnership(); err != nil {
		return err
	}
	return m.validateDependencies()
}

func (m *Model) validateNames() error {
	seen := map[string]string{}
	check := func(kind, name string) error {
		key := kind + ":" + name
		if _, ok := seen[key]; ok {
			return fmt.Errorf("%s %q: %w", kind, name, ErrDuplicateName)
		}
		seen[key] = kind
		return nil
	}
	for _, b := range m.Buffers {
		if err := check("buffer", b.Name); err != nil {
			return err
		}
	}
	for _, t := range m.Textures {
		if err := check("texture", t.Name); err != nil {
			return err
		}
	}
	for _, s := range m.Samplers {
		if err := check("sampler", s.Name); err != nil {
			return err
		}
	}
	for _, bg := range m.BindGroups {
		if err := check("bind group", bg.Name); err != nil {
			return err
		}
	}
	for _, p := range m.Pipelines {
		if err := check("pipeline", p.Name); err != nil {
			return err
		}
	}
	for _, p := range m.Passes {
		if err := check("pass", p.Name); err != nil {
			return err
		}
	}
	return nil
}

func (m *Model) validateBindGroup(bg BindGroup) error {
	slots := map[uint32]bool{}
	slot := func(binding uint32) error {
		if slots[binding] {
			return fmt.Errorf("bind group %q binding %d: %w", bg.Name, binding, ErrDuplicateName)
		}
		slots[binding] = true
		return nil
	}
	for _, b := range bg.BufferBindings {
		if err := slot(b.Binding); err != nil {
			return err
		}
		buf, ok := m.BufferByName(b.Buffer)
		if !ok {
			return fmt.Errorf("bind group %q references buffer %q: %w", bg.Name, b.Buffer, ErrUnresolvedReference)
		}
		if buf.BufferType != BufferTypeUniform && buf.BufferType != BufferTypeStorage {
			return fmt.Errorf("bind group %q binds buffer %q of non-bindable type: %w", bg.Name, b.Buffer, ErrIncompatibleUsage)
		}
		if b.Offset+b.Size > buf.Size {
			return fmt.Errorf("bind group %q buffer %q range [%d, %d) exceeds size %d: %w",
				bg.Name, b.Buffer, b.Offset, b.Offset+b.Size, buf.Size, ErrOutOfBounds)
		}
	}
	for _, t := range bg.TextureBindings {
		if err := slot(t.Binding); err != nil {
			return err
		}
		tex, ok := m.TextureByName(t.Texture)
		if !ok {
			return fmt.Errorf("bind group %q references texture %q: %w", bg.Name, t.Texture, ErrUnresolvedReference)
		}
		if tex.Multisampled {
			return fmt.Errorf("bind group %q binds multisampled texture %q, which can only be rendered into: %w",
				bg.Name, t.Texture, ErrIncompatibleUsage)
		}
		if !t.Size.IsZero() {
			if t.Offset.X+t.Size.X > tex.Size2d.X || t.Offset.Y+t.Size.Y > tex.Size2d.Y {
				return fmt.Errorf("bind group %q texture %q region exceeds extent %dx%d: %w",
					bg.Name, t.Texture, tex.Size2d.X, tex.Size2d.Y, ErrOutOfBounds)
			}
			// WebGPU texture views subset mip levels and array layers only; a
			// texel sub-region cannot be bound for sampling.
			return fmt.Errorf("bind group %q texture %q declares a sampled sub-region, which the backend cannot bind: %w",
				bg.Name, t.Texture, ErrIncompatibleUsage)
		}
	}
	for _, s := range bg.SamplerBindings {
		if err := slot(s.Binding); err != nil {
			return err
		}
		if _, ok := m.SamplerByName(s.Sampler); !ok {
			return fmt.Errorf("bind group %q references sampler %q: %w", bg.Name, s.Sampler, ErrUnresolvedReference)
		}
	}
	return nil
}

func (m *Model) validatePipeline(p Pipeline) error {
	for slot, in := range p.InputBuffers {
		buf, ok := m.BufferByName(in.BufferName)
		if !ok {
			return fmt.Errorf("pipeline %q input slot %d references buffer %q: %w", p.Name, slot, in.BufferName, ErrUnresolvedReference)
		}
		if buf.BufferType != BufferTypeVertex {
			return fmt.Errorf("pipeline %q input slot %d binds non-vertex buffer %q: %w", p.Name, slot, in.BufferName, ErrIncompatibleUsage)
		}
		for _, attr := range in.Attributes {
			if attr.Offset >= in.Stride && in.Stride > 0 {
				return fmt.Errorf("pipeline %q input slot %d attribute at location %d offset %d exceeds stride %d: %w",
					p.Name, slot, attr.Location, attr.Offset, in.Stride, ErrOutOfBounds)
			}
		}
	}
	if p.IndexBuffer != "" {
		buf, ok := m.BufferByName(p.IndexBuffer)
		if !ok {
			return fmt.Errorf("pipeline %q references index buffer %q: %w", p.Name, p.IndexBuffer, ErrUnresolvedReference)
		}
		if buf.BufferType != BufferTypeIndex {
			return fmt.Errorf("pipeline %q binds non-index buffer %q as index buffer: %w", p.Name, p.IndexBuffer, ErrIncompatibleUsage)
		}
	}
	for _, name := range p.BindGroups {
		if _, ok := m.BindGroupByName(name); !ok {
			return fmt.Errorf("pipeline %q references bind group %q: %w", p.Name, name, ErrUnresolvedReference)
		}
	}
	if p.Depth != nil {
		tex, ok := m.TextureByName(p.Depth.Texture)
		if !ok {
			return fmt.Errorf("pipeline %q references depth texture %q: %w", p.Name, p.Depth.Texture, ErrUnresolvedReference)
		}
		if !tex.Format.IsDepth() {
			return fmt.Errorf("pipeline %q uses non-depth texture %q for depth: %w", p.Name, p.Depth.Texture, ErrIncompatibleUsage)
		}
	}
	return nil
}

func (m *Model) validatePass(p Pass) error {
	// Every attachment and pipeline in a pass must render at the same sample
	// count. The window surface is single-sampled.
	sampleCount := uint32(0)
	countOf := func(what string, i int, count uint32) error {
		if sampleCount == 0 {
			sampleCount = count
			return nil
		}
		if count != sampleCount {
			return fmt.Errorf("pass %q %s %d sample count %d does not match the pass's %d: %w",
				p.Name, what, i, count, sampleCount, ErrIncompatibleUsage)
		}
		return nil
	}
	for i, name := range p.Pipelines {
		pl, ok := m.PipelineByName(name)
		if !ok {
			return fmt.Errorf("pass %q references pipeline %q: %w", p.Name, name, ErrUnresolvedReference)
		}
		if err := countOf("pipeline", i, pl.SampleCount()); err != nil {
			return err
		}
	}
	depthSeen := false
	regionSeen := false
	var region Attachment
	for i, att := range p.Attachments {
		// The region renders as the pass's viewport and scissor, so every
		// attachment that declares one must declare the same one.
		if !att.Size.IsZero() {
			if regionSeen && (att.Offset != region.Offset || att.Size != region.Size) {
				return fmt.Errorf("pass %q attachment %d declares a conflicting sub-region: %w",
					p.Name, i, ErrIncompatibleUsage)
			}
			region = att
			regionSeen = true
		}
		if att.Window {
			if err := countOf("attachment", i, 1); err != nil {
				return err
			}
			continue
		}
		tex, ok := m.TextureByName(att.Texture)
		if !ok {
			return fmt.Errorf("pass %q attachment %d references texture %q: %w", p.Name, i, att.Texture, ErrUnresolvedReference)
		}
		if err := countOf("attachment", i, tex.SampleCount()); err != nil {
			return err
		}
		if tex.Format.IsDepth() {
			if depthSeen {
				return fmt.Errorf("pass %q declares more than one depth attachment: %w", p.Name, ErrIncompatibleUsage)
			}
			depthSeen = true
		}
		if !att.Size.IsZero() {
			if att.Offset.X+att.Size.X > tex.Size2d.X || att.Offset.Y+att.Size.Y > tex.Size2d.Y {
				return fmt.Errorf("pass %q attachment %d region exceeds extent %dx%d: %w",
					p.Name, i, tex.Size2d.X, tex.Size2d.Y, ErrOutOfBounds)
			}
		}
	}
	return nil
}

func (m *Model) validateOwnership() error {
	owner := map[string]string{}
	for _, pass := range m.Passes {
		for _, name := range pass.Pipelines {
			if prev, ok := owner[name]; ok {
				return fmt.Errorf("pipeline %q listed by passes %q and %q: %w", name, prev, pass.Name, ErrDuplicateName)
			}
			owner[name] = pass.Name
		}
	}
	return nil
}

func (m *Model) validateDependencies() error {
	for pass, deps := range m.Dependencies {
		if _, ok := m.PassByName(pass); !ok {
			return fmt.Errorf("dependency entry for undeclared pass %q: %w", pass, ErrUnresolvedReference)
		}
		for _, dep := range deps {
			if _, ok := m.PassByName(dep); !ok {
				return fmt.Errorf("pass %q depends on undeclared pass %q: %w", pass, dep, ErrUnresolvedReference)
			}
		}
	}
	return nil
}
