package binding

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/prism-go/engine/graph"
	"github.com/Carmen-Shannon/prism-go/engine/registry"
)

// Device is the subset of GPU device operations the resolver needs to realize bind
// groups. The renderer's backend provides the real implementation.
type Device interface {
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
}

// Group is a realized bind group: the GPU handles plus the registry generation the
// group was built against, used to detect staleness after texture resizes.
type Group struct {
	// Name is the declared bind group name.
	Name string

	// Layout is the GPU layout handle.
	Layout *wgpu.BindGroupLayout

	// Handle is the GPU bind group handle.
	Handle *wgpu.BindGroup

	// Generation is the registry generation at realization time.
	Generation uint64
}

// Resolver realizes declared bind groups into GPU objects and keeps them current
// across resource recreation.
type Resolver interface {
	// Realize builds or rebuilds every bind group the model declares.
	//
	// Parameters:
	//   - m: the validated model
	//
	// Returns:
	//   - error: a derivation or creation error
	Realize(m *graph.Model) error

	// Group returns a realized bind group by name.
	//
	// Parameters:
	//   - name: the declared group name
	//
	// Returns:
	//   - *Group: the realized group
	//   - error: an unresolved-reference error when the group was never realized
	Group(name string) (*Group, error)

	// Refresh rebuilds any group whose registry generation is stale.
	//
	// Parameters:
	//   - m: the validated model
	//
	// Returns:
	//   - error: a derivation or creation error
	Refresh(m *graph.Model) error

	// Release frees every realized group.
	Release()
}

type resolver struct {
	mu       *sync.Mutex
	device   Device
	registry registry.Registry
	groups   map[string]*Group
}

var _ Resolver = &resolver{}

// NewResolver creates a bind-group resolver over the given device and registry.
//
// Parameters:
//   - device: the GPU device operations to create groups through
//   - reg: the resource registry bindings resolve against
//
// Returns:
//   - Resolver: the constructed resolver
func NewResolver(device Device, reg registry.Registry) Resolver {
	return &resolver{
		mu:       &sync.Mutex{},
		device:   device,
		registry: reg,
		groups:   make(map[string]*Group),
	}
}

func (r *resolver) Realize(m *graph.Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, bg := range m.BindGroups {
		if err := r.realizeLocked(m, bg); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) realizeLocked(m *graph.Model, bg graph.BindGroup) error {
	layoutEntries, err := LayoutEntries(m, bg)
	if err != nil {
		return err
	}
	groupEntries, err := r.groupEntries(bg)
	if err != nil {
		return err
	}
	generation := r.registry.Generation()

	layout, err := r.device.CreateBindGroupLayout(bg.Name, layoutEntries)
	if err != nil {
		return fmt.Errorf("failed to create layout for bind group %q: %w", bg.Name, err)
	}
	handle, err := r.device.CreateBindGroup(bg.Name, layout, groupEntries)
	if err != nil {
		return fmt.Errorf("failed to create bind group %q: %w", bg.Name, err)
	}

	if prev, ok := r.groups[bg.Name]; ok {
		r.device.ReleaseBindGroup(prev.Layout, prev.Handle)
	}
	r.groups[bg.Name] = &Group{
		Name:       bg.Name,
		Layout:     layout,
		Handle:     handle,
		Generation: generation,
	}
	return nil
}

// groupEntries resolves the group's named references to live handles, in the same
// fixed order LayoutEntries uses.
func (r *resolver) groupEntries(bg graph.BindGroup) ([]wgpu.BindGroupEntry, error) {
	entries := make([]wgpu.BindGroupEntry, 0, bg.BindingCount())
	for _, b := range bg.BufferBindings {
		handle, _, err := r.registry.Buffer(b.Buffer)
		if err != nil {
			return nil, fmt.Errorf("bind group %q: %w", bg.Name, err)
		}
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: b.Binding,
			Buffer:  handle,
			Offset:  b.Offset,
			Size:    b.Size,
		})
	}
	for _, t := range bg.TextureBindings {
		_, view, _, err := r.registry.Texture(t.Texture)
		if err != nil {
			return nil, fmt.Errorf("bind group %q: %w", bg.Name, err)
		}
		entries = append(entries, wgpu.BindGroupEntry{
			Binding:     t.Binding,
			TextureView: view,
		})
	}
	for _, s := range bg.SamplerBindings {
		handle, _, err := r.registry.Sampler(s.Sampler)
		if err != nil {
			return nil, fmt.Errorf("bind group %q: %w", bg.Name, err)
		}
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: s.Binding,
			Sampler: handle,
		})
	}
	return entries, nil
}

func (r *resolver) Group(name string) (*Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	group, ok := r.groups[name]
	if !ok {
		return nil, fmt.Errorf("bind group %q not realized: %w", name, graph.ErrUnresolvedReference)
	}
	return group, nil
}

func (r *resolver) Refresh(m *graph.Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.registry.Generation()
	for _, bg := range m.BindGroups {
		group, ok := r.groups[bg.Name]
		if ok && group.Generation == current {
			continue
		}
		if err := r.realizeLocked(m, bg); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, group := range r.groups {
		r.device.ReleaseBindGroup(group.Layout, group.Handle)
		delete(r.groups, name)
	}
}
