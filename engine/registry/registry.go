// package registry owns the named GPU resource arena: buffers, textures, and samplers
// declared by a render-graph model. All GPU calls go through the narrow Device
// interface so the arena bookkeeping is independent of the backing implementation.
package registry

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/graph"
)

// Device is the subset of GPU device operations the registry needs. The renderer's
// backend provides the real implementation.
type Device interface {
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
}

// Registry is the named arena of GPU resources for one render graph.
type Registry interface {
	// InitFromModel creates every resource the model declares.
	//
	// Parameters:
	//   - m: the validated model
	//
	// Returns:
	//   - error: a duplicate-name or allocation error
	InitFromModel(m *graph.Model) error

	// CreateBuffer allocates and registers a buffer under its declared name.
	//
	// Parameters:
	//   - desc: the buffer declaration
	//
	// Returns:
	//   - error: a duplicate-name or allocation error
	CreateBuffer(desc graph.Buffer) error

	// CreateTexture allocates and registers a texture under its declared name.
	//
	// Parameters:
	//   - desc: the texture declaration
	//
	// Returns:
	//   - error: a duplicate-name or allocation error
	CreateTexture(desc graph.Texture) error

	// CreateSampler creates and registers a sampler under its declared name.
	//
	// Parameters:
	//   - desc: the sampler declaration
	//
	// Returns:
	//   - error: a duplicate-name or creation error
	CreateSampler(desc graph.Sampler) error

	// WriteBuffer uploads bytes into a named buffer. The write must fit entirely
	// within the buffer's declared size.
	//
	// Parameters:
	//   - name: the buffer name
	//   - offset: the destination byte offset
	//   - data: the bytes to upload
	//
	// Returns:
	//   - error: an unknown-resource, out-of-bounds, or upload error
	WriteBuffer(name string, offset uint64, data []byte) error

	// ResizeTexture recreates a named texture at a new extent. Views handed out
	// previously become stale; Generation reflects the change.
	//
	// Parameters:
	//   - name: the texture name
	//   - size: the new extent in pixels
	//
	// Returns:
	//   - error: an unknown-resource or allocation error
	ResizeTexture(name string, size common.Size2d) error

	// ResizeWindowTextures resizes every texture declared as window-sized.
	//
	// Parameters:
	//   - size: the new surface extent in pixels
	//
	// Returns:
	//   - error: an allocation error
	ResizeWindowTextures(size common.Size2d) error

	// Buffer returns a named buffer's handle and declaration.
	//
	// Parameters:
	//   - name: the buffer name
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer handle
	//   - graph.Buffer: the declaration
	//   - error: an unknown-resource error
	Buffer(name string) (*wgpu.Buffer, graph.Buffer, error)

	// Texture returns a named texture's handles and declaration.
	//
	// Parameters:
	//   - name: the texture name
	//
	// Returns:
	//   - *wgpu.Texture: the texture handle
	//   - *wgpu.TextureView: the default view
	//   - graph.Texture: the declaration
	//   - error: an unknown-resource error
	Texture(name string) (*wgpu.Texture, *wgpu.TextureView, graph.Texture, error)

	// Sampler returns a named sampler's handle and declaration.
	//
	// Parameters:
	//   - name: the sampler name
	//
	// Returns:
	//   - *wgpu.Sampler: the sampler handle
	//   - graph.Sampler: the declaration
	//   - error: an unknown-resource error
	Sampler(name string) (*wgpu.Sampler, graph.Sampler, error)

	// Generation returns a counter bumped on every texture recreation, letting
	// callers detect stale views.
	//
	// Returns:
	//   - uint64: the current generation
	Generation() uint64

	// Release frees every resource the registry holds.
	Release()
}

type bufferEntry struct {
	desc   graph.Buffer
	handle *wgpu.Buffer
}

type textureEntry struct {
	desc   graph.Texture
	handle *wgpu.Texture
	view   *wgpu.TextureView
}

type samplerEntry struct {
	desc   graph.Sampler
	handle *wgpu.Sampler
}

type registry struct {
	mu         *sync.Mutex
	device     Device
	buffers    map[string]*bufferEntry
	textures   map[string]*textureEntry
	samplers   map[string]*samplerEntry
	generation uint64
}

var _ Registry = &registry{}

// NewRegistry creates an empty resource registry over the given device.
//
// Parameters:
//   - device: the GPU device operations to allocate through
//
// Returns:
//   - Registry: the constructed registry
func NewRegistry(device Device) Registry {
	return &registry{
		mu:       &sync.Mutex{},
		device:   device,
		buffers:  make(map[string]*bufferEntry),
		textures: make(map[string]*textureEntry),
		samplers: make(map[string]*samplerEntry),
	}
}

func (r *registry) InitFromModel(m *graph.Model) error {
	for _, b := range m.Buffers {
		if err := r.CreateBuffer(b); err != nil {
			return err
		}
	}
	for _, t := range m.Textures {
		if err := r.CreateTexture(t); err != nil {
			return err
		}
	}
	for _, s := range m.Samplers {
		if err := r.CreateSampler(s); err != nil {
			return err
		}
	}
	return nil
}

func (r *registry) CreateBuffer(desc graph.Buffer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.buffers[desc.Name]; ok {
		return fmt.Errorf("buffer %q: %w", desc.Name, graph.ErrDuplicateName)
	}
	handle, err := r.device.CreateBuffer(desc.Name, desc.Size, BufferUsage(desc.BufferType))
	if err != nil {
		return fmt.Errorf("failed to create buffer %q: %w", desc.Name, err)
	}
	r.buffers[desc.Name] = &bufferEntry{desc: desc, handle: handle}
	return nil
}

func (r *registry) CreateTexture(desc graph.Texture) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.textures[desc.Name]; ok {
		return fmt.Errorf("texture %q: %w", desc.Name, graph.ErrDuplicateName)
	}
	handle, view, err := r.device.CreateTexture(desc.Name, desc.Size2d, TextureFormat(desc.Format), TextureUsage(desc.Format), desc.SampleCount())
	if err != nil {
		return fmt.Errorf("failed to create texture %q: %w", desc.Name, err)
	}
	r.textures[desc.Name] = &textureEntry{desc: desc, handle: handle, view: view}
	return nil
}

func (r *registry) CreateSampler(desc graph.Sampler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.samplers[desc.Name]; ok {
		return fmt.Errorf("sampler %q: %w", desc.Name, graph.ErrDuplicateName)
	}
	handle, err := r.device.CreateSampler(desc.Name, desc.Kind)
	if err != nil {
		return fmt.Errorf("failed to create sampler %q: %w", desc.Name, err)
	}
	r.samplers[desc.Name] = &samplerEntry{desc: desc, handle: handle}
	return nil
}

func (r *registry) WriteBuffer(name string, offset uint64, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.buffers[name]
	if !ok {
		return fmt.Errorf("buffer %q: %w", name, graph.ErrUnknownResource)
	}
	if offset+uint64(len(data)) > entry.desc.Size {
		return fmt.Errorf("write of %d bytes at offset %d exceeds buffer %q size %d: %w",
			len(data), offset, name, entry.desc.Size, graph.ErrOutOfBounds)
	}
	if err := r.device.WriteBuffer(entry.handle, offset, data); err != nil {
		return fmt.Errorf("failed to write buffer %q: %w", name, err)
	}
	return nil
}

func (r *registry) ResizeTexture(name string, size common.Size2d) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resizeTextureLocked(name, size)
}

func (r *registry) resizeTextureLocked(name string, size common.Size2d) error {
	entry, ok := r.textures[name]
	if !ok {
		return fmt.Errorf("texture %q: %w", name, graph.ErrUnknownResource)
	}
	handle, view, err := r.device.CreateTexture(name, size, TextureFormat(entry.desc.Format), TextureUsage(entry.desc.Format), entry.desc.SampleCount())
	if err != nil {
		return fmt.Errorf("failed to resize texture %q: %w", name, err)
	}
	r.device.ReleaseTexture(entry.handle, entry.view)
	entry.handle = handle
	entry.view = view
	entry.desc.Size2d = size
	r.generation++
	return nil
}

func (r *registry) ResizeWindowTextures(size common.Size2d) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, entry := range r.textures {
		if !entry.desc.WindowSized {
			continue
		}
		if err := r.resizeTextureLocked(name, size); err != nil {
			return err
		}
	}
	return nil
}

func (r *registry) Buffer(name string) (*wgpu.Buffer, graph.Buffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.buffers[name]
	if !ok {
		return nil, graph.Buffer{}, fmt.Errorf("buffer %q: %w", name, graph.ErrUnknownResource)
	}
	return entry.handle, entry.desc, nil
}

func (r *registry) Texture(name string) (*wgpu.Texture, *wgpu.TextureView, graph.Texture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.textures[name]
	if !ok {
		return nil, nil, graph.Texture{}, fmt.Errorf("texture %q: %w", name, graph.ErrUnknownResource)
	}
	return entry.handle, entry.view, entry.desc, nil
}

func (r *registry) Sampler(name string) (*wgpu.Sampler, graph.Sampler, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.samplers[name]
	if !ok {
		return nil, graph.Sampler{}, fmt.Errorf("sampler %q: %w", name, graph.ErrUnknownResource)
	}
	return entry.handle, entry.desc, nil
}

func (r *registry) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generation
}

func (r *registry) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, entry := range r.buffers {
		r.device.ReleaseBuffer(entry.handle)
		delete(r.buffers, name)
	}
	for name, entry := range r.textures {
		r.device.ReleaseTexture(entry.handle, entry.view)
		delete(r.textures, name)
	}
	for name, entry := range r.samplers {
		r.device.ReleaseSampler(entry.handle)
		delete(r.samplers, name)
	}
}
