// package pipeline compiles declarative pipeline descriptions into GPU render
// pipelines: vertex layouts from input buffers, bind-group layouts from the resolver,
// color targets from the owning pass's attachments, and depth state from the
// declaration.
package pipeline

import "github.com/cogentcore/webgpu/wgpu"

// Pipeline is a compiled render pipeline plus the frame-time facts the renderer needs
// to drive it.
type Pipeline interface {
	// Key returns the declared pipeline name.
	//
	// Returns:
	//   - string: the pipeline name
	Key() string

	// Handle returns the GPU pipeline handle.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the pipeline handle
	Handle() *wgpu.RenderPipeline

	// InputBuffers returns the named buffers feeding each vertex slot, in slot order.
	//
	// Returns:
	//   - []string: the buffer names by slot
	InputBuffers() []string

	// IndexBuffer returns the name of the buffer supplying indices, empty when the
	// pipeline declares none.
	//
	// Returns:
	//   - string: the index buffer name
	IndexBuffer() string

	// BindGroups returns the declared bind group names, by group index.
	//
	// Returns:
	//   - []string: the bind group names
	BindGroups() []string

	// HasDepth reports whether the pipeline declares depth test/write state.
	//
	// Returns:
	//   - bool: true when depth is enabled
	HasDepth() bool
}

type pipeline struct {
	key          string
	handle       *wgpu.RenderPipeline
	inputBuffers []string
	indexBuffer  string
	bindGroups   []string
	hasDepth     bool
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a compiled-pipeline record from a key and builder options.
//
// Parameters:
//   - key: the declared pipeline name
//   - opts: builder options for the handle and frame-time facts
//
// Returns:
//   - Pipeline: the constructed record
func NewPipeline(key string, opts ...PipelineBuilderOption) Pipeline {
	builder := defaultPipelineBuilder()
	for _, opt := range opts {
		opt(builder)
	}
	return &pipeline{
		key:          key,
		handle:       builder.handle,
		inputBuffers: builder.inputBuffers,
		indexBuffer:  builder.indexBuffer,
		bindGroups:   builder.bindGroups,
		hasDepth:     builder.hasDepth,
	}
}

func (p *pipeline) Key() string {
	return p.key
}

func (p *pipeline) Handle() *wgpu.RenderPipeline {
	return p.handle
}

func (p *pipeline) InputBuffers() []string {
	return p.inputBuffers
}

func (p *pipeline) IndexBuffer() string {
	return p.indexBuffer
}

func (p *pipeline) BindGroups() []string {
	return p.bindGroups
}

func (p *pipeline) HasDepth() bool {
	return p.hasDepth
}
