package pipeline

import "github.com/cogentcore/webgpu/wgpu"

// PipelineBuilderOption configures a compiled-pipeline record during construction.
type PipelineBuilderOption func(*pipelineBuilder)

type pipelineBuilder struct {
	handle       *wgpu.RenderPipeline
	inputBuffers []string
	indexBuffer  string
	bindGroups   []string
	hasDepth     bool
}

func defaultPipelineBuilder() *pipelineBuilder {
	return &pipelineBuilder{}
}

// WithHandle sets the GPU pipeline handle.
//
// Parameters:
//   - handle: the compiled pipeline handle
//
// Returns:
//   - PipelineBuilderOption: the configured option
func WithHandle(handle *wgpu.RenderPipeline) PipelineBuilderOption {
	return func(b *pipelineBuilder) {
		b.handle = handle
	}
}

// WithInputBuffers sets the buffer names feeding each vertex slot, in slot order.
//
// Parameters:
//   - names: the buffer names by slot
//
// Returns:
//   - PipelineBuilderOption: the configured option
func WithInputBuffers(names []string) PipelineBuilderOption {
	return func(b *pipelineBuilder) {
		b.inputBuffers = names
	}
}

// WithIndexBuffer sets the name of the buffer supplying indices.
//
// Parameters:
//   - name: the index buffer name
//
// Returns:
//   - PipelineBuilderOption: the configured option
func WithIndexBuffer(name string) PipelineBuilderOption {
	return func(b *pipelineBuilder) {
		b.indexBuffer = name
	}
}

// WithBindGroups sets the declared bind group names, by group index.
//
// Parameters:
//   - names: the bind group names
//
// Returns:
//   - PipelineBuilderOption: the configured option
func WithBindGroups(names []string) PipelineBuilderOption {
	return func(b *pipelineBuilder) {
		b.bindGroups = names
	}
}

// WithDepth marks the pipeline as carrying depth test/write state.
//
// Parameters:
//   - hasDepth: true when depth is enabled
//
// Returns:
//   - PipelineBuilderOption: the configured option
func WithDepth(hasDepth bool) PipelineBuilderOption {
	return func(b *pipelineBuilder) {
		b.hasDepth = hasDepth
	}
}
