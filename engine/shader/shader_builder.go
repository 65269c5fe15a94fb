package shader

// ShaderBuilderOption configures a shader during construction.
type ShaderBuilderOption func(*shaderBuilder)

type shaderBuilder struct {
	uri           string
	source        string
	vertexEntry   string
	fragmentEntry string
}

func defaultShaderBuilder() *shaderBuilder {
	return &shaderBuilder{}
}

// WithSourceFile sets the WGSL source file path. The file is read at construction and
// again on Reload.
//
// Parameters:
//   - path: the WGSL file path
//
// Returns:
//   - ShaderBuilderOption: the configured option
func WithSourceFile(path string) ShaderBuilderOption {
	return func(b *shaderBuilder) {
		b.uri = path
	}
}

// WithSource sets the WGSL source text directly. Inline sources are never reloaded.
//
// Parameters:
//   - source: the WGSL source text
//
// Returns:
//   - ShaderBuilderOption: the configured option
func WithSource(source string) ShaderBuilderOption {
	return func(b *shaderBuilder) {
		b.source = source
	}
}

// WithEntryPoints sets the vertex and fragment entry point function names. An empty
// name skips verification for that stage.
//
// Parameters:
//   - vertex: the vertex entry point function name
//   - fragment: the fragment entry point function name
//
// Returns:
//   - ShaderBuilderOption: the configured option
func WithEntryPoints(vertex, fragment string) ShaderBuilderOption {
	return func(b *shaderBuilder) {
		b.vertexEntry = vertex
		b.fragmentEntry = fragment
	}
}
