// package shader holds WGSL shader sources and their declared entry points. Sources
// are treated as opaque text except for a lightweight scan that confirms the declared
// entry point functions exist.
package shader

import (
	"fmt"
	"os"
	"regexp"

	"github.com/Carmen-Shannon/prism-go/engine/graph"
)

// Shader is a loaded WGSL source with its declared entry points.
type Shader interface {
	// Key returns the unique identifier the shader was registered under.
	//
	// Returns:
	//   - string: the shader key
	Key() string

	// Source returns the WGSL source text.
	//
	// Returns:
	//   - string: the source text
	Source() string

	// URI returns the file path the source was loaded from, empty for inline sources.
	//
	// Returns:
	//   - string: the source path
	URI() string

	// VertexEntry returns the vertex entry point function name.
	//
	// Returns:
	//   - string: the vertex entry point
	VertexEntry() string

	// FragmentEntry returns the fragment entry point function name.
	//
	// Returns:
	//   - string: the fragment entry point
	FragmentEntry() string

	// HasEntry reports whether the source text defines a function with the given name.
	//
	// Parameters:
	//   - name: the entry point function name to look for
	//
	// Returns:
	//   - bool: true if the source defines the function
	HasEntry(name string) bool

	// Reload re-reads the source from its URI. Inline sources are left unchanged.
	//
	// Returns:
	//   - error: a read error, or a missing-entry-point error after the reload
	Reload() error
}

type shader struct {
	key           string
	uri           string
	source        string
	vertexEntry   string
	fragmentEntry string
}

var _ Shader = &shader{}

// NewShader creates a shader from a key and builder options, then verifies that every
// declared entry point exists in the source text.
//
// Parameters:
//   - key: the unique identifier to register the shader under
//   - opts: builder options for source, file path, and entry points
//
// Returns:
//   - Shader: the constructed shader
//   - error: a file read error or a missing-entry-point error
func NewShader(key string, opts ...ShaderBuilderOption) (Shader, error) {
	builder := defaultShaderBuilder()
	for _, opt := range opts {
		opt(builder)
	}

	s := &shader{
		key:           key,
		uri:           builder.uri,
		source:        builder.source,
		vertexEntry:   builder.vertexEntry,
		fragmentEntry: builder.fragmentEntry,
	}
	if s.uri != "" && s.source == "" {
		data, err := os.ReadFile(s.uri)
		if err != nil {
			return nil, fmt.Errorf("failed to read shader source %q: %w", s.uri, err)
		}
		s.source = string(data)
	}
	if err := s.checkEntries(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) URI() string {
	return s.uri
}

func (s *shader) VertexEntry() string {
	return s.vertexEntry
}

func (s *shader) FragmentEntry() string {
	return s.fragmentEntry
}

func (s *shader) HasEntry(name string) bool {
	if name == "" {
		return false
	}
	re := regexp.MustCompile(`(?m)\bfn\s+` + regexp.QuoteMeta(name) + `\s*\(`)
	return re.MatchString(s.source)
}

func (s *shader) Reload() error {
	if s.uri == "" {
		return nil
	}
	data, err := os.ReadFile(s.uri)
	if err != nil {
		return fmt.Errorf("failed to reload shader source %q: %w", s.uri, err)
	}
	s.source = string(data)
	return s.checkEntries()
}

func (s *shader) checkEntries() error {
	if s.vertexEntry != "" && !s.HasEntry(s.vertexEntry) {
		return fmt.Errorf("shader %q has no vertex entry point %q: %w", s.key, s.vertexEntry, graph.ErrShaderEntryPointMissing)
	}
	if s.fragmentEntry != "" && !s.HasEntry(s.fragmentEntry) {
		return fmt.Errorf("shader %q has no fragment entry point %q: %w", s.key, s.fragmentEntry, graph.ErrShaderEntryPointMissing)
	}
	return nil
}
