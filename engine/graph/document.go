package graph

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// ParseModel decodes a TOML render-graph document into a Model and validates it.
// Declaration order within the document is preserved for buffers, textures, samplers,
// bind groups, pipelines, and passes.
//
// Parameters:
//   - data: the TOML document bytes
//
// Returns:
//   - *Model: the decoded and validated model
//   - error: a decode or validation error
func ParseModel(data []byte) (*Model, error) {
	var m Model
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode render-graph document: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadModel reads a TOML render-graph document from disk and parses it.
//
// Parameters:
//   - path: the document file path
//
// Returns:
//   - *Model: the decoded and validated model
//   - error: a read, decode, or validation error
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read render-graph document %q: %w", path, err)
	}
	return ParseModel(data)
}

// EncodeModel serializes a model back to its TOML document form.
//
// Parameters:
//   - m: the model to serialize
//
// Returns:
//   - []byte: the TOML document bytes
//   - error: an encode error
func EncodeModel(m *Model) ([]byte, error) {
	data, err := toml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode render-graph document: %w", err)
	}
	return data, nil
}
