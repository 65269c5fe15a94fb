package graph

import "fmt"

// The enum types marshal to and from short lowercase tokens so models can be written
// as TOML documents.

var bufferTypeNames = map[BufferType]string{
	BufferTypeVertex:  "vertex",
	BufferTypeIndex:   "index",
	BufferTypeUniform: "uniform",
	BufferTypeStorage: "storage",
}

// String returns the token form of the buffer type.
func (t BufferType) String() string {
	if name, ok := bufferTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("BufferType(%d)", int(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t BufferType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *BufferType) UnmarshalText(text []byte) error {
	return unmarshalEnum(t, bufferTypeNames, text, "buffer type")
}

var textureFormatNames = map[TextureFormat]string{
	TextureFormatRGBA8Unorm:   "rgba8unorm",
	TextureFormatBGRA8Unorm:   "bgra8unorm",
	TextureFormatRGBA16Float:  "rgba16float",
	TextureFormatRGBA32Float:  "rgba32float",
	TextureFormatDepth32Float: "depth32float",
}

// String returns the token form of the texture format.
func (f TextureFormat) String() string {
	if name, ok := textureFormatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("TextureFormat(%d)", int(f))
}

// MarshalText implements encoding.TextMarshaler.
func (f TextureFormat) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *TextureFormat) UnmarshalText(text []byte) error {
	return unmarshalEnum(f, textureFormatNames, text, "texture format")
}

var samplerKindNames = map[SamplerKind]string{
	SamplerKindFilter:     "filter",
	SamplerKindNonFilter:  "non_filter",
	SamplerKindComparison: "comparison",
}

// String returns the token form of the sampler kind.
func (k SamplerKind) String() string {
	if name, ok := samplerKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("SamplerKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k SamplerKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *SamplerKind) UnmarshalText(text []byte) error {
	return unmarshalEnum(k, samplerKindNames, text, "sampler kind")
}

var stepModeNames = map[StepMode]string{
	StepModeVertex:   "vertex",
	StepModeInstance: "instance",
}

// String returns the token form of the step mode.
func (s StepMode) String() string {
	if name, ok := stepModeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("StepMode(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s StepMode) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *StepMode) UnmarshalText(text []byte) error {
	return unmarshalEnum(s, stepModeNames, text, "step mode")
}

var attributeFormatNames = map[AttributeFormat]string{
	AttributeFormatFloat16x2: "float16x2",
	AttributeFormatFloat16x4: "float16x4",
	AttributeFormatFloat32:   "float32",
	AttributeFormatFloat32x2: "float32x2",
	AttributeFormatFloat32x3: "float32x3",
	AttributeFormatFloat32x4: "float32x4",
	AttributeFormatSint8x2:   "sint8x2",
	AttributeFormatSint8x4:   "sint8x4",
	AttributeFormatSint16x2:  "sint16x2",
	AttributeFormatSint16x4:  "sint16x4",
	AttributeFormatSint32:    "sint32",
	AttributeFormatSint32x2:  "sint32x2",
	AttributeFormatSint32x3:  "sint32x3",
	AttributeFormatSint32x4:  "sint32x4",
	AttributeFormatSnorm8x2:  "snorm8x2",
	AttributeFormatSnorm8x4:  "snorm8x4",
	AttributeFormatSnorm16x2: "snorm16x2",
	AttributeFormatSnorm16x4: "snorm16x4",
	AttributeFormatUint8x2:   "uint8x2",
	AttributeFormatUint8x4:   "uint8x4",
	AttributeFormatUint16x2:  "uint16x2",
	AttributeFormatUint16x4:  "uint16x4",
	AttributeFormatUint32:    "uint32",
	AttributeFormatUint32x2:  "uint32x2",
	AttributeFormatUint32x3:  "uint32x3",
	AttributeFormatUint32x4:  "uint32x4",
	AttributeFormatUnorm8x2:  "unorm8x2",
	AttributeFormatUnorm8x4:  "unorm8x4",
	AttributeFormatUnorm16x2: "unorm16x2",
	AttributeFormatUnorm16x4: "unorm16x4",
}

// String returns the token form of the attribute format.
func (f AttributeFormat) String() string {
	if name, ok := attributeFormatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("AttributeFormat(%d)", int(f))
}

// MarshalText implements encoding.TextMarshaler.
func (f AttributeFormat) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *AttributeFormat) UnmarshalText(text []byte) error {
	return unmarshalEnum(f, attributeFormatNames, text, "attribute format")
}

var stageFlagsNames = map[StageFlags]string{
	StageVertex:   "vertex",
	StageFragment: "fragment",
	StageBoth:     "both",
}

// String returns the token form of the stage flags.
func (s StageFlags) String() string {
	if name, ok := stageFlagsNames[s]; ok {
		return name
	}
	return fmt.Sprintf("StageFlags(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s StageFlags) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *StageFlags) UnmarshalText(text []byte) error {
	return unmarshalEnum(s, stageFlagsNames, text, "stage flags")
}

var loadOpNames = map[LoadOp]string{
	LoadOpClear: "clear",
	LoadOpLoad:  "load",
}

// String returns the token form of the load op.
func (o LoadOp) String() string {
	if name, ok := loadOpNames[o]; ok {
		return name
	}
	return fmt.Sprintf("LoadOp(%d)", int(o))
}

// MarshalText implements encoding.TextMarshaler.
func (o LoadOp) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *LoadOp) UnmarshalText(text []byte) error {
	return unmarshalEnum(o, loadOpNames, text, "load op")
}

func unmarshalEnum[T comparable](dst *T, names map[T]string, text []byte, kind string) error {
	for value, name := range names {
		if name == string(text) {
			*dst = value
			return nil
		}
	}
	return fmt.Errorf("unknown %s %q", kind, string(text))
}
