// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// Size2d is a two-dimensional extent in pixels (textures, attachments, window surfaces).
type Size2d struct {
	// X is the width in pixels.
	X uint32 `toml:"x"`
	// Y is the height in pixels.
	Y uint32 `toml:"y"`
}

// IsZero reports whether either dimension is zero, meaning the size describes no area.
//
// Returns:
//   - bool: true if the size has no area
func (s Size2d) IsZero() bool {
	return s.X == 0 || s.Y == 0
}

// Range is a half-open [Start, End) range of element indices, used for index and instance
// ranges in draw calls.
type Range struct {
	// Start is the first element included in the range.
	Start uint32
	// End is one past the last element included in the range.
	End uint32
}

// Count returns the number of elements covered by the range. A reversed range counts as empty.
//
// Returns:
//   - uint32: the number of elements in the range
func (r Range) Count() uint32 {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// ByteRange is a half-open [Offset, Offset+Len) span of bytes within a buffer.
type ByteRange struct {
	// Offset is the first byte of the span.
	Offset uint64
	// Len is the number of bytes in the span.
	Len uint64
}
