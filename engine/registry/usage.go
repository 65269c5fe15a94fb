package registry

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/prism-go/engine/graph"
)

// BufferUsage derives the GPU usage flags for a declared buffer type. Every buffer is
// writable from the CPU in addition to its binding usage.
//
// Parameters:
//   - t: the declared buffer type
//
// Returns:
//   - wgpu.BufferUsage: the usage flags to allocate with
func BufferUsage(t graph.BufferType) wgpu.BufferUsage {
	usage := wgpu.BufferUsageCopyDst
	switch t {
	case graph.BufferTypeVertex:
		usage |= wgpu.BufferUsageVertex
	case graph.BufferTypeIndex:
		usage |= wgpu.BufferUsageIndex
	case graph.BufferTypeUniform:
		usage |= wgpu.BufferUsageUniform
	case graph.BufferTypeStorage:
		usage |= wgpu.BufferUsageStorage
	}
	return usage
}

// TextureUsage derives the GPU usage flags for a declared texture format. Every
// texture can serve as a render attachment and a sampled binding, since the graph may
// write it in one pass and read it in another.
//
// Parameters:
//   - f: the declared texture format
//
// Returns:
//   - wgpu.TextureUsage: the usage flags to allocate with
func TextureUsage(f graph.TextureFormat) wgpu.TextureUsage {
	return wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst
}

// TextureFormat maps a declared texture format to its GPU format.
//
// Parameters:
//   - f: the declared texture format
//
// Returns:
//   - wgpu.TextureFormat: the GPU format
func TextureFormat(f graph.TextureFormat) wgpu.TextureFormat {
	switch f {
	case graph.TextureFormatRGBA8Unorm:
		return wgpu.TextureFormatRGBA8Unorm
	case graph.TextureFormatBGRA8Unorm:
		return wgpu.TextureFormatBGRA8Unorm
	case graph.TextureFormatRGBA16Float:
		return wgpu.TextureFormatRGBA16Float
	case graph.TextureFormatRGBA32Float:
		return wgpu.TextureFormatRGBA32Float
	case graph.TextureFormatDepth32Float:
		return wgpu.TextureFormatDepth32Float
	default:
		return wgpu.TextureFormatRGBA8Unorm
	}
}
