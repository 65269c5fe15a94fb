package registry

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/graph"
)

// fakeDevice records allocations without touching a GPU. Handles are distinct
// zero-value structs so identity checks still work.
type fakeDevice struct {
	buffers  int
	textures int
	samplers int
	released int

	writes []fakeWrite

	bufferUsages   map[string]wgpu.BufferUsage
	textureSizes   map[string]common.Size2d
	textureSamples map[string]uint32
	failNextWrite  error
}

type fakeWrite struct {
	offset uint64
	data   []byte
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		bufferUsages:   map[string]wgpu.BufferUsage{},
		textureSizes:   map[string]common.Size2d{},
		textureSamples: map[string]uint32{},
	}
}

func (d *fakeDevice) CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	d.buffers++
	d.bufferUsages[label] = usage
	return &wgpu.Buffer{}, nil
}

func (d *fakeDevice) CreateTexture(label string, size common.Size2d, format wgpu.TextureFormat, usage wgpu.TextureUsage, sampleCount uint32) (*wgpu.Texture, *wgpu.TextureView, error) {
	d.textures++
	d.textureSizes[label] = size
	d.textureSamples[label] = sampleCount
	return &wgpu.Texture{}, &wgpu.TextureView{}, nil
}

func (d *fakeDevice) CreateSampler(label string, kind graph.SamplerKind) (*wgpu.Sampler, error) {
	d.samplers++
	return &wgpu.Sampler{}, nil
}

func (d *fakeDevice) WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) error {
	if d.failNextWrite != nil {
		err := d.failNextWrite
		d.failNextWrite = nil
		return err
	}
	d.writes = append(d.writes, fakeWrite{offset: offset, data: data})
	return nil
}

func (d *fakeDevice) ReleaseBuffer(buf *wgpu.Buffer)                        { d.released++ }
func (d *fakeDevice) ReleaseTexture(tex *wgpu.Texture, v *wgpu.TextureView) { d.released++ }
func (d *fakeDevice) ReleaseSampler(s *wgpu.Sampler)                        { d.released++ }

func testModel() *graph.Model {
	return &graph.Model{
		Buffers: []graph.Buffer{
			{Name: "verts", Size: 256, BufferType: graph.BufferTypeVertex},
			{Name: "camera", Size: 64, BufferType: graph.BufferTypeUniform},
		},
		Textures: []graph.Texture{
			{Name: "color", Format: graph.TextureFormatRGBA8Unorm, Size2d: common.Size2d{X: 640, Y: 480}, WindowSized: true},
			{Name: "lut", Format: graph.TextureFormatRGBA16Float, Size2d: common.Size2d{X: 16, Y: 16}},
		},
		Samplers: []graph.Sampler{
			{Name: "linear", Kind: graph.SamplerKindFilter},
		},
	}
}

func TestInitFromModel(t *testing.T) {
	dev := newFakeDevice()
	reg := NewRegistry(dev)
	require.NoError(t, reg.InitFromModel(testModel()))

	assert.Equal(t, 2, dev.buffers)
	assert.Equal(t, 2, dev.textures)
	assert.Equal(t, 1, dev.samplers)

	handle, desc, err := reg.Buffer("verts")
	require.NoError(t, err)
	assert.NotNil(t, handle)
	assert.Equal(t, uint64(256), desc.Size)

	_, view, texDesc, err := reg.Texture("color")
	require.NoError(t, err)
	assert.NotNil(t, view)
	assert.True(t, texDesc.WindowSized)

	_, sampDesc, err := reg.Sampler("linear")
	require.NoError(t, err)
	assert.Equal(t, graph.SamplerKindFilter, sampDesc.Kind)
}

func TestCreateTextureSampleCount(t *testing.T) {
	dev := newFakeDevice()
	reg := NewRegistry(dev)

	require.NoError(t, reg.CreateTexture(graph.Texture{
		Name: "aa", Format: graph.TextureFormatRGBA8Unorm,
		Size2d: common.Size2d{X: 64, Y: 64}, Multisampled: true,
	}))
	require.NoError(t, reg.CreateTexture(graph.Texture{
		Name: "plain", Format: graph.TextureFormatRGBA8Unorm,
		Size2d: common.Size2d{X: 64, Y: 64},
	}))

	assert.Equal(t, uint32(4), dev.textureSamples["aa"])
	assert.Equal(t, uint32(1), dev.textureSamples["plain"])
}

func TestUnknownResource(t *testing.T) {
	reg := NewRegistry(newFakeDevice())

	_, _, err := reg.Buffer("missing")
	assert.ErrorIs(t, err, graph.ErrUnknownResource)
	_, _, _, err = reg.Texture("missing")
	assert.ErrorIs(t, err, graph.ErrUnknownResource)
	_, _, err = reg.Sampler("missing")
	assert.ErrorIs(t, err, graph.ErrUnknownResource)
	assert.ErrorIs(t, reg.WriteBuffer("missing", 0, []byte{1}), graph.ErrUnknownResource)
	assert.ErrorIs(t, reg.ResizeTexture("missing", common.Size2d{X: 1, Y: 1}), graph.ErrUnknownResource)
}

func TestDuplicateName(t *testing.T) {
	reg := NewRegistry(newFakeDevice())
	require.NoError(t, reg.CreateBuffer(graph.Buffer{Name: "b", Size: 16}))
	assert.ErrorIs(t, reg.CreateBuffer(graph.Buffer{Name: "b", Size: 16}), graph.ErrDuplicateName)
}

func TestBufferUsageDerivation(t *testing.T) {
	dev := newFakeDevice()
	reg := NewRegistry(dev)
	require.NoError(t, reg.InitFromModel(testModel()))

	assert.Equal(t, wgpu.BufferUsageCopyDst|wgpu.BufferUsageVertex, dev.bufferUsages["verts"])
	assert.Equal(t, wgpu.BufferUsageCopyDst|wgpu.BufferUsageUniform, dev.bufferUsages["camera"])
}

func TestWriteBufferBounds(t *testing.T) {
	dev := newFakeDevice()
	reg := NewRegistry(dev)
	require.NoError(t, reg.CreateBuffer(graph.Buffer{Name: "b", Size: 32, BufferType: graph.BufferTypeUniform}))

	require.NoError(t, reg.WriteBuffer("b", 0, make([]byte, 32)))
	require.NoError(t, reg.WriteBuffer("b", 16, make([]byte, 16)))
	assert.ErrorIs(t, reg.WriteBuffer("b", 16, make([]byte, 17)), graph.ErrOutOfBounds)
	assert.ErrorIs(t, reg.WriteBuffer("b", 33, nil), graph.ErrOutOfBounds)

	// Only the in-bounds writes reached the device.
	require.Len(t, dev.writes, 2)
	assert.Equal(t, uint64(16), dev.writes[1].offset)
}

func TestResizeBumpsGeneration(t *testing.T) {
	dev := newFakeDevice()
	reg := NewRegistry(dev)
	require.NoError(t, reg.InitFromModel(testModel()))
	assert.Equal(t, uint64(0), reg.Generation())

	require.NoError(t, reg.ResizeTexture("lut", common.Size2d{X: 32, Y: 32}))
	assert.Equal(t, uint64(1), reg.Generation())
	assert.Equal(t, 1, dev.released)

	_, _, desc, err := reg.Texture("lut")
	require.NoError(t, err)
	assert.Equal(t, common.Size2d{X: 32, Y: 32}, desc.Size2d)
}

func TestResizeWindowTextures(t *testing.T) {
	dev := newFakeDevice()
	reg := NewRegistry(dev)
	require.NoError(t, reg.InitFromModel(testModel()))

	require.NoError(t, reg.ResizeWindowTextures(common.Size2d{X: 1920, Y: 1080}))

	// Only the window-sized texture follows the surface.
	_, _, color, err := reg.Texture("color")
	require.NoError(t, err)
	assert.Equal(t, common.Size2d{X: 1920, Y: 1080}, color.Size2d)

	_, _, lut, err := reg.Texture("lut")
	require.NoError(t, err)
	assert.Equal(t, common.Size2d{X: 16, Y: 16}, lut.Size2d)

	assert.Equal(t, uint64(1), reg.Generation())
}

func TestRelease(t *testing.T) {
	dev := newFakeDevice()
	reg := NewRegistry(dev)
	require.NoError(t, reg.InitFromModel(testModel()))

	reg.Release()
	assert.Equal(t, 5, dev.released)

	_, _, err := reg.Buffer("verts")
	assert.ErrorIs(t, err, graph.ErrUnknownResource)
}
