package binding

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/graph"
	"github.com/Carmen-Shannon/prism-go/engine/registry"
)

// fakeBindingDevice counts bind-group creation and release without a GPU.
type fakeBindingDevice struct {
	layouts  int
	groups   int
	released int

	lastEntries []wgpu.BindGroupEntry
}

func (d *fakeBindingDevice) CreateBindGroupLayout(label string, entries []wgpu.BindGroupLayoutEntry) (*wgpu.BindGroupLayout, error) {
	d.layouts++
	return &wgpu.BindGroupLayout{}, nil
}

func (d *fakeBindingDevice) CreateBindGroup(label string, layout *wgpu.BindGroupLayout, entries []wgpu.BindGroupEntry) (*wgpu.BindGroup, error) {
	d.groups++
	d.lastEntries = entries
	return &wgpu.BindGroup{}, nil
}

func (d *fakeBindingDevice) ReleaseBindGroup(layout *wgpu.BindGroupLayout, group *wgpu.BindGroup) {
	d.released++
}

// fakeRegistryDevice satisfies registry.Device for resolver tests.
type fakeRegistryDevice struct{}

func (fakeRegistryDevice) CreateBuffer(string, uint64, wgpu.BufferUsage) (*wgpu.Buffer, error) {
	return &wgpu.Buffer{}, nil
}

func (fakeRegistryDevice) CreateTexture(string, common.Size2d, wgpu.TextureFormat, wgpu.TextureUsage, uint32) (*wgpu.Texture, *wgpu.TextureView, error) {
	return &wgpu.Texture{}, &wgpu.TextureView{}, nil
}

func (fakeRegistryDevice) CreateSampler(string, graph.SamplerKind) (*wgpu.Sampler, error) {
	return &wgpu.Sampler{}, nil
}

func (fakeRegistryDevice) WriteBuffer(*wgpu.Buffer, uint64, []byte) error { return nil }
func (fakeRegistryDevice) ReleaseBuffer(*wgpu.Buffer)                     {}
func (fakeRegistryDevice) ReleaseTexture(*wgpu.Texture, *wgpu.TextureView) {
}
func (fakeRegistryDevice) ReleaseSampler(*wgpu.Sampler) {}

func resolverModel() *graph.Model {
	return &graph.Model{
		Buffers: []graph.Buffer{
			{Name: "camera", Size: 64, BufferType: graph.BufferTypeUniform},
		},
		Textures: []graph.Texture{
			{Name: "color", Format: graph.TextureFormatRGBA8Unorm, Size2d: common.Size2d{X: 64, Y: 64}, WindowSized: true},
		},
		Samplers: []graph.Sampler{
			{Name: "linear", Kind: graph.SamplerKindFilter},
		},
		BindGroups: []graph.BindGroup{
			{
				Name: "scene",
				BufferBindings: []graph.BufferBinding{
					{Binding: 0, Stages: graph.StageVertex, Buffer: "camera", Size: 64},
				},
			},
			{
				Name: "blit",
				TextureBindings: []graph.TextureBinding{
					{Binding: 0, Stages: graph.StageFragment, Texture: "color", Filterable: true},
				},
				SamplerBindings: []graph.SamplerBinding{
					{Binding: 1, Stages: graph.StageFragment, Sampler: "linear"},
				},
			},
		},
	}
}

func newResolverFixture(t *testing.T) (*fakeBindingDevice, registry.Registry, Resolver, *graph.Model) {
	t.Helper()
	m := resolverModel()
	reg := registry.NewRegistry(fakeRegistryDevice{})
	require.NoError(t, reg.InitFromModel(m))
	dev := &fakeBindingDevice{}
	return dev, reg, NewResolver(dev, reg), m
}

func TestRealizeAndGroup(t *testing.T) {
	dev, _, res, m := newResolverFixture(t)
	require.NoError(t, res.Realize(m))

	assert.Equal(t, 2, dev.layouts)
	assert.Equal(t, 2, dev.groups)

	group, err := res.Group("scene")
	require.NoError(t, err)
	assert.Equal(t, "scene", group.Name)
	assert.NotNil(t, group.Layout)
	assert.NotNil(t, group.Handle)
	assert.Equal(t, uint64(0), group.Generation)

	_, err = res.Group("missing")
	assert.ErrorIs(t, err, graph.ErrUnresolvedReference)
}

func TestRealizeEntryOrder(t *testing.T) {
	dev, _, res, m := newResolverFixture(t)
	require.NoError(t, res.Realize(m))

	// The blit group was realized last: texture entry, then sampler entry.
	require.Len(t, dev.lastEntries, 2)
	assert.NotNil(t, dev.lastEntries[0].TextureView)
	assert.Nil(t, dev.lastEntries[0].Sampler)
	assert.NotNil(t, dev.lastEntries[1].Sampler)
	assert.Nil(t, dev.lastEntries[1].TextureView)
}

func TestRefreshRebuildsStaleGroups(t *testing.T) {
	dev, reg, res, m := newResolverFixture(t)
	require.NoError(t, res.Realize(m))

	// Nothing stale: no extra creations.
	require.NoError(t, res.Refresh(m))
	assert.Equal(t, 2, dev.groups)

	// Resizing the texture bumps the generation, so both groups rebuild and the
	// old handles are released.
	require.NoError(t, reg.ResizeWindowTextures(common.Size2d{X: 128, Y: 128}))
	require.NoError(t, res.Refresh(m))
	assert.Equal(t, 4, dev.groups)
	assert.Equal(t, 2, dev.released)

	group, err := res.Group("blit")
	require.NoError(t, err)
	assert.Equal(t, reg.Generation(), group.Generation)
}

func TestRealizeUnknownResource(t *testing.T) {
	_, _, res, m := newResolverFixture(t)
	m.BindGroups[0].BufferBindings[0].Buffer = "missing"
	assert.Error(t, res.Realize(m))
}

func TestResolverRelease(t *testing.T) {
	dev, _, res, m := newResolverFixture(t)
	require.NoError(t, res.Realize(m))

	res.Release()
	assert.Equal(t, 2, dev.released)

	_, err := res.Group("scene")
	assert.ErrorIs(t, err, graph.ErrUnresolvedReference)
}
