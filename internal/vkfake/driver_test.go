package vkfake

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

var errFenceTest = errors.New("fence creation failed")

func newImage(t *testing.T, d *Driver, usage vk.ImageUsageFlagBits, levels uint32) vk.Image {
	t.Helper()
	img, err := d.CreateImage(d.Device(), &vk.ImageCreateInfo{
		Format:        vk.FormatR8g8b8a8Unorm,
		Extent:        vk.Extent3D{Width: 4, Height: 4, Depth: 1},
		MipLevels:     levels,
		Usage:         vk.ImageUsageFlags(usage),
		InitialLayout: vk.ImageLayoutUndefined,
	})
	require.NoError(t, err)
	reqs := d.GetImageMemoryRequirements(d.Device(), img)
	mem, err := d.AllocateMemory(d.Device(), &vk.MemoryAllocateInfo{AllocationSize: reqs.Size, MemoryTypeIndex: 0})
	require.NoError(t, err)
	require.NoError(t, d.BindImageMemory(d.Device(), img, mem, 0))
	return img
}

func record(t *testing.T, d *Driver, fn func(cb vk.CommandBuffer)) error {
	t.Helper()
	pool, err := d.CreateCommandPool(d.Device(), &vk.CommandPoolCreateInfo{})
	require.NoError(t, err)
	defer d.DestroyCommandPool(d.Device(), pool)

	cbs, err := d.AllocateCommandBuffers(d.Device(), &vk.CommandBufferAllocateInfo{CommandPool: pool, CommandBufferCount: 1})
	require.NoError(t, err)
	require.NoError(t, d.BeginCommandBuffer(cbs[0], &vk.CommandBufferBeginInfo{}))
	fn(cbs[0])
	require.NoError(t, d.EndCommandBuffer(cbs[0]))

	return d.QueueSubmit(d.GetDeviceQueue(d.Device(), 0, 0), []vk.SubmitInfo{{
		CommandBufferCount: 1,
		PCommandBuffers:    cbs,
	}}, vk.NullFence)
}

func TestBarrierTracksLayouts(t *testing.T) {
	d := New()
	img := newImage(t, d, vk.ImageUsageTransferDstBit, 2)

	require.NoError(t, record(t, d, func(cb vk.CommandBuffer) {
		d.CmdPipelineBarrier(cb, 0, 0, []vk.ImageMemoryBarrier{{
			OldLayout: vk.ImageLayoutUndefined,
			NewLayout: vk.ImageLayoutTransferDstOptimal,
			Image:     img,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		}})
	}))

	require.Equal(t, []vk.ImageLayout{vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutUndefined}, d.Layouts(img))
	require.Empty(t, d.Violations())
	require.Equal(t, 1, d.Submissions())
}

func TestBarrierFromWrongLayoutIsViolation(t *testing.T) {
	d := New()
	img := newImage(t, d, vk.ImageUsageTransferDstBit, 1)

	require.NoError(t, record(t, d, func(cb vk.CommandBuffer) {
		d.CmdPipelineBarrier(cb, 0, 0, []vk.ImageMemoryBarrier{{
			OldLayout: vk.ImageLayoutTransferDstOptimal,
			NewLayout: vk.ImageLayoutShaderReadOnlyOptimal,
			Image:     img,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		}})
	}))
	require.Len(t, d.Violations(), 1)
}

func TestBlitWithoutTransferSourceIsViolation(t *testing.T) {
	d := New()
	img := newImage(t, d, vk.ImageUsageTransferDstBit, 2)

	require.NoError(t, record(t, d, func(cb vk.CommandBuffer) {
		d.CmdBlitImage(cb, img, vk.ImageLayoutTransferSrcOptimal, img, vk.ImageLayoutTransferDstOptimal, []vk.ImageBlit{{
			SrcSubresource: vk.ImageSubresourceLayers{MipLevel: 0, LayerCount: 1},
			SrcOffsets:     [2]vk.Offset3D{{}, {X: 4, Y: 4, Z: 1}},
			DstSubresource: vk.ImageSubresourceLayers{MipLevel: 1, LayerCount: 1},
			DstOffsets:     [2]vk.Offset3D{{}, {X: 2, Y: 2, Z: 1}},
		}}, vk.FilterLinear)
	}))
	require.NotEmpty(t, d.Violations())
	require.Len(t, d.Blits(), 1)
}

func TestMapRequiresHostVisibleMemory(t *testing.T) {
	d := New()
	mem, err := d.AllocateMemory(d.Device(), &vk.MemoryAllocateInfo{AllocationSize: 64, MemoryTypeIndex: 0})
	require.NoError(t, err)
	_, err = d.MapMemory(d.Device(), mem, 0, 64)
	require.Error(t, err)

	host, err := d.AllocateMemory(d.Device(), &vk.MemoryAllocateInfo{AllocationSize: 64, MemoryTypeIndex: 1})
	require.NoError(t, err)
	ptr, err := d.MapMemory(d.Device(), host, 0, 64)
	require.NoError(t, err)
	require.NotNil(t, ptr)
	_, err = d.MapMemory(d.Device(), host, 0, 64)
	require.Error(t, err, "double map")
	d.UnmapMemory(d.Device(), host)

	d.FreeMemory(d.Device(), host)
	d.FreeMemory(d.Device(), host)
	require.Equal(t, 1, d.Frees())
}

func TestFailNextIsOneShot(t *testing.T) {
	d := New()
	d.FailNext("CreateFence", errFenceTest)
	_, err := d.CreateFence(d.Device(), &vk.FenceCreateInfo{})
	require.ErrorIs(t, err, errFenceTest)
	_, err = d.CreateFence(d.Device(), &vk.FenceCreateInfo{})
	require.NoError(t, err)
}

func TestHandlesAreDistinct(t *testing.T) {
	d := New()
	info := &vk.BufferCreateInfo{Size: 16, Usage: vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit)}
	a, err := d.CreateBuffer(d.Device(), info)
	require.NoError(t, err)
	b, err := d.CreateBuffer(d.Device(), info)
	require.NoError(t, err)
	require.True(t, a != b)

	ma, err := d.AllocateMemory(d.Device(), &vk.MemoryAllocateInfo{AllocationSize: 16, MemoryTypeIndex: 1})
	require.NoError(t, err)
	mb, err := d.AllocateMemory(d.Device(), &vk.MemoryAllocateInfo{AllocationSize: 16, MemoryTypeIndex: 1})
	require.NoError(t, err)
	require.True(t, ma != mb)
	require.Equal(t, 2, d.Live().Buffers)
	require.Equal(t, 2, d.Live().Memories)

	d.DestroyBuffer(d.Device(), a)
	require.Equal(t, 1, d.Live().Buffers)
	require.Empty(t, d.Violations())
}
