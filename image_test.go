package vkx

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestComputeMaxMipLevels(t *testing.T) {
	cases := []struct {
		w, h uint32
		want uint32
	}{
		{1, 1, 1},
		{0, 0, 1},
		{2, 1, 2},
		{256, 256, 9},
		{300, 150, 9},
		{512, 256, 10},
		{1, 1024, 11},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("%dx%d", c.w, c.h), func(t *testing.T) {
			require.Equal(t, c.want, ComputeMaxMipLevels(c.w, c.h))
		})
	}
}

func TestMipExtents(t *testing.T) {
	levels := ComputeMaxMipLevels(512, 256)
	extents := MipExtents(512, 256, levels)
	require.Len(t, extents, int(levels))
	require.Equal(t, vk.Extent2D{Width: 512, Height: 256}, extents[0])
	require.Equal(t, vk.Extent2D{Width: 256, Height: 128}, extents[1])
	require.Equal(t, vk.Extent2D{Width: 2, Height: 1}, extents[8])
	require.Equal(t, vk.Extent2D{Width: 1, Height: 1}, extents[9])

	for _, e := range MipExtents(300, 150, ComputeMaxMipLevels(300, 150)) {
		require.GreaterOrEqual(t, e.Width, uint32(1))
		require.GreaterOrEqual(t, e.Height, uint32(1))
	}
}

func colorInfo(w, h, levels uint32) ImageInfo {
	return ImageInfo{
		Format:    vk.FormatR8g8b8a8Unorm,
		Width:     w,
		Height:    h,
		MipLevels: levels,
		Usage:     vk.ImageUsageFlags(vk.ImageUsageSampledBit),
	}
}

var colorAspect = vk.ImageAspectFlags(vk.ImageAspectColorBit)

func TestCreateImageValidates(t *testing.T) {
	r := newRig(t)

	_, err := r.dev.CreateImage(colorInfo(0, 4, 1), deviceLocal, colorAspect)
	require.ErrorIs(t, err, ErrResourceCreation)

	_, err = r.dev.CreateImage(colorInfo(4, 4, 4), deviceLocal, colorAspect)
	require.ErrorIs(t, err, ErrResourceCreation)

	require.Zero(t, r.fake.Live().Images)
}

func TestCreateImageDefaultsAndView(t *testing.T) {
	r := newRig(t)
	img, err := r.dev.CreateImage(colorInfo(16, 8, 0), deviceLocal, colorAspect)
	require.NoError(t, err)
	defer img.Destroy()

	require.Equal(t, uint32(1), img.Info().MipLevels)
	require.Equal(t, vk.SampleCount1Bit, img.Info().Samples)
	require.Equal(t, vk.ImageLayoutUndefined, img.Layout())

	img2, err := r.dev.CreateImage(colorInfo(16, 8, 5), deviceLocal, colorAspect)
	require.NoError(t, err)
	defer img2.Destroy()

	rng, ok := r.fake.ViewRange(img2.View())
	require.True(t, ok)
	require.Equal(t, uint32(0), rng.BaseMipLevel)
	require.Equal(t, uint32(5), rng.LevelCount)
	require.Equal(t, colorAspect, rng.AspectMask)
	r.requireClean(t)
}

func TestCreateImageUnwinds(t *testing.T) {
	for _, method := range []string{"AllocateMemory", "BindImageMemory", "CreateImageView"} {
		t.Run(method, func(t *testing.T) {
			r := newRig(t)
			r.fake.FailNext(method, errSimulated)

			_, err := r.dev.CreateImage(colorInfo(8, 8, 1), deviceLocal, colorAspect)
			require.ErrorIs(t, err, ErrResourceCreation)
			require.ErrorIs(t, err, errSimulated)

			live := r.fake.Live()
			require.Zero(t, live.Images)
			require.Zero(t, live.Views)
			require.Zero(t, live.Memories)
			r.requireClean(t)
		})
	}
}

func TestImageDestroyIsIdempotent(t *testing.T) {
	r := newRig(t)
	img, err := r.dev.CreateLocalImage(colorInfo(8, 8, 1), colorAspect)
	require.NoError(t, err)

	img.Destroy()
	img.Destroy()
	require.True(t, img.Destroyed())
	require.Equal(t, 1, r.fake.Frees())
	require.Zero(t, r.fake.Live().Views)

	require.ErrorIs(t, img.Set(r.pool, r.queue, pattern(256)), ErrDestroyed)
	r.requireClean(t)
}

func TestHostVisibleImage(t *testing.T) {
	r := newRig(t)
	info := colorInfo(2, 2, 1)
	info.Tiling = vk.ImageTilingLinear
	data := pattern(16)

	img, err := r.dev.CreateHostVisibleImage(info, colorAspect, data)
	require.NoError(t, err)
	defer img.Destroy()

	got := make([]byte, 16)
	require.NoError(t, img.Read(0, got))
	require.Equal(t, data, got)
	require.Equal(t, data, r.fake.Level(img.VK(), 0))

	require.ErrorIs(t, img.Set(img.Memory.Size, []byte{1}), ErrOutOfRange)
	r.requireClean(t)
}
