package vkx

import (
	"math/bits"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// ImageInfo describes a 2D image with a single array layer. Zero values pick the defaults:
// one mip level, one sample, optimal tiling, exclusive sharing.
type ImageInfo struct {
	Format    vk.Format
	Width     uint32
	Height    uint32
	MipLevels uint32
	Samples   vk.SampleCountFlagBits
	Tiling    vk.ImageTiling
	Usage     vk.ImageUsageFlags
	Sharing   vk.SharingMode
}

func (info ImageInfo) withDefaults() ImageInfo {
	if info.MipLevels == 0 {
		info.MipLevels = 1
	}
	if info.Samples == 0 {
		info.Samples = vk.SampleCount1Bit
	}
	return info
}

// Extent returns the size of the base level.
func (info ImageInfo) Extent() vk.Extent3D {
	return vk.Extent3D{Width: info.Width, Height: info.Height, Depth: 1}
}

func (info ImageInfo) validate() error {
	if info.Width == 0 || info.Height == 0 {
		return errors.Wrapf(ErrResourceCreation, "image extent %dx%d", info.Width, info.Height)
	}
	if limit := ComputeMaxMipLevels(info.Width, info.Height); info.MipLevels > limit {
		return errors.Wrapf(ErrResourceCreation, "%d mip levels requested, %dx%d allows %d", info.MipLevels, info.Width, info.Height, limit)
	}
	return nil
}

// Image owns a native image, the allocation bound to it and a 2D view over every mip level.
// The layout the image was last transitioned to is tracked alongside.
type Image struct {
	Device      *Device
	VKImage     vk.Image
	VKImageView vk.ImageView
	Memory      *DeviceMemory
	Aspect      vk.ImageAspectFlags

	info   ImageInfo
	layout vk.ImageLayout
}

// CreateImage creates the image, backs it with memoryProperties memory and creates its view
// with aspect. On failure nothing is left allocated.
func (d *Device) CreateImage(info ImageInfo, memoryProperties vk.MemoryPropertyFlags, aspect vk.ImageAspectFlags) (*Image, error) {
	info = info.withDefaults()
	if err := info.validate(); err != nil {
		return nil, err
	}

	imageInfo := vk.ImageCreateInfo{
		SType:         vk.StructureTypeImageCreateInfo,
		ImageType:     vk.ImageType2d,
		Extent:        info.Extent(),
		MipLevels:     info.MipLevels,
		ArrayLayers:   1,
		Format:        info.Format,
		Tiling:        info.Tiling,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         info.Usage,
		Samples:       info.Samples,
		SharingMode:   info.Sharing,
	}

	drv := d.driver()
	image, err := drv.CreateImage(d.VKDevice, &imageInfo)
	if err != nil {
		return nil, resourceError(err, "create %dx%d image", info.Width, info.Height)
	}

	memory, err := d.AllocateFor(drv.GetImageMemoryRequirements(d.VKDevice, image), memoryProperties)
	if err != nil {
		drv.DestroyImage(d.VKDevice, image)
		return nil, err
	}

	if err := drv.BindImageMemory(d.VKDevice, image, memory.VKDeviceMemory, 0); err != nil {
		memory.Free()
		drv.DestroyImage(d.VKDevice, image)
		return nil, resourceError(err, "bind image memory")
	}

	view, err := drv.CreateImageView(d.VKDevice, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   info.Format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     info.MipLevels,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	if err != nil {
		drv.DestroyImage(d.VKDevice, image)
		memory.Free()
		return nil, resourceError(err, "create image view")
	}

	Logger().WithFields(logrus.Fields{
		"extent":     []uint32{info.Width, info.Height},
		"format":     info.Format,
		"mipLevels":  info.MipLevels,
		"size":       sizeField(vk.DeviceSize(memory.Size)),
		"memoryType": memory.TypeIndex,
	}).Debug("image created")

	return &Image{
		Device:      d,
		VKImage:     image,
		VKImageView: view,
		Memory:      memory,
		Aspect:      aspect,
		info:        info,
		layout:      vk.ImageLayoutUndefined,
	}, nil
}

// VK returns the native image handle.
func (i *Image) VK() vk.Image {
	return i.VKImage
}

// View returns the view covering every mip level.
func (i *Image) View() vk.ImageView {
	return i.VKImageView
}

// Info returns the creation info with defaults filled in.
func (i *Image) Info() ImageInfo {
	return i.info
}

// Layout returns the layout the image was last transitioned to.
func (i *Image) Layout() vk.ImageLayout {
	return i.layout
}

// Destroyed reports whether Destroy has been called.
func (i *Image) Destroyed() bool {
	return i.VKImage == vk.NullImage
}

// Destroy releases the view, the image and its allocation. Calling it again does nothing.
func (i *Image) Destroy() {
	if i.Destroyed() {
		return
	}
	drv := i.Device.driver()
	drv.DestroyImageView(i.Device.VKDevice, i.VKImageView)
	drv.DestroyImage(i.Device.VKDevice, i.VKImage)
	i.VKImageView = vk.NullImageView
	i.VKImage = vk.NullImage
	i.Memory.Free()
	Logger().WithField("extent", []uint32{i.info.Width, i.info.Height}).Debug("image destroyed")
}

// ComputeMaxMipLevels returns the number of levels needed to reach 1x1 when each level halves
// both sides with a floor of 1, i.e. floor(log2(max(width, height))) + 1.
func ComputeMaxMipLevels(width, height uint32) uint32 {
	m := width
	if height > m {
		m = height
	}
	if m == 0 {
		return 1
	}
	return uint32(bits.Len32(m))
}

// MipExtents returns the size of each of the first levels of a width x height image.
func MipExtents(width, height, levels uint32) []vk.Extent2D {
	ret := make([]vk.Extent2D, 0, levels)
	w, h := width, height
	for i := uint32(0); i < levels; i++ {
		ret = append(ret, vk.Extent2D{Width: w, Height: h})
		w, h = nextMipSize(w), nextMipSize(h)
	}
	return ret
}

func nextMipSize(s uint32) uint32 {
	if s > 1 {
		return s / 2
	}
	return 1
}
