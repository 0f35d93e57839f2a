package vkx

import (
	"image"
	"image/draw"

	vk "github.com/vulkan-go/vulkan"
)

// CreateTextureFromImage uploads src as an R8G8B8A8 sampled texture. With mipmapped set the
// full mip chain is generated on the device.
func (d *Device) CreateTextureFromImage(pool *CommandPool, queue *Queue, src image.Image, mipmapped bool) (*LocalImage, error) {
	b := src.Bounds()
	rgba, ok := src.(*image.RGBA)
	if !ok || rgba.Stride != 4*b.Dx() || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
	}

	info := ImageInfo{
		Format:    vk.FormatR8g8b8a8Unorm,
		Width:     uint32(b.Dx()),
		Height:    uint32(b.Dy()),
		MipLevels: 1,
		Usage:     vk.ImageUsageFlags(vk.ImageUsageSampledBit),
	}
	if mipmapped {
		info.MipLevels = ComputeMaxMipLevels(info.Width, info.Height)
	}
	return d.CreateLocalImageWithData(pool, queue, info, rgba.Pix[:4*b.Dx()*b.Dy()])
}
