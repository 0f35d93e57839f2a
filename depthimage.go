package vkx

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

var depthFormatCandidates = []vk.Format{
	vk.FormatD32Sfloat,
	vk.FormatD32SfloatS8Uint,
	vk.FormatD24UnormS8Uint,
}

// FindDepthFormat picks the first depth format the device can use as an optimally tiled
// depth/stencil attachment.
func (p *PhysicalDevice) FindDepthFormat() (vk.Format, error) {
	return p.FindSupportedFormat(depthFormatCandidates, vk.ImageTilingOptimal,
		vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit))
}

// DepthImage is a device-local depth attachment. It is ready for use as soon as it is
// created.
type DepthImage struct {
	*LocalImage
}

// CreateDepthImage creates a depth image and transitions it to the depth/stencil attachment
// layout. Depth/stencil attachment usage is always added.
func (d *Device) CreateDepthImage(pool *CommandPool, queue *Queue, info ImageInfo) (*DepthImage, error) {
	info.Usage |= vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit)
	l, err := d.CreateLocalImage(info, vk.ImageAspectFlags(vk.ImageAspectDepthBit))
	if err != nil {
		return nil, err
	}

	err = l.TransitionLayout(pool, queue, vk.ImageLayoutUndefined, vk.ImageLayoutDepthStencilAttachmentOptimal)
	if err != nil {
		l.Destroy()
		return nil, errors.Wrap(err, "depth image")
	}
	return &DepthImage{LocalImage: l}, nil
}

// ResolveImage is a device-local multisampled color attachment. Its layout is left to the
// render pass that uses it.
type ResolveImage struct {
	*LocalImage
}

// CreateResolveImage creates a color attachment with info.Samples samples. Color attachment
// usage is always added.
func (d *Device) CreateResolveImage(info ImageInfo) (*ResolveImage, error) {
	info.Usage |= vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
	l, err := d.CreateLocalImage(info, vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if err != nil {
		return nil, err
	}
	return &ResolveImage{LocalImage: l}, nil
}
