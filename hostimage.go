package vkx

import (
	vk "github.com/vulkan-go/vulkan"
)

// HostVisibleImage is an image in host-visible, host-coherent memory written by mapping. It
// is meant for linear tiling where the host layout of texels is well defined.
type HostVisibleImage struct {
	*Image
}

// CreateHostVisibleImage creates the image and, when src is non-nil, writes it at offset 0.
func (d *Device) CreateHostVisibleImage(info ImageInfo, aspect vk.ImageAspectFlags, src []byte) (*HostVisibleImage, error) {
	img, err := d.CreateImage(info, hostVisibleCoherent, aspect)
	if err != nil {
		return nil, err
	}
	h := &HostVisibleImage{Image: img}

	if src != nil {
		if err := h.Set(0, src); err != nil {
			h.Destroy()
			return nil, err
		}
	}
	return h, nil
}

// Set copies src into the image memory starting at offset.
func (h *HostVisibleImage) Set(offset uint64, src []byte) error {
	if h.Destroyed() {
		return ErrDestroyed
	}
	return h.Memory.Write(offset, src)
}

// Read copies the image memory starting at offset into dst.
func (h *HostVisibleImage) Read(offset uint64, dst []byte) error {
	if h.Destroyed() {
		return ErrDestroyed
	}
	return h.Memory.Read(offset, dst)
}
