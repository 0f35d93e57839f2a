package vkx

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// HostVisibleBuffer lives in host-visible, host-coherent memory and is written by mapping.
// Writes need no flush to become visible to the device.
type HostVisibleBuffer struct {
	*Buffer
}

// CreateHostVisibleBuffer creates a mappable buffer. When src is non-nil it is written at
// offset 0 before returning.
func (d *Device) CreateHostVisibleBuffer(size uint64, usage vk.BufferUsageFlags, sharing vk.SharingMode, src []byte) (*HostVisibleBuffer, error) {
	buffer, err := d.CreateBuffer(size, usage, hostVisibleCoherent, sharing)
	if err != nil {
		return nil, err
	}
	h := &HostVisibleBuffer{Buffer: buffer}

	if src != nil {
		if err := h.Set(0, src); err != nil {
			h.Destroy()
			return nil, err
		}
	}
	return h, nil
}

// CreateStagingBuffer creates a transfer-source host buffer holding src.
func (d *Device) CreateStagingBuffer(src []byte) (*HostVisibleBuffer, error) {
	return d.CreateHostVisibleBuffer(uint64(len(src)), vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit), vk.SharingModeExclusive, src)
}

func (h *HostVisibleBuffer) checkRange(offset uint64, n int) error {
	if h.Destroyed() {
		return ErrDestroyed
	}
	if offset > h.Size || uint64(n) > h.Size-offset {
		return errors.Wrapf(ErrOutOfRange, "%d bytes at offset %d of %d byte buffer", n, offset, h.Size)
	}
	return nil
}

// Set copies src into the buffer starting at offset.
func (h *HostVisibleBuffer) Set(offset uint64, src []byte) error {
	if err := h.checkRange(offset, len(src)); err != nil {
		return err
	}
	return h.Memory.Write(offset, src)
}

// SetFrom copies the bytes of src into the buffer starting at offset.
func (h *HostVisibleBuffer) SetFrom(offset uint64, src ByteSource) error {
	return h.Set(offset, src.Bytes())
}

// Read fills dst with the buffer contents starting at offset.
func (h *HostVisibleBuffer) Read(offset uint64, dst []byte) error {
	if err := h.checkRange(offset, len(dst)); err != nil {
		return err
	}
	return h.Memory.Read(offset, dst)
}

// Bytes returns a copy of the whole buffer.
func (h *HostVisibleBuffer) Bytes() ([]byte, error) {
	if h.Destroyed() {
		return nil, ErrDestroyed
	}
	ret := make([]byte, h.Size)
	if err := h.Read(0, ret); err != nil {
		return nil, err
	}
	return ret, nil
}
