package vkx

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// DeviceLocalBuffer lives in device-local memory. The host reaches it only through
// transient staging buffers and one-shot copies.
type DeviceLocalBuffer struct {
	*Buffer
}

// CreateDeviceLocalBuffer creates an uninitialized device-local buffer. Transfer-destination
// usage is always added.
func (d *Device) CreateDeviceLocalBuffer(size uint64, usage vk.BufferUsageFlags, sharing vk.SharingMode) (*DeviceLocalBuffer, error) {
	usage |= vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)
	buffer, err := d.CreateBuffer(size, usage, deviceLocal, sharing)
	if err != nil {
		return nil, err
	}
	return &DeviceLocalBuffer{Buffer: buffer}, nil
}

// CreateDeviceLocalBufferWithData creates a device-local buffer sized to src and uploads src
// into it before returning.
func (d *Device) CreateDeviceLocalBufferWithData(pool *CommandPool, queue *Queue, usage vk.BufferUsageFlags, src []byte) (*DeviceLocalBuffer, error) {
	b, err := d.CreateDeviceLocalBuffer(uint64(len(src)), usage, vk.SharingModeExclusive)
	if err != nil {
		return nil, err
	}
	if err := b.Set(pool, queue, src); err != nil {
		b.Destroy()
		return nil, err
	}
	return b, nil
}

// Set uploads src to the start of the buffer through a staging buffer that is destroyed once
// the copy has completed.
func (b *DeviceLocalBuffer) Set(pool *CommandPool, queue *Queue, src []byte) error {
	if b.Destroyed() {
		return ErrDestroyed
	}
	if uint64(len(src)) > b.Size {
		return errors.Wrapf(ErrOutOfRange, "%d bytes into %d byte buffer", len(src), b.Size)
	}
	if len(src) == 0 {
		return nil
	}

	staging, err := b.Device.CreateStagingBuffer(src)
	if err != nil {
		return errors.Wrap(err, "staging buffer")
	}
	defer staging.Destroy()

	return b.CopyFrom(pool, queue, staging.Buffer, uint64(len(src)))
}

// ReadBack copies the whole buffer into a host buffer and returns its contents. The buffer
// must have been created with transfer-source usage.
func (b *DeviceLocalBuffer) ReadBack(pool *CommandPool, queue *Queue) ([]byte, error) {
	if b.Destroyed() {
		return nil, ErrDestroyed
	}
	if b.Usage&vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit) == 0 {
		return nil, errors.Wrap(ErrMissingUsage, "read back requires transfer source usage")
	}

	readback, err := b.Device.CreateHostVisibleBuffer(b.Size, vk.BufferUsageFlags(vk.BufferUsageTransferDstBit), vk.SharingModeExclusive, nil)
	if err != nil {
		return nil, errors.Wrap(err, "read back buffer")
	}
	defer readback.Destroy()

	if err := readback.CopyFrom(pool, queue, b.Buffer, b.Size); err != nil {
		return nil, err
	}
	return readback.Bytes()
}
