package vkx

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// Buffer owns a native buffer and the single allocation bound to it at offset 0.
type Buffer struct {
	Device   *Device
	VKBuffer vk.Buffer
	Memory   *DeviceMemory
	Size     uint64
	Usage    vk.BufferUsageFlags
	Sharing  vk.SharingMode
}

// CreateBuffer creates a buffer of size bytes backed by a fresh allocation with
// memoryProperties. On failure nothing is left allocated.
func (d *Device) CreateBuffer(size uint64, usage vk.BufferUsageFlags, memoryProperties vk.MemoryPropertyFlags, sharing vk.SharingMode) (*Buffer, error) {
	if size == 0 {
		return nil, errors.Wrap(ErrResourceCreation, "buffer size must be greater than zero")
	}

	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: sharing,
	}

	drv := d.driver()
	buffer, err := drv.CreateBuffer(d.VKDevice, &bufferCreateInfo)
	if err != nil {
		return nil, resourceError(err, "create buffer of %s", sizeField(vk.DeviceSize(size)))
	}

	memory, err := d.AllocateFor(drv.GetBufferMemoryRequirements(d.VKDevice, buffer), memoryProperties)
	if err != nil {
		drv.DestroyBuffer(d.VKDevice, buffer)
		return nil, err
	}

	if err := drv.BindBufferMemory(d.VKDevice, buffer, memory.VKDeviceMemory, 0); err != nil {
		memory.Free()
		drv.DestroyBuffer(d.VKDevice, buffer)
		return nil, resourceError(err, "bind buffer memory")
	}

	Logger().WithFields(logrus.Fields{
		"size":       sizeField(vk.DeviceSize(size)),
		"usage":      usage,
		"memoryType": memory.TypeIndex,
	}).Debug("buffer created")

	return &Buffer{
		Device:   d,
		VKBuffer: buffer,
		Memory:   memory,
		Size:     size,
		Usage:    usage,
		Sharing:  sharing,
	}, nil
}

// VK returns the native buffer handle for binding by the render loop.
func (b *Buffer) VK() vk.Buffer {
	return b.VKBuffer
}

// Destroyed reports whether Destroy has been called.
func (b *Buffer) Destroyed() bool {
	return b.VKBuffer == vk.NullBuffer
}

// DSInfo describes the whole buffer for a descriptor write starting at offset.
func (b *Buffer) DSInfo(offset uint64) vk.DescriptorBufferInfo {
	return vk.DescriptorBufferInfo{
		Buffer: b.VKBuffer,
		Offset: vk.DeviceSize(offset),
		Range:  vk.DeviceSize(b.Size - offset),
	}
}

// CopyFrom copies size bytes from the start of src into the start of b on queue and waits
// for the copy to finish. src needs transfer-source usage and b transfer-destination usage.
func (b *Buffer) CopyFrom(pool *CommandPool, queue *Queue, src *Buffer, size uint64) error {
	if b.Destroyed() || src.Destroyed() {
		return ErrDestroyed
	}
	if size > src.Size || size > b.Size {
		return errors.Wrapf(ErrOutOfRange, "copy of %d bytes from %d into %d byte buffer", size, src.Size, b.Size)
	}
	if size == 0 {
		return nil
	}
	return ExecuteOnce(pool, queue, func(cb *CommandBuffer) error {
		cb.CmdCopyBuffer(src, b, size)
		return nil
	})
}

// Destroy releases the handle and its allocation. Calling it again does nothing.
func (b *Buffer) Destroy() {
	if b.Destroyed() {
		return
	}
	b.Device.driver().DestroyBuffer(b.Device.VKDevice, b.VKBuffer)
	b.VKBuffer = vk.NullBuffer
	b.Memory.Free()
	Logger().WithField("size", sizeField(vk.DeviceSize(b.Size))).Debug("buffer destroyed")
}
