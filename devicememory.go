package vkx

import (
	"sync/atomic"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// DeviceMemory maps to Vulkan DeviceMemory and can either be memory on the host or on the
// device. Each allocation belongs to exactly one Buffer or Image and is freed with it.
type DeviceMemory struct {
	Device         *Device
	VKDeviceMemory vk.DeviceMemory
	Size           uint64
	TypeIndex      uint32
	MapCount       int32
	Ptr            unsafe.Pointer
}

// Allocate reserves size bytes from the lowest memory type allowed by memoryTypeBits that
// has memoryProperties.
func (d *Device) Allocate(size uint64, memoryTypeBits uint32, memoryProperties vk.MemoryPropertyFlags) (*DeviceMemory, error) {
	typeIndex, err := d.PhysicalDevice.FindMemoryType(memoryTypeBits, memoryProperties)
	if err != nil {
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(size),
		MemoryTypeIndex: typeIndex,
	}

	mem, err := d.driver().AllocateMemory(d.VKDevice, &allocateInfo)
	if err != nil {
		return nil, resourceError(err, "allocate %s from memory type %d", sizeField(vk.DeviceSize(size)), typeIndex)
	}

	Logger().WithFields(logrus.Fields{
		"size":       sizeField(vk.DeviceSize(size)),
		"memoryType": typeIndex,
	}).Debug("device memory allocated")

	return &DeviceMemory{
		Device:         d,
		VKDeviceMemory: mem,
		Size:           size,
		TypeIndex:      typeIndex,
	}, nil
}

// AllocateFor allocates memory satisfying reqs.
func (d *Device) AllocateFor(reqs vk.MemoryRequirements, memoryProperties vk.MemoryPropertyFlags) (*DeviceMemory, error) {
	return d.Allocate(uint64(reqs.Size), reqs.MemoryTypeBits, memoryProperties)
}

// IsMapped returns true if the device memory is currently mapped
func (d *DeviceMemory) IsMapped() bool {
	return atomic.LoadInt32(&d.MapCount) > 0
}

// Freed reports whether Free has released the allocation.
func (d *DeviceMemory) Freed() bool {
	return d.VKDeviceMemory == vk.NullDeviceMemory
}

// Free releases the allocation. Further calls do nothing.
func (d *DeviceMemory) Free() {
	if d.Freed() {
		return
	}
	if d.IsMapped() {
		d.Unmap()
	}
	d.Device.driver().FreeMemory(d.Device.VKDevice, d.VKDeviceMemory)
	d.VKDeviceMemory = vk.NullDeviceMemory
	Logger().WithField("size", sizeField(vk.DeviceSize(d.Size))).Debug("device memory freed")
}

// MapWithOffset will map the memory with a certain size and offset
func (d *DeviceMemory) MapWithOffset(size uint64, offset uint64) (unsafe.Pointer, error) {
	if d.Freed() {
		return nil, ErrDestroyed
	}
	res, err := d.Device.driver().MapMemory(d.Device.VKDevice, d.VKDeviceMemory, vk.DeviceSize(offset), vk.DeviceSize(size))
	if err != nil {
		return nil, errors.Wrapf(err, "map %d bytes at offset %d", size, offset)
	}
	atomic.AddInt32(&d.MapCount, 1)
	d.Ptr = res
	return res, nil
}

// Map will map the entirety of this memory
func (d *DeviceMemory) Map() (unsafe.Pointer, error) {
	return d.MapWithOffset(d.Size, 0)
}

// Unmap this memory
func (d *DeviceMemory) Unmap() {
	d.Ptr = nil
	d.Device.driver().UnmapMemory(d.Device.VKDevice, d.VKDeviceMemory)
	atomic.AddInt32(&d.MapCount, -1)
}

func (d *DeviceMemory) checkRange(offset uint64, n int) error {
	if offset > d.Size || uint64(n) > d.Size-offset {
		return errors.Wrapf(ErrOutOfRange, "%d bytes at offset %d of %d", n, offset, d.Size)
	}
	return nil
}

// Write maps the whole allocation, copies data to offset and unmaps.
func (d *DeviceMemory) Write(offset uint64, data []byte) error {
	if err := d.checkRange(offset, len(data)); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	pm, err := d.Map()
	if err != nil {
		return err
	}
	defer d.Unmap()

	copy(ToBytes(pm, int(d.Size))[offset:], data)
	return nil
}

// Read maps the whole allocation and copies len(dst) bytes starting at offset into dst.
func (d *DeviceMemory) Read(offset uint64, dst []byte) error {
	if err := d.checkRange(offset, len(dst)); err != nil {
		return err
	}
	if len(dst) == 0 {
		return nil
	}
	pm, err := d.Map()
	if err != nil {
		return err
	}
	defer d.Unmap()

	copy(dst, ToBytes(pm, int(d.Size))[offset:])
	return nil
}
