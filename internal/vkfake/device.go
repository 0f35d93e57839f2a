package vkfake

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

func (d *Driver) GetPhysicalDeviceMemoryTypes(pd vk.PhysicalDevice) []vk.MemoryType {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]vk.MemoryType(nil), d.memoryTypes...)
}

func (d *Driver) GetPhysicalDeviceFormatProperties(pd vk.PhysicalDevice, format vk.Format) vk.FormatProperties {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.formats[format]
}

func (d *Driver) GetPhysicalDeviceQueueFamilyProperties(pd vk.PhysicalDevice) []vk.QueueFamilyProperties {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]vk.QueueFamilyProperties(nil), d.queueFamilies...)
}

func (d *Driver) DestroyDevice(device vk.Device) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.checkDevice(device)
}

func (d *Driver) DeviceWaitIdle(device vk.Device) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.checkDevice(device)
	return d.fail("DeviceWaitIdle")
}

func (d *Driver) GetDeviceQueue(device vk.Device, family, index uint32) vk.Queue {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.checkDevice(device)
	if int(family) >= len(d.queueFamilies) {
		d.violate("queue family %d does not exist", family)
	}
	q, ok := d.queues[family]
	if !ok {
		q = vk.Queue(d.handle())
		d.queues[family] = q
	}
	return q
}

func (d *Driver) CreateBuffer(device vk.Device, info *vk.BufferCreateInfo) (vk.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.checkDevice(device)
	if err := d.fail("CreateBuffer"); err != nil {
		return vk.NullBuffer, err
	}
	if info.Size == 0 {
		d.violate("buffer created with size 0")
	}
	h := vk.Buffer(d.handle())
	d.buffers[h] = &buffer{size: uint64(info.Size), usage: info.Usage}
	return h, nil
}

func (d *Driver) DestroyBuffer(device vk.Device, b vk.Buffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.buffers[b]; !ok {
		d.violate("destroy of unknown buffer")
		return
	}
	delete(d.buffers, b)
}

func (d *Driver) GetBufferMemoryRequirements(device vk.Device, b vk.Buffer) vk.MemoryRequirements {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf, ok := d.buffers[b]
	if !ok {
		d.violate("requirements of unknown buffer")
		return vk.MemoryRequirements{}
	}
	return vk.MemoryRequirements{
		Size:           vk.DeviceSize(align(buf.size, 16)),
		Alignment:      16,
		MemoryTypeBits: d.typeBits(d.BufferTypeBits),
	}
}

func (d *Driver) bindCheck(mem vk.DeviceMemory, offset, size uint64) (*memory, error) {
	m, ok := d.memories[mem]
	if !ok {
		return nil, errors.Wrap(errUnknownHandle, "bind to unknown memory")
	}
	if offset+size > uint64(len(m.data)) {
		d.violate("binding of %d bytes at %d exceeds allocation of %d", size, offset, len(m.data))
		return nil, errors.New("allocation too small")
	}
	return m, nil
}

func (d *Driver) BindBufferMemory(device vk.Device, b vk.Buffer, mem vk.DeviceMemory, offset vk.DeviceSize) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("BindBufferMemory"); err != nil {
		return err
	}
	buf, ok := d.buffers[b]
	if !ok {
		return errors.Wrap(errUnknownHandle, "bind unknown buffer")
	}
	if buf.mem != nil {
		d.violate("buffer bound twice")
	}
	m, err := d.bindCheck(mem, uint64(offset), buf.size)
	if err != nil {
		return err
	}
	buf.mem, buf.offset = m, uint64(offset)
	return nil
}

func (d *Driver) CreateImage(device vk.Device, info *vk.ImageCreateInfo) (vk.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.checkDevice(device)
	if err := d.fail("CreateImage"); err != nil {
		return vk.NullImage, err
	}
	if info.Extent.Width == 0 || info.Extent.Height == 0 || info.MipLevels == 0 {
		d.violate("image created with extent %dx%d and %d levels", info.Extent.Width, info.Extent.Height, info.MipLevels)
	}
	if info.InitialLayout != vk.ImageLayoutUndefined && info.InitialLayout != vk.ImageLayoutPreinitialized {
		d.violate("image created in layout %d", info.InitialLayout)
	}

	img := &image{
		format: info.Format,
		width:  info.Extent.Width,
		height: info.Extent.Height,
		levels: info.MipLevels,
		usage:  info.Usage,
		bpp:    bytesPerTexel(info.Format),
	}
	for l := uint32(0); l < img.levels; l++ {
		img.layouts = append(img.layouts, info.InitialLayout)
		img.levelOffsets = append(img.levelOffsets, img.size)
		img.size += uint64(mipSize(img.width, l)) * uint64(mipSize(img.height, l)) * img.bpp
	}

	h := vk.Image(d.handle())
	d.images[h] = img
	return h, nil
}

func (d *Driver) DestroyImage(device vk.Device, i vk.Image) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.images[i]; !ok {
		d.violate("destroy of unknown image")
		return
	}
	for _, v := range d.views {
		if v.image == i {
			d.violate("image destroyed while a view of it is alive")
			break
		}
	}
	delete(d.images, i)
}

func (d *Driver) GetImageMemoryRequirements(device vk.Device, i vk.Image) vk.MemoryRequirements {
	d.mu.Lock()
	defer d.mu.Unlock()
	img, ok := d.images[i]
	if !ok {
		d.violate("requirements of unknown image")
		return vk.MemoryRequirements{}
	}
	return vk.MemoryRequirements{
		Size:           vk.DeviceSize(align(img.size, 256)),
		Alignment:      256,
		MemoryTypeBits: d.typeBits(d.ImageTypeBits),
	}
}

func (d *Driver) BindImageMemory(device vk.Device, i vk.Image, mem vk.DeviceMemory, offset vk.DeviceSize) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("BindImageMemory"); err != nil {
		return err
	}
	img, ok := d.images[i]
	if !ok {
		return errors.Wrap(errUnknownHandle, "bind unknown image")
	}
	if img.mem != nil {
		d.violate("image bound twice")
	}
	m, err := d.bindCheck(mem, uint64(offset), img.size)
	if err != nil {
		return err
	}
	img.mem, img.offset = m, uint64(offset)
	return nil
}

func (d *Driver) CreateImageView(device vk.Device, info *vk.ImageViewCreateInfo) (vk.ImageView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("CreateImageView"); err != nil {
		return vk.NullImageView, err
	}
	img, ok := d.images[info.Image]
	if !ok {
		return vk.NullImageView, errors.Wrap(errUnknownHandle, "view of unknown image")
	}
	if img.mem == nil {
		d.violate("view created on unbound image")
	}
	rng := info.SubresourceRange
	if rng.BaseMipLevel+rng.LevelCount > img.levels {
		d.violate("view covers levels [%d,%d) of a %d level image", rng.BaseMipLevel, rng.BaseMipLevel+rng.LevelCount, img.levels)
	}
	h := vk.ImageView(d.handle())
	d.views[h] = &view{image: info.Image, rng: rng}
	return h, nil
}

func (d *Driver) DestroyImageView(device vk.Device, v vk.ImageView) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.views[v]; !ok {
		d.violate("destroy of unknown image view")
		return
	}
	delete(d.views, v)
}

func (d *Driver) AllocateMemory(device vk.Device, info *vk.MemoryAllocateInfo) (vk.DeviceMemory, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.checkDevice(device)
	if err := d.fail("AllocateMemory"); err != nil {
		return vk.NullDeviceMemory, err
	}
	if int(info.MemoryTypeIndex) >= len(d.memoryTypes) {
		return vk.NullDeviceMemory, errors.Errorf("memory type %d does not exist", info.MemoryTypeIndex)
	}
	h := vk.DeviceMemory(d.handle())
	d.memories[h] = &memory{data: make([]byte, info.AllocationSize), typeIndex: info.MemoryTypeIndex}
	return h, nil
}

func (d *Driver) FreeMemory(device vk.Device, mem vk.DeviceMemory) {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.memories[mem]
	if !ok {
		d.violate("free of unknown or already freed memory")
		return
	}
	if m.mapped {
		d.violate("memory freed while mapped")
	}
	delete(d.memories, mem)
	d.frees++
}

func (d *Driver) MapMemory(device vk.Device, mem vk.DeviceMemory, offset, size vk.DeviceSize) (unsafe.Pointer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("MapMemory"); err != nil {
		return nil, err
	}
	m, ok := d.memories[mem]
	if !ok {
		return nil, errors.Wrap(errUnknownHandle, "map unknown memory")
	}
	flags := d.memoryTypes[m.typeIndex].PropertyFlags
	if flags&vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit) == 0 {
		d.violate("map of memory type %d which is not host visible", m.typeIndex)
		return nil, errors.New("memory is not host visible")
	}
	if m.mapped {
		d.violate("memory mapped twice")
		return nil, errors.New("memory already mapped")
	}
	if size == 0 || uint64(offset)+uint64(size) > uint64(len(m.data)) {
		d.violate("map of %d bytes at %d exceeds allocation of %d", size, offset, len(m.data))
		return nil, errors.New("map out of range")
	}
	m.mapped = true
	return unsafe.Pointer(&m.data[offset]), nil
}

func (d *Driver) UnmapMemory(device vk.Device, mem vk.DeviceMemory) {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.memories[mem]
	if !ok || !m.mapped {
		d.violate("unmap of memory that is not mapped")
		return
	}
	m.mapped = false
}
