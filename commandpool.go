package vkx

import (
	"sync"

	vk "github.com/vulkan-go/vulkan"
)

// CommandPool hands out primary command buffers. Allocation and free are serialized; recording
// into buffers of the same pool from several goroutines is still not supported.
type CommandPool struct {
	Device        *Device
	QueueFamily   *QueueFamily
	VKCommandPool vk.CommandPool

	mu sync.Mutex
}

func (d *Device) CreateCommandPool(q *QueueFamily) (*CommandPool, error) {
	commandPoolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit | vk.CommandPoolCreateTransientBit),
		QueueFamilyIndex: uint32(q.Index),
	}

	commandPool, err := d.driver().CreateCommandPool(d.VKDevice, &commandPoolCreateInfo)
	if err != nil {
		return nil, resourceError(err, "create command pool for queue family %d", q.Index)
	}

	return &CommandPool{Device: d, QueueFamily: q, VKCommandPool: commandPool}, nil
}

func (c *CommandPool) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.VKCommandPool == vk.NullCommandPool {
		return
	}
	c.Device.driver().DestroyCommandPool(c.Device.VKDevice, c.VKCommandPool)
	c.VKCommandPool = vk.NullCommandPool
}

func (c *CommandPool) AllocateBuffers(count int) ([]*CommandBuffer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	commandBufferAllocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        c.VKCommandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(count),
	}

	cmdBuffers, err := c.Device.driver().AllocateCommandBuffers(c.Device.VKDevice, &commandBufferAllocateInfo)
	if err != nil {
		return nil, resourceError(err, "allocate %d command buffers", count)
	}

	ret := make([]*CommandBuffer, count)
	for i := range ret {
		ret[i] = &CommandBuffer{Device: c.Device, VKCommandBuffer: cmdBuffers[i]}
	}
	return ret, nil
}

func (c *CommandPool) AllocateBuffer() (*CommandBuffer, error) {
	ret, err := c.AllocateBuffers(1)
	if err != nil {
		return nil, err
	}
	return ret[0], nil
}

func (c *CommandPool) FreeBuffers(bs []*CommandBuffer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := make([]vk.CommandBuffer, len(bs))
	for i := range bs {
		b[i] = bs[i].VKCommandBuffer
	}
	c.Device.driver().FreeCommandBuffers(c.Device.VKDevice, c.VKCommandPool, b)
}

func (c *CommandPool) FreeBuffer(b *CommandBuffer) {
	c.FreeBuffers([]*CommandBuffer{b})
}
