package vkx

import (
	vk "github.com/vulkan-go/vulkan"
)

// CommandBuffer records transfer work. Only the commands the resource layer needs are
// wrapped; VK exposes the native handle for anything else.
type CommandBuffer struct {
	Device          *Device
	VKCommandBuffer vk.CommandBuffer
}

// VK is a utility function for accessing the native vulkan command buffer
func (c *CommandBuffer) VK() vk.CommandBuffer {
	return c.VKCommandBuffer
}

func (c *CommandBuffer) driver() Driver {
	return c.Device.driver()
}

// BeginOneTime begins capturing work for this command buffer, with the stipulation that it
// will only be submitted once.
func (c *CommandBuffer) BeginOneTime() error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	return c.driver().BeginCommandBuffer(c.VKCommandBuffer, &beginInfo)
}

// End describing work for this command buffer
func (c *CommandBuffer) End() error {
	return c.driver().EndCommandBuffer(c.VKCommandBuffer)
}

// CmdCopyBuffer copies size bytes from the start of src to the start of dst.
func (c *CommandBuffer) CmdCopyBuffer(src, dst *Buffer, size uint64) {
	c.driver().CmdCopyBuffer(c.VKCommandBuffer, src.VKBuffer, dst.VKBuffer, []vk.BufferCopy{{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      vk.DeviceSize(size),
	}})
}

// CmdCopyBufferToImage copies tightly packed texels from src into the base level of dst,
// which must be in the transfer destination layout.
func (c *CommandBuffer) CmdCopyBufferToImage(src *Buffer, dst *Image) {
	info := dst.Info()
	c.driver().CmdCopyBufferToImage(c.VKCommandBuffer, src.VKBuffer, dst.VKImage, vk.ImageLayoutTransferDstOptimal, []vk.BufferImageCopy{{
		BufferOffset:      0,
		BufferRowLength:   0,
		BufferImageHeight: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     dst.Aspect,
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageOffset: vk.Offset3D{X: 0, Y: 0, Z: 0},
		ImageExtent: vk.Extent3D{Width: info.Width, Height: info.Height, Depth: 1},
	}})
}

func (c *CommandBuffer) CmdImageBarrier(srcStage, dstStage vk.PipelineStageFlags, barriers ...vk.ImageMemoryBarrier) {
	c.driver().CmdPipelineBarrier(c.VKCommandBuffer, srcStage, dstStage, barriers)
}

func (c *CommandBuffer) CmdBlitImage(src *Image, srcLayout vk.ImageLayout, dst *Image, dstLayout vk.ImageLayout, filter vk.Filter, regions ...vk.ImageBlit) {
	c.driver().CmdBlitImage(c.VKCommandBuffer, src.VKImage, srcLayout, dst.VKImage, dstLayout, regions, filter)
}
