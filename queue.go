package vkx

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

type Queue struct {
	Device      *Device
	QueueFamily *QueueFamily
	VKQueue     vk.Queue
}

func (q *Queue) WaitIdle() error {
	return q.Device.driver().QueueWaitIdle(q.VKQueue)
}

// SubmitWithFence submits buffers in a single batch without semaphores; fence is signaled
// when the batch completes.
func (q *Queue) SubmitWithFence(fence *Fence, buffers ...*CommandBuffer) error {
	b := make([]vk.CommandBuffer, len(buffers))
	for i := range buffers {
		b[i] = buffers[i].VKCommandBuffer
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: uint32(len(b)),
		PCommandBuffers:    b,
	}

	vkFence := vk.NullFence
	if fence != nil {
		vkFence = fence.VKFence
	}
	return q.Device.driver().QueueSubmit(q.VKQueue, []vk.SubmitInfo{submitInfo}, vkFence)
}

func (q *Queue) String() string {
	return fmt.Sprintf("{Device: %s QueueFamily: %s}", q.Device.String(), q.QueueFamily.String())
}
