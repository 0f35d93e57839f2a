/*
Package vkx manages GPU resident buffers and images on top of Vulkan for go. It owns the part of
a Vulkan program that is easiest to get subtly wrong: allocating and binding device memory,
moving data from the host into device local memory, keeping track of image layouts and
building mip chains.

Everything here is synchronous. Any call that needs the device records a single use command
buffer, submits it with a fence and waits for the fence before returning, so a resource handed
back by this package is immediately safe to read from or render with. That trades transfer
throughput for simplicity and is meant for initialization, not per frame work.

Native Vulkan terms
	PhysicalDevice	the physical hardware device, queried for memory types and format support
	Device		the logical device all resources are created on
	DeviceMemory	an allocation of memory on the host or device, owned by exactly one resource
	Buffer		a linear range of data (vertex, index, uniform, staging)
	Image		a 2D texel array with a mip chain, a view and a layout
	Layout		how the device currently interprets an image's memory
	Queue		a queue which command buffers may be submitted to
	CommandPool	where single use command buffers are allocated from

Resources

	HostVisibleBuffer	host visible, host coherent memory written by mapping
	DeviceLocalBuffer	device local memory written through a staging buffer
	HostVisibleImage	host visible image memory written by mapping
	LocalImage		device local image uploaded through staging, optionally mipmapped
	DepthImage		device local depth attachment, ready to use once created
	ResolveImage		device local multisampled color attachment

Every resource gets its own allocation; there is no sub allocator. Destroy releases the view,
handle and allocation and may be called more than once.

Layouts

Images remember the layout they were last moved to. LocalImage.TransitionLayout only accepts
the transitions the resource layer needs:

	Undefined          -> TransferDstOptimal
	TransferDstOptimal -> ShaderReadOnlyOptimal
	Undefined          -> DepthStencilAttachmentOptimal

and fails if the caller's idea of the current layout differs from the tracked one.

Native calls

All native calls go through a Driver. PhysicalDevice values built by Instance.PhysicalDevices
use the loaded Vulkan library; setting PhysicalDevice.Driver swaps in another implementation,
which is how the tests run without a GPU.

Logging goes through logrus, see Logger and SetLogger.
*/
package vkx
