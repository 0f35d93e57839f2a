package vkx

import (
	"math"
	"time"

	vk "github.com/vulkan-go/vulkan"
)

// WaitForever makes WaitForFences block until the fences signal.
const WaitForever time.Duration = -1

type Fence struct {
	Device  *Device
	VKFence vk.Fence
}

func (d *Device) CreateFence(signaled bool) (*Fence, error) {
	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	fence, err := d.driver().CreateFence(d.VKDevice, &fenceCreateInfo)
	if err != nil {
		return nil, resourceError(err, "create fence")
	}
	return &Fence{Device: d, VKFence: fence}, nil
}

// WaitForFences blocks until one or all of fences signal, or ts elapses. WaitForever
// disables the timeout.
func (d *Device) WaitForFences(waitForAll bool, ts time.Duration, fences ...*Fence) error {
	f := make([]vk.Fence, len(fences))
	for i := range fences {
		f[i] = fences[i].VKFence
	}

	timeout := uint64(math.MaxUint64)
	if ts >= 0 {
		timeout = uint64(ts.Nanoseconds())
	}
	return d.driver().WaitForFences(d.VKDevice, f, waitForAll, timeout)
}

func (f *Fence) Destroy() {
	if f.VKFence == vk.NullFence {
		return
	}
	f.Device.driver().DestroyFence(f.Device.VKDevice, f.VKFence)
	f.VKFence = vk.NullFence
}
