package vkx

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// Device is the logical device every resource is created on. It is shared read-only by all
// resources; nothing here mutates device-global state after creation.
type Device struct {
	PhysicalDevice *PhysicalDevice
	VKDevice       vk.Device
}

// NewDevice wraps a logical device created by the caller. Native calls go through the
// physical device's Driver.
func NewDevice(pd *PhysicalDevice, device vk.Device) *Device {
	return &Device{PhysicalDevice: pd, VKDevice: device}
}

func (d *Device) driver() Driver {
	return d.PhysicalDevice.driver()
}

func (d *Device) Destroy() {
	d.driver().DestroyDevice(d.VKDevice)
}

func (d *Device) String() string {
	return fmt.Sprintf("{ PhysicalDevice: %s }", d.PhysicalDevice)
}

func (d *Device) WaitIdle() error {
	return d.driver().DeviceWaitIdle(d.VKDevice)
}

func (d *Device) GetQueue(qf *QueueFamily) *Queue {
	vkq := d.driver().GetDeviceQueue(d.VKDevice, uint32(qf.Index), 0)
	return &Queue{Device: d, QueueFamily: qf, VKQueue: vkq}
}
