package vkx

import (
	"fmt"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// PhysicalDevice answers the memory-type and format queries the resource layer needs. Driver
// may be left nil, in which case the loaded Vulkan library is used.
type PhysicalDevice struct {
	DeviceName                 string
	VKPhysicalDevice           vk.PhysicalDevice
	VKPhysicalDeviceProperties vk.PhysicalDeviceProperties
	Driver                     Driver
}

func (p *PhysicalDevice) driver() Driver {
	if p.Driver == nil {
		return vulkanDriver{}
	}
	return p.Driver
}

func (p *PhysicalDevice) String() string {
	return p.DeviceName
}

func (p *PhysicalDevice) QueueFamilies() QueueFamilySlice {
	props := p.driver().GetPhysicalDeviceQueueFamilyProperties(p.VKPhysicalDevice)
	if len(props) == 0 {
		return nil
	}

	ret := make(QueueFamilySlice, len(props))
	for i, prop := range props {
		ret[i] = &QueueFamily{Index: i, PhysicalDevice: p, VKQueueFamilyProperties: prop}
	}
	return ret
}

type CreateDeviceOptions struct {
	EnabledExtensions []string
	EnabledLayers     []string
}

func (p *PhysicalDevice) CreateLogicalDeviceWithOptions(qfs QueueFamilySlice, options *CreateDeviceOptions) (*Device, error) {
	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(qfs))
	for j, q := range qfs {
		queueCreateInfos[j] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: uint32(q.Index),
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	deviceFeatures := p.VKPhysicalDeviceFeatures()

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: uint32(len(qfs)),
		PQueueCreateInfos:    queueCreateInfos,
		PEnabledFeatures:     []vk.PhysicalDeviceFeatures{deviceFeatures},
	}

	if options != nil {
		if options.EnabledExtensions != nil {
			deviceCreateInfo.EnabledExtensionCount = uint32(len(options.EnabledExtensions))
			deviceCreateInfo.PpEnabledExtensionNames = safeStrings(options.EnabledExtensions)
		}
		if options.EnabledLayers != nil {
			deviceCreateInfo.EnabledLayerCount = uint32(len(options.EnabledLayers))
			deviceCreateInfo.PpEnabledLayerNames = safeStrings(options.EnabledLayers)
		}
	}

	var ldevice vk.Device
	err := vk.Error(vk.CreateDevice(p.VKPhysicalDevice, &deviceCreateInfo, nil, &ldevice))
	if err != nil {
		return nil, resourceError(err, "create logical device on %s", p.DeviceName)
	}

	return NewDevice(p, ldevice), nil
}

func (p *PhysicalDevice) CreateLogicalDevice(qfs QueueFamilySlice) (*Device, error) {
	return p.CreateLogicalDeviceWithOptions(qfs, nil)
}

func (p *PhysicalDevice) VKPhysicalDeviceFeatures() vk.PhysicalDeviceFeatures {
	var deviceFeatures vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(p.VKPhysicalDevice, &deviceFeatures)
	return deviceFeatures
}

// MemoryHeaps lists the heaps backing the device's memory types.
func (p *PhysicalDevice) MemoryHeaps() []vk.MemoryHeap {
	var mp vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(p.VKPhysicalDevice, &mp)
	mp.Deref()

	ret := make([]vk.MemoryHeap, 0, mp.MemoryHeapCount)
	for i := uint32(0); i < mp.MemoryHeapCount; i++ {
		h := mp.MemoryHeaps[i]
		h.Deref()
		ret = append(ret, h)
	}
	return ret
}

type MemoryTypeSlice []vk.MemoryType

func (m MemoryTypeSlice) Filter(f func(properties vk.MemoryPropertyFlags) bool) MemoryTypeSlice {
	res := make(MemoryTypeSlice, 0)
	for i := 0; i < len(m); i++ {
		if f(m[i].PropertyFlags) {
			res = append(res, m[i])
		}
	}
	return res
}

func (m MemoryTypeSlice) NumWith(required vk.MemoryPropertyFlags) int {
	return len(m.Filter(func(properties vk.MemoryPropertyFlags) bool {
		return properties&required == required
	}))
}

func (m MemoryTypeSlice) NumHostVisibleAndCoherent() int {
	return m.NumWith(hostVisibleCoherent)
}

func (m MemoryTypeSlice) NumDeviceLocal() int {
	return m.NumWith(vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
}

func (p *PhysicalDevice) MemoryTypes() MemoryTypeSlice {
	return p.driver().GetPhysicalDeviceMemoryTypes(p.VKPhysicalDevice)
}

// FindMemoryType returns the lowest index among the device's memory types that is allowed by
// memoryTypeBits and carries every flag in properties.
func (p *PhysicalDevice) FindMemoryType(memoryTypeBits uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	return FindMemoryType(p.MemoryTypes(), memoryTypeBits, properties)
}

func (p *PhysicalDevice) FormatProperties(format vk.Format) vk.FormatProperties {
	return p.driver().GetPhysicalDeviceFormatProperties(p.VKPhysicalDevice, format)
}

// SupportsLinearBlit reports whether images of format in optimal tiling can be the source of a
// linear-filtered blit.
func (p *PhysicalDevice) SupportsLinearBlit(format vk.Format) bool {
	props := p.FormatProperties(format)
	return props.OptimalTilingFeatures&vk.FormatFeatureFlags(vk.FormatFeatureSampledImageFilterLinearBit) != 0
}

// FindSupportedFormat returns the first candidate whose tiling features include features.
func (p *PhysicalDevice) FindSupportedFormat(candidates []vk.Format, tiling vk.ImageTiling, features vk.FormatFeatureFlags) (vk.Format, error) {
	for _, format := range candidates {
		props := p.FormatProperties(format)
		switch {
		case tiling == vk.ImageTilingLinear && props.LinearTilingFeatures&features == features:
			return format, nil
		case tiling == vk.ImageTilingOptimal && props.OptimalTilingFeatures&features == features:
			return format, nil
		}
	}
	return vk.FormatUndefined, errors.Errorf("none of %d candidate formats supports features %#x", len(candidates), features)
}

func (p *PhysicalDevice) SupportedExtensions() ([]vk.ExtensionProperties, error) {
	var count uint32
	err := vk.Error(vk.EnumerateDeviceExtensionProperties(p.VKPhysicalDevice, "", &count, nil))
	if err != nil {
		return nil, err
	}

	ext := make([]vk.ExtensionProperties, count)
	err = vk.Error(vk.EnumerateDeviceExtensionProperties(p.VKPhysicalDevice, "", &count, ext))
	if err != nil {
		return nil, err
	}
	for i := range ext {
		ext[i].Deref()
	}
	return ext, nil
}

func (p *PhysicalDevice) ExtensionSupported(name string) (bool, error) {
	return p.AllExtensionsSupported(name)
}

func (p *PhysicalDevice) AllExtensionsSupported(names ...string) (bool, error) {
	ext, err := p.SupportedExtensions()
	if err != nil {
		return false, err
	}
	available := make([]string, len(ext))
	for i := range ext {
		available[i] = vk.ToString(ext[i].ExtensionName[:])
	}
	return containsAll(available, names), nil
}

// Describe renders the device name, type and API version in one line.
func (p *PhysicalDevice) Describe() string {
	props := p.VKPhysicalDeviceProperties
	v := uint32(props.ApiVersion)
	return fmt.Sprintf("%s (type %d, api %d.%d.%d)", p.DeviceName, props.DeviceType, v>>22, (v>>12)&0x3ff, v&0xfff)
}
