package vkx

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

var (
	hostVisibleCoherent = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	deviceLocal         = vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
)

// FindMemoryType returns the lowest index i such that bit i of typeBits is set and
// types[i] carries every flag in required.
//
// See the documentation of VkPhysicalDeviceMemoryProperties for how the type bits map onto
// the memory type array.
func FindMemoryType(types []vk.MemoryType, typeBits uint32, required vk.MemoryPropertyFlags) (uint32, error) {
	for i := range types {
		if i >= 32 {
			break
		}
		if typeBits&(1<<uint(i)) != 0 && types[i].PropertyFlags&required == required {
			return uint32(i), nil
		}
	}
	return 0, errors.Wrapf(ErrNoSuitableMemoryType, "type bits %#b, properties %#x", typeBits, required)
}
