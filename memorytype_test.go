package vkx

import (
	"testing"

	"github.com/celer/vkx/internal/vkfake"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestFindMemoryType(t *testing.T) {
	types := vkfake.DefaultMemoryTypes()

	idx, err := FindMemoryType(types, 0b111, hostVisibleCoherent)
	require.NoError(t, err)
	require.Equal(t, uint32(1), idx)

	idx, err = FindMemoryType(types, 0b100, hostVisibleCoherent)
	require.NoError(t, err)
	require.Equal(t, uint32(2), idx)

	idx, err = FindMemoryType(types, 0b111, deviceLocal)
	require.NoError(t, err)
	require.Equal(t, uint32(0), idx)

	idx, err = FindMemoryType(types, 0b111, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(0), idx)
}

func TestFindMemoryTypeNone(t *testing.T) {
	types := vkfake.DefaultMemoryTypes()

	_, err := FindMemoryType(types, 0b001, hostVisibleCoherent)
	require.ErrorIs(t, err, ErrNoSuitableMemoryType)

	_, err = FindMemoryType(types, 0, deviceLocal)
	require.ErrorIs(t, err, ErrNoSuitableMemoryType)

	_, err = FindMemoryType(nil, 0xffffffff, 0)
	require.ErrorIs(t, err, ErrNoSuitableMemoryType)
}

func TestMemoryTypeSlice(t *testing.T) {
	r := newRig(t)
	types := r.dev.PhysicalDevice.MemoryTypes()
	require.Len(t, types, 3)
	require.Equal(t, 2, types.NumHostVisibleAndCoherent())
	require.Equal(t, 1, types.NumDeviceLocal())
	require.Equal(t, 1, types.NumWith(vk.MemoryPropertyFlags(vk.MemoryPropertyHostCachedBit)))
}
