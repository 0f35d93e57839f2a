package vkx

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

var (
	vertexUsage  = vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit)
	transferSrc  = vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit)
	errSimulated = errors.New("simulated failure")
)

func TestHostVisibleBufferRoundTrip(t *testing.T) {
	r := newRig(t)
	data := pattern(16)

	b, err := r.dev.CreateHostVisibleBuffer(16, vertexUsage, vk.SharingModeExclusive, data)
	require.NoError(t, err)
	defer b.Destroy()

	got, err := b.Bytes()
	require.NoError(t, err)
	require.Equal(t, data, got)

	require.NoError(t, b.Set(4, []byte{9, 9, 9, 9}))
	part := make([]byte, 6)
	require.NoError(t, b.Read(2, part))
	require.Equal(t, []byte{data[2], data[3], 9, 9, 9, 9}, part)

	require.False(t, b.Memory.IsMapped())
	r.requireClean(t)
}

func TestHostVisibleBufferOutOfRange(t *testing.T) {
	r := newRig(t)
	b, err := r.dev.CreateHostVisibleBuffer(16, vertexUsage, vk.SharingModeExclusive, nil)
	require.NoError(t, err)
	defer b.Destroy()

	require.ErrorIs(t, b.Set(14, []byte{1, 2, 3, 4}), ErrOutOfRange)
	require.ErrorIs(t, b.Set(17, nil), ErrOutOfRange)
	require.ErrorIs(t, b.Read(0, make([]byte, 17)), ErrOutOfRange)
	require.NoError(t, b.Set(16, nil))
	require.NoError(t, b.Set(12, []byte{1, 2, 3, 4}))
	r.requireClean(t)
}

func TestHostVisibleBufferSetFrom(t *testing.T) {
	r := newRig(t)
	indices := Uint16Slice{0, 1, 2, 2, 3, 0}

	b, err := r.dev.CreateHostVisibleBuffer(12, vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit), vk.SharingModeExclusive, nil)
	require.NoError(t, err)
	defer b.Destroy()

	require.NoError(t, b.SetFrom(0, indices))
	got, err := b.Bytes()
	require.NoError(t, err)
	require.Equal(t, indices.Bytes(), got)
}

func TestCreateBufferRejectsZeroSize(t *testing.T) {
	r := newRig(t)
	_, err := r.dev.CreateBuffer(0, vertexUsage, hostVisibleCoherent, vk.SharingModeExclusive)
	require.ErrorIs(t, err, ErrResourceCreation)
	require.Zero(t, r.fake.Live().Buffers)
}

func TestCreateBufferUnwinds(t *testing.T) {
	t.Run("allocation", func(t *testing.T) {
		r := newRig(t)
		r.fake.FailNext("AllocateMemory", errSimulated)
		_, err := r.dev.CreateHostVisibleBuffer(64, vertexUsage, vk.SharingModeExclusive, nil)
		require.ErrorIs(t, err, ErrResourceCreation)
		require.ErrorIs(t, err, errSimulated)
		require.Zero(t, r.fake.Live().Buffers)
		require.Zero(t, r.fake.Live().Memories)
	})

	t.Run("memory type", func(t *testing.T) {
		r := newRig(t)
		r.fake.BufferTypeBits = 0b001
		_, err := r.dev.CreateHostVisibleBuffer(64, vertexUsage, vk.SharingModeExclusive, nil)
		require.ErrorIs(t, err, ErrNoSuitableMemoryType)
		require.Zero(t, r.fake.Live().Buffers)
	})

	t.Run("bind", func(t *testing.T) {
		r := newRig(t)
		r.fake.FailNext("BindBufferMemory", errSimulated)
		_, err := r.dev.CreateDeviceLocalBuffer(64, vertexUsage, vk.SharingModeExclusive)
		require.ErrorIs(t, err, ErrResourceCreation)
		require.Zero(t, r.fake.Live().Buffers)
		require.Zero(t, r.fake.Live().Memories)
		r.requireClean(t)
	})

	t.Run("initial write", func(t *testing.T) {
		r := newRig(t)
		r.fake.FailNext("MapMemory", errSimulated)
		_, err := r.dev.CreateHostVisibleBuffer(8, vertexUsage, vk.SharingModeExclusive, pattern(8))
		require.ErrorIs(t, err, errSimulated)
		require.Zero(t, r.fake.Live().Buffers)
		require.Zero(t, r.fake.Live().Memories)
	})
}

func TestDeviceLocalBufferUploadAndReadBack(t *testing.T) {
	r := newRig(t)
	vertices := Float32Slice{0, 0.5, -0.5, -0.5, 0.5, -0.5}

	b, err := r.dev.CreateDeviceLocalBufferWithData(r.pool, r.queue, vertexUsage|transferSrc, vertices.Bytes())
	require.NoError(t, err)
	defer b.Destroy()

	require.Equal(t, uint64(24), b.Size)
	require.NotZero(t, b.Usage&vk.BufferUsageFlags(vk.BufferUsageTransferDstBit))
	require.Equal(t, 1, r.fake.Live().Buffers, "staging buffer must be gone")
	require.Equal(t, 1, r.fake.Submissions())

	got, err := b.ReadBack(r.pool, r.queue)
	require.NoError(t, err)
	require.Equal(t, vertices.Bytes(), got)

	require.Equal(t, 1, r.fake.Live().Buffers)
	require.Zero(t, r.fake.Live().CommandBuffers)
	require.Zero(t, r.fake.Live().Fences)
	r.requireClean(t)
}

func TestDeviceLocalBufferSetChecks(t *testing.T) {
	r := newRig(t)
	b, err := r.dev.CreateDeviceLocalBuffer(8, vertexUsage, vk.SharingModeExclusive)
	require.NoError(t, err)

	require.ErrorIs(t, b.Set(r.pool, r.queue, pattern(9)), ErrOutOfRange)
	require.NoError(t, b.Set(r.pool, r.queue, nil))
	require.Zero(t, r.fake.Submissions())

	_, err = b.ReadBack(r.pool, r.queue)
	require.ErrorIs(t, err, ErrMissingUsage)

	b.Destroy()
	require.ErrorIs(t, b.Set(r.pool, r.queue, pattern(4)), ErrDestroyed)
	r.requireClean(t)
}

func TestBufferDestroyIsIdempotent(t *testing.T) {
	r := newRig(t)
	b, err := r.dev.CreateHostVisibleBuffer(32, vertexUsage, vk.SharingModeExclusive, nil)
	require.NoError(t, err)

	b.Destroy()
	b.Destroy()
	require.True(t, b.Destroyed())
	require.True(t, b.Memory.Freed())
	require.Equal(t, 1, r.fake.Frees())
	require.Zero(t, r.fake.Live().Buffers)

	_, err = b.Bytes()
	require.ErrorIs(t, err, ErrDestroyed)
	r.requireClean(t)
}

func TestBufferCopyFrom(t *testing.T) {
	r := newRig(t)
	src, err := r.dev.CreateStagingBuffer(pattern(32))
	require.NoError(t, err)
	defer src.Destroy()

	dst, err := r.dev.CreateHostVisibleBuffer(16, vk.BufferUsageFlags(vk.BufferUsageTransferDstBit), vk.SharingModeExclusive, nil)
	require.NoError(t, err)
	defer dst.Destroy()
	require.True(t, src.VK() != dst.VK())
	require.True(t, src.Memory.VKDeviceMemory != dst.Memory.VKDeviceMemory)

	require.ErrorIs(t, dst.CopyFrom(r.pool, r.queue, src.Buffer, 32), ErrOutOfRange)
	require.NoError(t, dst.CopyFrom(r.pool, r.queue, src.Buffer, 0))
	require.Zero(t, r.fake.Submissions())

	require.NoError(t, dst.CopyFrom(r.pool, r.queue, src.Buffer, 16))
	got, err := dst.Bytes()
	require.NoError(t, err)
	require.Equal(t, pattern(32)[:16], got)
	r.requireClean(t)
}

func TestBufferDSInfo(t *testing.T) {
	r := newRig(t)
	b, err := r.dev.CreateHostVisibleBuffer(64, vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit), vk.SharingModeExclusive, nil)
	require.NoError(t, err)
	defer b.Destroy()

	info := b.DSInfo(16)
	require.True(t, b.VK() == info.Buffer)
	require.Equal(t, vk.DeviceSize(16), info.Offset)
	require.Equal(t, vk.DeviceSize(48), info.Range)
}
