package vkx

import (
	"bytes"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestContainsAll(t *testing.T) {
	have := []string{"VK_KHR_swapchain", "VK_KHR_maintenance1"}
	require.True(t, containsAll(have, nil))
	require.True(t, containsAll(have, []string{"VK_KHR_maintenance1"}))
	require.False(t, containsAll(have, []string{"VK_KHR_maintenance1", "VK_EXT_debug_utils"}))
	require.False(t, containsAll(nil, []string{"VK_KHR_swapchain"}))
}

func TestSafeStrings(t *testing.T) {
	in := []string{"a", "b\x00", ""}
	out := safeStrings(in)
	require.Equal(t, []string{"a\x00", "b\x00", "\x00"}, out)
	require.Equal(t, "a", in[0])
}

func TestByteSources(t *testing.T) {
	require.Nil(t, Uint16Slice(nil).Bytes())
	require.Nil(t, Uint32Slice{}.Bytes())
	require.Nil(t, Float32Slice(nil).Bytes())
	require.Nil(t, ToBytes(nil, 0))

	require.Len(t, Uint16Slice{1, 2, 3}.Bytes(), 6)
	require.Len(t, Uint32Slice{1, 2, 3}.Bytes(), 12)
	require.Len(t, Float32Slice{1, 2}.Bytes(), 8)

	sources := []ByteSource{Uint16Slice{1}, Uint32Slice{1}, Float32Slice{1}}
	for _, s := range sources {
		require.NotEmpty(t, s.Bytes())
	}
}

func TestErrorKinds(t *testing.T) {
	err := resourceError(io.ErrUnexpectedEOF, "create %s", "thing")
	require.ErrorIs(t, err, ErrResourceCreation)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	require.NotErrorIs(t, err, ErrCommandSubmission)
	require.Contains(t, err.Error(), "create thing")

	err = submitError(vk.Error(vk.ErrorDeviceLost), "submit")
	require.ErrorIs(t, err, ErrCommandSubmission)

	require.Equal(t, ErrOutOfRange, kindError(ErrOutOfRange, nil))
}

func TestLogging(t *testing.T) {
	defer SetLogger(nil)

	require.Error(t, SetLogLevel("chatty"))
	require.NoError(t, SetLogLevel("debug"))
	require.Equal(t, logrus.DebugLevel, Logger().GetLevel())

	var out bytes.Buffer
	l := logrus.New()
	l.SetOutput(&out)
	l.SetLevel(logrus.DebugLevel)
	SetLogger(l)

	r := newRig(t)
	b, err := r.dev.CreateHostVisibleBuffer(2048, vertexUsage, vk.SharingModeExclusive, nil)
	require.NoError(t, err)
	b.Destroy()
	require.Contains(t, out.String(), "buffer created")
	require.Contains(t, out.String(), "2KiB")

	SetLogger(nil)
	require.Equal(t, logrus.InfoLevel, Logger().GetLevel())
}
