package vkx

import (
	"testing"

	"github.com/celer/vkx/internal/vkfake"
	"github.com/stretchr/testify/require"
)

var _ Driver = (*vkfake.Driver)(nil)

type rig struct {
	fake  *vkfake.Driver
	dev   *Device
	pool  *CommandPool
	queue *Queue
}

func newRig(t *testing.T) *rig {
	t.Helper()
	fake := vkfake.New()
	pd := &PhysicalDevice{
		DeviceName:       "simulated",
		VKPhysicalDevice: fake.PhysicalDevice(),
		Driver:           fake,
	}
	dev := NewDevice(pd, fake.Device())

	families := pd.QueueFamilies().FilterBlit()
	require.NotEmpty(t, families)

	pool, err := dev.CreateCommandPool(families[0])
	require.NoError(t, err)
	t.Cleanup(pool.Destroy)

	return &rig{fake: fake, dev: dev, pool: pool, queue: dev.GetQueue(families[0])}
}

func (r *rig) requireClean(t *testing.T) {
	t.Helper()
	require.Empty(t, r.fake.Violations())
}

func pattern(n int) []byte {
	ret := make([]byte, n)
	for i := range ret {
		ret[i] = byte(i*7 + 3)
	}
	return ret
}
