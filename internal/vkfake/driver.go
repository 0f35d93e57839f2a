// Package vkfake is an in-memory stand-in for a Vulkan device. It implements the vkx Driver
// seam: memory lives in Go slices, recorded transfer commands run on submit, and image layouts
// are tracked per mip level so misuse shows up in Violations.
package vkfake

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Counts tallies the objects currently alive on the device.
type Counts struct {
	Buffers        int
	Images         int
	Views          int
	Memories       int
	Fences         int
	CommandBuffers int
	CommandPools   int
}

// Barrier is an executed image memory barrier.
type Barrier struct {
	Image     vk.Image
	Old, New  vk.ImageLayout
	BaseLevel uint32
	Levels    uint32
	Aspect    vk.ImageAspectFlags
	SrcAccess vk.AccessFlags
	DstAccess vk.AccessFlags
	SrcStage  vk.PipelineStageFlags
	DstStage  vk.PipelineStageFlags
}

// Blit is an executed image blit.
type Blit struct {
	SrcLevel, DstLevel uint32
	SrcExtent          [2]int32
	DstExtent          [2]int32
	Filter             vk.Filter
}

type memory struct {
	data      []byte
	typeIndex uint32
	mapped    bool
}

type buffer struct {
	size   uint64
	usage  vk.BufferUsageFlags
	mem    *memory
	offset uint64
}

type image struct {
	format       vk.Format
	width        uint32
	height       uint32
	levels       uint32
	usage        vk.ImageUsageFlags
	bpp          uint64
	layouts      []vk.ImageLayout
	levelOffsets []uint64
	size         uint64
	mem          *memory
	offset       uint64
}

type view struct {
	image vk.Image
	rng   vk.ImageSubresourceRange
}

const (
	cbInitial = iota
	cbRecording
	cbExecutable
)

type cmdBuffer struct {
	pool     vk.CommandPool
	state    int
	flags    vk.CommandBufferUsageFlags
	commands []func()
}

type fence struct {
	signaled bool
}

// Driver simulates one physical device with one logical device.
type Driver struct {
	mu sync.Mutex

	memoryTypes   []vk.MemoryType
	formats       map[vk.Format]vk.FormatProperties
	queueFamilies []vk.QueueFamilyProperties

	// BufferTypeBits and ImageTypeBits restrict the memory types reported in requirements.
	// Zero allows every type.
	BufferTypeBits uint32
	ImageTypeBits  uint32

	failures map[string]error

	physicalDevice vk.PhysicalDevice
	device         vk.Device
	queues         map[uint32]vk.Queue

	buffers  map[vk.Buffer]*buffer
	images   map[vk.Image]*image
	views    map[vk.ImageView]*view
	memories map[vk.DeviceMemory]*memory
	pools    map[vk.CommandPool]bool
	cmds     map[vk.CommandBuffer]*cmdBuffer
	fences   map[vk.Fence]*fence

	submissions int
	frees       int
	barriers    []Barrier
	blits       []Blit
	violations  []string
}

// DefaultMemoryTypes is what New reports: device local first, then two host visible types.
func DefaultMemoryTypes() []vk.MemoryType {
	return []vk.MemoryType{
		{PropertyFlags: vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit), HeapIndex: 0},
		{PropertyFlags: vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit), HeapIndex: 1},
		{PropertyFlags: vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit | vk.MemoryPropertyHostCachedBit), HeapIndex: 1},
	}
}

// LinearBlitFeatures are the optimal tiling features of a color format that can be mipmapped.
var LinearBlitFeatures = vk.FormatFeatureFlags(vk.FormatFeatureSampledImageBit |
	vk.FormatFeatureSampledImageFilterLinearBit |
	vk.FormatFeatureBlitSrcBit |
	vk.FormatFeatureBlitDstBit)

// New returns a device with DefaultMemoryTypes, a single graphics/compute/transfer queue
// family, linear-blittable 8 bit RGBA formats, an integer RGBA format without linear
// filtering and the common depth formats.
func New() *Driver {
	d := &Driver{
		memoryTypes: DefaultMemoryTypes(),
		formats: map[vk.Format]vk.FormatProperties{
			vk.FormatR8g8b8a8Unorm:    {OptimalTilingFeatures: LinearBlitFeatures, LinearTilingFeatures: LinearBlitFeatures},
			vk.FormatR8g8b8a8Srgb:     {OptimalTilingFeatures: LinearBlitFeatures},
			vk.FormatR32g32b32a32Sint: {OptimalTilingFeatures: vk.FormatFeatureFlags(vk.FormatFeatureSampledImageBit | vk.FormatFeatureBlitSrcBit | vk.FormatFeatureBlitDstBit)},
			vk.FormatD32Sfloat:        {OptimalTilingFeatures: vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)},
			vk.FormatD32SfloatS8Uint:  {OptimalTilingFeatures: vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)},
			vk.FormatD24UnormS8Uint:   {OptimalTilingFeatures: vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)},
		},
		queueFamilies: []vk.QueueFamilyProperties{
			{QueueFlags: vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueComputeBit | vk.QueueTransferBit), QueueCount: 1},
		},
		failures: map[string]error{},
		queues:   map[uint32]vk.Queue{},
		buffers:  map[vk.Buffer]*buffer{},
		images:   map[vk.Image]*image{},
		views:    map[vk.ImageView]*view{},
		memories: map[vk.DeviceMemory]*memory{},
		pools:    map[vk.CommandPool]bool{},
		cmds:     map[vk.CommandBuffer]*cmdBuffer{},
		fences:   map[vk.Fence]*fence{},
	}
	d.physicalDevice = vk.PhysicalDevice(d.handle())
	d.device = vk.Device(d.handle())
	return d
}

// handle mints a unique non-nil pointer usable as any handle type.
func (d *Driver) handle() unsafe.Pointer {
	return newHandle()
}

func (d *Driver) violate(format string, args ...interface{}) {
	d.violations = append(d.violations, fmt.Sprintf(format, args...))
}

func (d *Driver) fail(method string) error {
	if err, ok := d.failures[method]; ok {
		delete(d.failures, method)
		return err
	}
	return nil
}

// FailNext makes the next call of the named Driver method return err.
func (d *Driver) FailNext(method string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[method] = err
}

// SetMemoryTypes replaces the memory types the physical device reports.
func (d *Driver) SetMemoryTypes(types ...vk.MemoryType) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.memoryTypes = append([]vk.MemoryType(nil), types...)
}

// SetFormatProperties replaces the features reported for format.
func (d *Driver) SetFormatProperties(format vk.Format, props vk.FormatProperties) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.formats[format] = props
}

// SetQueueFamilies replaces the queue families the physical device reports.
func (d *Driver) SetQueueFamilies(families ...vk.QueueFamilyProperties) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queueFamilies = append([]vk.QueueFamilyProperties(nil), families...)
}

func (d *Driver) PhysicalDevice() vk.PhysicalDevice { return d.physicalDevice }

func (d *Driver) Device() vk.Device { return d.device }

// Submissions is the number of QueueSubmit calls that executed.
func (d *Driver) Submissions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.submissions
}

// Frees is the number of FreeMemory calls on live allocations.
func (d *Driver) Frees() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frees
}

func (d *Driver) Barriers() []Barrier {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Barrier(nil), d.barriers...)
}

func (d *Driver) Blits() []Blit {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Blit(nil), d.blits...)
}

// Violations lists every misuse the device noticed: wrong layouts, missing usage flags,
// out of bounds copies, double frees and the like.
func (d *Driver) Violations() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.violations...)
}

func (d *Driver) Live() Counts {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Counts{
		Buffers:        len(d.buffers),
		Images:         len(d.images),
		Views:          len(d.views),
		Memories:       len(d.memories),
		Fences:         len(d.fences),
		CommandBuffers: len(d.cmds),
		CommandPools:   len(d.pools),
	}
}

// Layouts returns the current layout of each mip level of img.
func (d *Driver) Layouts(img vk.Image) []vk.ImageLayout {
	d.mu.Lock()
	defer d.mu.Unlock()
	i, ok := d.images[img]
	if !ok {
		return nil
	}
	return append([]vk.ImageLayout(nil), i.layouts...)
}

// Level returns a copy of the texels of one mip level of img.
func (d *Driver) Level(img vk.Image, level uint32) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	i, ok := d.images[img]
	if !ok || i.mem == nil || level >= i.levels {
		return nil
	}
	w, h := mipSize(i.width, level), mipSize(i.height, level)
	start := i.offset + i.levelOffsets[level]
	return append([]byte(nil), i.mem.data[start:start+uint64(w)*uint64(h)*i.bpp]...)
}

// ViewRange returns the subresource range a view was created with.
func (d *Driver) ViewRange(v vk.ImageView) (vk.ImageSubresourceRange, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	iv, ok := d.views[v]
	if !ok {
		return vk.ImageSubresourceRange{}, false
	}
	return iv.rng, true
}

func mipSize(s, level uint32) uint32 {
	s >>= level
	if s == 0 {
		return 1
	}
	return s
}

func align(v, a uint64) uint64 {
	return (v + a - 1) / a * a
}

func bytesPerTexel(f vk.Format) uint64 {
	switch f {
	case vk.FormatR8Unorm:
		return 1
	case vk.FormatR8g8Unorm:
		return 2
	case vk.FormatD32SfloatS8Uint:
		return 8
	case vk.FormatR32g32b32a32Sfloat, vk.FormatR32g32b32a32Sint:
		return 16
	default:
		return 4
	}
}

func isDepthFormat(f vk.Format) bool {
	switch f {
	case vk.FormatD16Unorm, vk.FormatD32Sfloat, vk.FormatD32SfloatS8Uint, vk.FormatD24UnormS8Uint:
		return true
	}
	return false
}

func hasStencil(f vk.Format) bool {
	return f == vk.FormatD32SfloatS8Uint || f == vk.FormatD24UnormS8Uint
}

func (d *Driver) typeBits(restrict uint32) uint32 {
	all := uint32(1)<<uint(len(d.memoryTypes)) - 1
	if restrict == 0 {
		return all
	}
	return all & restrict
}

func (d *Driver) checkDevice(device vk.Device) {
	if device != d.device {
		d.violate("call on unknown device")
	}
}

var errUnknownHandle = errors.New("unknown handle")
