package vkx

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

type layoutPair struct {
	from, to vk.ImageLayout
}

type transition struct {
	srcAccess vk.AccessFlags
	dstAccess vk.AccessFlags
	srcStage  vk.PipelineStageFlags
	dstStage  vk.PipelineStageFlags
	depth     bool
}

// transitions is the complete set of whole-image layout changes the resource layer performs.
var transitions = map[layoutPair]transition{
	{vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal}: {
		srcAccess: 0,
		dstAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
		srcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		dstStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
	},
	{vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal}: {
		srcAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
		dstAccess: vk.AccessFlags(vk.AccessShaderReadBit),
		srcStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		dstStage:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
	},
	{vk.ImageLayoutUndefined, vk.ImageLayoutDepthStencilAttachmentOptimal}: {
		srcAccess: 0,
		dstAccess: vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit),
		srcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		dstStage:  vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit),
		depth:     true,
	},
}

// HasStencilComponent reports whether format carries a stencil aspect alongside depth.
func HasStencilComponent(format vk.Format) bool {
	return format == vk.FormatD32SfloatS8Uint || format == vk.FormatD24UnormS8Uint
}

// layoutBarrier builds the barrier moving every mip level of img from one layout to another.
func layoutBarrier(img *Image, from, to vk.ImageLayout) (vk.ImageMemoryBarrier, transition, error) {
	t, ok := transitions[layoutPair{from, to}]
	if !ok {
		return vk.ImageMemoryBarrier{}, t, errors.Wrapf(ErrUnsupportedLayoutTransition, "%d -> %d", from, to)
	}

	aspect := vk.ImageAspectFlags(vk.ImageAspectColorBit)
	if t.depth {
		aspect = vk.ImageAspectFlags(vk.ImageAspectDepthBit)
		if HasStencilComponent(img.info.Format) {
			aspect |= vk.ImageAspectFlags(vk.ImageAspectStencilBit)
		}
	}

	return vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       t.srcAccess,
		DstAccessMask:       t.dstAccess,
		OldLayout:           from,
		NewLayout:           to,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               img.VKImage,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     img.info.MipLevels,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}, t, nil
}

// mipBarrier builds a color barrier over levels [base, base+count).
func mipBarrier(img *Image, base, count uint32, from, to vk.ImageLayout, srcAccess, dstAccess vk.AccessFlags) vk.ImageMemoryBarrier {
	return vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       srcAccess,
		DstAccessMask:       dstAccess,
		OldLayout:           from,
		NewLayout:           to,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               img.VKImage,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   base,
			LevelCount:     count,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
}
