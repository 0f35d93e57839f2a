package vkx

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// LocalImage is an image in device-local memory. Its contents arrive through staging buffers
// and one-shot transfers, after which it is left in the shader read-only layout.
type LocalImage struct {
	*Image
}

// CreateLocalImage creates an uninitialized device-local image in the undefined layout.
// Transfer-destination usage is always added, and transfer-source usage too when the image
// has more than one mip level.
func (d *Device) CreateLocalImage(info ImageInfo, aspect vk.ImageAspectFlags) (*LocalImage, error) {
	info = info.withDefaults()
	info.Usage |= vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)
	if info.MipLevels > 1 {
		info.Usage |= vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit)
	}

	img, err := d.CreateImage(info, deviceLocal, aspect)
	if err != nil {
		return nil, err
	}
	return &LocalImage{Image: img}, nil
}

// CreateLocalImageWithData creates a device-local color image and uploads src into it, see Set.
func (d *Device) CreateLocalImageWithData(pool *CommandPool, queue *Queue, info ImageInfo, src []byte) (*LocalImage, error) {
	l, err := d.CreateLocalImage(info, vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if err != nil {
		return nil, err
	}
	if err := l.Set(pool, queue, src); err != nil {
		l.Destroy()
		return nil, err
	}
	return l, nil
}

// Set uploads src, tightly packed texels of the base level, and leaves the image in the
// shader read-only layout. The base level is blitted down the mip chain when there is one.
// The image must still be in the undefined layout.
//
// When mip generation is needed and the format cannot be linearly blitted,
// ErrUnsupportedBlitFormat is returned before anything is submitted.
func (l *LocalImage) Set(pool *CommandPool, queue *Queue, src []byte) error {
	if l.Destroyed() {
		return ErrDestroyed
	}
	if len(src) == 0 {
		return errors.Wrap(ErrOutOfRange, "no texel data to upload")
	}
	mipmapped := l.info.MipLevels > 1
	if mipmapped {
		if err := l.checkBlitSupport(); err != nil {
			return err
		}
	}

	if err := l.TransitionLayout(pool, queue, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal); err != nil {
		return err
	}

	staging, err := l.Device.CreateStagingBuffer(src)
	if err != nil {
		return errors.Wrap(err, "staging buffer")
	}
	defer staging.Destroy()

	if err := l.CopyFromBuffer(pool, queue, staging.Buffer); err != nil {
		return err
	}

	if mipmapped {
		return l.GenerateMipmaps(pool, queue)
	}
	return l.TransitionLayout(pool, queue, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
}

// CopyFromBuffer copies the base level from src, which must hold tightly packed texels. The
// image must be in the transfer destination layout.
func (l *LocalImage) CopyFromBuffer(pool *CommandPool, queue *Queue, src *Buffer) error {
	if l.Destroyed() || src.Destroyed() {
		return ErrDestroyed
	}
	if l.layout != vk.ImageLayoutTransferDstOptimal {
		return errors.Wrapf(ErrLayoutMismatch, "copy into image in layout %d", l.layout)
	}
	return ExecuteOnce(pool, queue, func(cb *CommandBuffer) error {
		cb.CmdCopyBufferToImage(src, l.Image)
		return nil
	})
}

// TransitionLayout moves every mip level from oldLayout to newLayout. Only the pairs of the
// transition table are accepted, and oldLayout must be the layout the image is in. The
// tracked layout changes only when the transition has completed.
func (l *LocalImage) TransitionLayout(pool *CommandPool, queue *Queue, oldLayout, newLayout vk.ImageLayout) error {
	if l.Destroyed() {
		return ErrDestroyed
	}
	barrier, t, err := layoutBarrier(l.Image, oldLayout, newLayout)
	if err != nil {
		return err
	}
	if oldLayout != l.layout {
		return errors.Wrapf(ErrLayoutMismatch, "transition from %d, image is in %d", oldLayout, l.layout)
	}

	err = ExecuteOnce(pool, queue, func(cb *CommandBuffer) error {
		cb.CmdImageBarrier(t.srcStage, t.dstStage, barrier)
		return nil
	})
	if err != nil {
		return err
	}

	l.layout = newLayout
	Logger().WithFields(logrus.Fields{
		"from": oldLayout,
		"to":   newLayout,
	}).Debug("image layout transitioned")
	return nil
}

func (l *LocalImage) checkBlitSupport() error {
	if !l.Device.PhysicalDevice.SupportsLinearBlit(l.info.Format) {
		return errors.Wrapf(ErrUnsupportedBlitFormat, "format %d", l.info.Format)
	}
	return nil
}

// GenerateMipmaps fills levels 1 and up by successive linear blits from the level above and
// leaves every level in the shader read-only layout. The image must be in the transfer
// destination layout with its base level written.
func (l *LocalImage) GenerateMipmaps(pool *CommandPool, queue *Queue) error {
	if l.Destroyed() {
		return ErrDestroyed
	}
	if err := l.checkBlitSupport(); err != nil {
		return err
	}
	if l.layout != vk.ImageLayoutTransferDstOptimal {
		return errors.Wrapf(ErrLayoutMismatch, "generate mipmaps from layout %d", l.layout)
	}

	levels := l.info.MipLevels
	transferWrite := vk.AccessFlags(vk.AccessTransferWriteBit)
	transferRead := vk.AccessFlags(vk.AccessTransferReadBit)
	transfer := vk.PipelineStageFlags(vk.PipelineStageTransferBit)

	err := ExecuteOnce(pool, queue, func(cb *CommandBuffer) error {
		w, h := int32(l.info.Width), int32(l.info.Height)

		for i := uint32(1); i < levels; i++ {
			pw, ph := w, h
			if w > 1 {
				w /= 2
			}
			if h > 1 {
				h /= 2
			}

			cb.CmdImageBarrier(transfer, transfer,
				mipBarrier(l.Image, i-1, 1, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutTransferSrcOptimal, transferWrite, transferRead))

			cb.CmdBlitImage(l.Image, vk.ImageLayoutTransferSrcOptimal, l.Image, vk.ImageLayoutTransferDstOptimal, vk.FilterLinear, vk.ImageBlit{
				SrcSubresource: vk.ImageSubresourceLayers{
					AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
					MipLevel:       i - 1,
					BaseArrayLayer: 0,
					LayerCount:     1,
				},
				SrcOffsets: [2]vk.Offset3D{{X: 0, Y: 0, Z: 0}, {X: pw, Y: ph, Z: 1}},
				DstSubresource: vk.ImageSubresourceLayers{
					AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
					MipLevel:       i,
					BaseArrayLayer: 0,
					LayerCount:     1,
				},
				DstOffsets: [2]vk.Offset3D{{X: 0, Y: 0, Z: 0}, {X: w, Y: h, Z: 1}},
			})
		}

		// The last level was only ever written; bring it in line with the others so the
		// whole chain moves to shader read-only in one barrier.
		cb.CmdImageBarrier(transfer, transfer,
			mipBarrier(l.Image, levels-1, 1, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutTransferSrcOptimal, transferWrite, transferRead))

		cb.CmdImageBarrier(transfer, vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
			mipBarrier(l.Image, 0, levels, vk.ImageLayoutTransferSrcOptimal, vk.ImageLayoutShaderReadOnlyOptimal, transferRead, vk.AccessFlags(vk.AccessShaderReadBit)))
		return nil
	})
	if err != nil {
		return err
	}

	l.layout = vk.ImageLayoutShaderReadOnlyOptimal
	Logger().WithField("mipLevels", levels).Debug("mipmaps generated")
	return nil
}
