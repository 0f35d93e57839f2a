package vkfake

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

func (d *Driver) CreateCommandPool(device vk.Device, info *vk.CommandPoolCreateInfo) (vk.CommandPool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.checkDevice(device)
	if err := d.fail("CreateCommandPool"); err != nil {
		return vk.NullCommandPool, err
	}
	if int(info.QueueFamilyIndex) >= len(d.queueFamilies) {
		return vk.NullCommandPool, errors.Errorf("queue family %d does not exist", info.QueueFamilyIndex)
	}
	h := vk.CommandPool(d.handle())
	d.pools[h] = true
	return h, nil
}

func (d *Driver) DestroyCommandPool(device vk.Device, pool vk.CommandPool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.pools[pool] {
		d.violate("destroy of unknown command pool")
		return
	}
	for h, cb := range d.cmds {
		if cb.pool == pool {
			delete(d.cmds, h)
		}
	}
	delete(d.pools, pool)
}

func (d *Driver) AllocateCommandBuffers(device vk.Device, info *vk.CommandBufferAllocateInfo) ([]vk.CommandBuffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("AllocateCommandBuffers"); err != nil {
		return nil, err
	}
	if !d.pools[info.CommandPool] {
		return nil, errors.Wrap(errUnknownHandle, "allocate from unknown command pool")
	}
	ret := make([]vk.CommandBuffer, info.CommandBufferCount)
	for i := range ret {
		ret[i] = vk.CommandBuffer(d.handle())
		d.cmds[ret[i]] = &cmdBuffer{pool: info.CommandPool, state: cbInitial}
	}
	return ret, nil
}

func (d *Driver) FreeCommandBuffers(device vk.Device, pool vk.CommandPool, buffers []vk.CommandBuffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, b := range buffers {
		cb, ok := d.cmds[b]
		if !ok {
			d.violate("free of unknown command buffer")
			continue
		}
		if cb.pool != pool {
			d.violate("command buffer freed to a pool it was not allocated from")
		}
		delete(d.cmds, b)
	}
}

func (d *Driver) BeginCommandBuffer(b vk.CommandBuffer, info *vk.CommandBufferBeginInfo) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("BeginCommandBuffer"); err != nil {
		return err
	}
	cb, ok := d.cmds[b]
	if !ok {
		return errors.Wrap(errUnknownHandle, "begin unknown command buffer")
	}
	if cb.state != cbInitial {
		d.violate("begin on a command buffer that is not in the initial state")
	}
	cb.state = cbRecording
	cb.flags = info.Flags
	cb.commands = nil
	return nil
}

func (d *Driver) EndCommandBuffer(b vk.CommandBuffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("EndCommandBuffer"); err != nil {
		return err
	}
	cb, ok := d.cmds[b]
	if !ok {
		return errors.Wrap(errUnknownHandle, "end unknown command buffer")
	}
	if cb.state != cbRecording {
		return errors.New("command buffer is not recording")
	}
	cb.state = cbExecutable
	return nil
}

func (d *Driver) CreateFence(device vk.Device, info *vk.FenceCreateInfo) (vk.Fence, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.checkDevice(device)
	if err := d.fail("CreateFence"); err != nil {
		return vk.NullFence, err
	}
	h := vk.Fence(d.handle())
	d.fences[h] = &fence{signaled: info.Flags&vk.FenceCreateFlags(vk.FenceCreateSignaledBit) != 0}
	return h, nil
}

func (d *Driver) DestroyFence(device vk.Device, f vk.Fence) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.fences[f]; !ok {
		d.violate("destroy of unknown fence")
		return
	}
	delete(d.fences, f)
}

// WaitForFences never blocks: work runs inside QueueSubmit, so an unsignaled fence here can
// only mean it was never submitted.
func (d *Driver) WaitForFences(device vk.Device, fences []vk.Fence, waitAll bool, timeout uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("WaitForFences"); err != nil {
		return err
	}
	signaled := 0
	for _, h := range fences {
		f, ok := d.fences[h]
		if !ok {
			return errors.Wrap(errUnknownHandle, "wait on unknown fence")
		}
		if f.signaled {
			signaled++
		}
	}
	if (waitAll && signaled < len(fences)) || (!waitAll && signaled == 0) {
		if timeout == 0 {
			return errors.New("timeout")
		}
		d.violate("wait on a fence that will never be signaled")
		return errors.New("fence will never be signaled")
	}
	return nil
}

func (d *Driver) QueueSubmit(queue vk.Queue, submits []vk.SubmitInfo, f vk.Fence) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("QueueSubmit"); err != nil {
		return err
	}

	var fc *fence
	if f != vk.NullFence {
		var ok bool
		if fc, ok = d.fences[f]; !ok {
			return errors.Wrap(errUnknownHandle, "submit with unknown fence")
		}
		if fc.signaled {
			d.violate("submit with a fence that is already signaled")
		}
	}

	var work []*cmdBuffer
	for _, s := range submits {
		n := int(s.CommandBufferCount)
		if n > len(s.PCommandBuffers) {
			n = len(s.PCommandBuffers)
		}
		for _, b := range s.PCommandBuffers[:n] {
			cb, ok := d.cmds[b]
			if !ok {
				return errors.Wrap(errUnknownHandle, "submit unknown command buffer")
			}
			if cb.state != cbExecutable {
				return errors.New("submitted command buffer is not executable")
			}
			work = append(work, cb)
		}
	}

	for _, cb := range work {
		for _, cmd := range cb.commands {
			cmd()
		}
	}
	d.submissions++
	if fc != nil {
		fc.signaled = true
	}
	return nil
}

func (d *Driver) QueueWaitIdle(queue vk.Queue) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fail("QueueWaitIdle")
}

// record queues cmd to run when b is submitted. Commands run with the driver lock held.
func (d *Driver) record(b vk.CommandBuffer, name string, cmd func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cb, ok := d.cmds[b]
	if !ok || cb.state != cbRecording {
		d.violate("%s recorded outside of a recording command buffer", name)
		return
	}
	cb.commands = append(cb.commands, cmd)
}

func (d *Driver) CmdCopyBuffer(b vk.CommandBuffer, src, dst vk.Buffer, regions []vk.BufferCopy) {
	regions = append([]vk.BufferCopy(nil), regions...)
	d.record(b, "copy buffer", func() {
		s, ok1 := d.buffers[src]
		t, ok2 := d.buffers[dst]
		if !ok1 || !ok2 || s.mem == nil || t.mem == nil {
			d.violate("copy between unknown or unbound buffers")
			return
		}
		if s.usage&vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit) == 0 {
			d.violate("copy from a buffer without transfer source usage")
		}
		if t.usage&vk.BufferUsageFlags(vk.BufferUsageTransferDstBit) == 0 {
			d.violate("copy to a buffer without transfer destination usage")
		}
		for _, r := range regions {
			size := uint64(r.Size)
			if uint64(r.SrcOffset)+size > s.size || uint64(r.DstOffset)+size > t.size {
				d.violate("buffer copy of %d bytes out of bounds", size)
				continue
			}
			from := s.offset + uint64(r.SrcOffset)
			to := t.offset + uint64(r.DstOffset)
			copy(t.mem.data[to:to+size], s.mem.data[from:from+size])
		}
	})
}

func (d *Driver) CmdCopyBufferToImage(b vk.CommandBuffer, src vk.Buffer, dst vk.Image, layout vk.ImageLayout, regions []vk.BufferImageCopy) {
	regions = append([]vk.BufferImageCopy(nil), regions...)
	d.record(b, "copy buffer to image", func() {
		s, ok1 := d.buffers[src]
		img, ok2 := d.images[dst]
		if !ok1 || !ok2 || s.mem == nil || img.mem == nil {
			d.violate("copy between unknown or unbound resources")
			return
		}
		if layout != vk.ImageLayoutTransferDstOptimal && layout != vk.ImageLayoutGeneral {
			d.violate("copy to image given layout %d", layout)
		}
		if s.usage&vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit) == 0 {
			d.violate("copy from a buffer without transfer source usage")
		}
		if img.usage&vk.ImageUsageFlags(vk.ImageUsageTransferDstBit) == 0 {
			d.violate("copy to an image without transfer destination usage")
		}
		for _, r := range regions {
			level := r.ImageSubresource.MipLevel
			if level >= img.levels {
				d.violate("copy to mip level %d of a %d level image", level, img.levels)
				continue
			}
			if img.layouts[level] != layout {
				d.violate("copy to mip level %d in layout %d, given %d", level, img.layouts[level], layout)
			}
			if r.ImageExtent.Width != mipSize(img.width, level) || r.ImageExtent.Height != mipSize(img.height, level) {
				d.violate("partial image copies are not simulated")
				continue
			}
			size := uint64(r.ImageExtent.Width) * uint64(r.ImageExtent.Height) * img.bpp
			if uint64(r.BufferOffset)+size > s.size {
				d.violate("image copy reads %d bytes from a %d byte buffer", size, s.size)
				continue
			}
			from := s.offset + uint64(r.BufferOffset)
			to := img.offset + img.levelOffsets[level]
			copy(img.mem.data[to:to+size], s.mem.data[from:from+size])
		}
	})
}

func (d *Driver) CmdPipelineBarrier(b vk.CommandBuffer, srcStage, dstStage vk.PipelineStageFlags, barriers []vk.ImageMemoryBarrier) {
	barriers = append([]vk.ImageMemoryBarrier(nil), barriers...)
	d.record(b, "pipeline barrier", func() {
		for _, br := range barriers {
			img, ok := d.images[br.Image]
			if !ok {
				d.violate("barrier on unknown image")
				continue
			}
			rng := br.SubresourceRange
			d.checkAspect(img, rng.AspectMask)
			if rng.BaseMipLevel+rng.LevelCount > img.levels {
				d.violate("barrier covers levels [%d,%d) of a %d level image", rng.BaseMipLevel, rng.BaseMipLevel+rng.LevelCount, img.levels)
				continue
			}
			for l := rng.BaseMipLevel; l < rng.BaseMipLevel+rng.LevelCount; l++ {
				if br.OldLayout != vk.ImageLayoutUndefined && img.layouts[l] != br.OldLayout {
					d.violate("barrier on mip level %d expects layout %d, level is in %d", l, br.OldLayout, img.layouts[l])
				}
				img.layouts[l] = br.NewLayout
			}
			d.barriers = append(d.barriers, Barrier{
				Image:     br.Image,
				Old:       br.OldLayout,
				New:       br.NewLayout,
				BaseLevel: rng.BaseMipLevel,
				Levels:    rng.LevelCount,
				Aspect:    rng.AspectMask,
				SrcAccess: br.SrcAccessMask,
				DstAccess: br.DstAccessMask,
				SrcStage:  srcStage,
				DstStage:  dstStage,
			})
		}
	})
}

func (d *Driver) checkAspect(img *image, aspect vk.ImageAspectFlags) {
	depth := vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	stencil := vk.ImageAspectFlags(vk.ImageAspectStencilBit)
	switch {
	case isDepthFormat(img.format):
		if aspect&depth == 0 {
			d.violate("barrier on a depth image without the depth aspect")
		}
		if hasStencil(img.format) && aspect&stencil == 0 {
			d.violate("barrier on a depth/stencil image without the stencil aspect")
		}
	case aspect != vk.ImageAspectFlags(vk.ImageAspectColorBit):
		d.violate("barrier on a color image with aspect %d", aspect)
	}
}

func (d *Driver) CmdBlitImage(b vk.CommandBuffer, src vk.Image, srcLayout vk.ImageLayout, dst vk.Image, dstLayout vk.ImageLayout, regions []vk.ImageBlit, filter vk.Filter) {
	regions = append([]vk.ImageBlit(nil), regions...)
	d.record(b, "blit image", func() {
		s, ok1 := d.images[src]
		t, ok2 := d.images[dst]
		if !ok1 || !ok2 || s.mem == nil || t.mem == nil {
			d.violate("blit between unknown or unbound images")
			return
		}
		if srcLayout != vk.ImageLayoutTransferSrcOptimal {
			d.violate("blit source given layout %d", srcLayout)
		}
		if dstLayout != vk.ImageLayoutTransferDstOptimal {
			d.violate("blit destination given layout %d", dstLayout)
		}
		if s.usage&vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit) == 0 {
			d.violate("blit from an image without transfer source usage")
		}
		if t.usage&vk.ImageUsageFlags(vk.ImageUsageTransferDstBit) == 0 {
			d.violate("blit to an image without transfer destination usage")
		}
		if filter == vk.FilterLinear {
			feats := d.formats[s.format].OptimalTilingFeatures
			if feats&vk.FormatFeatureFlags(vk.FormatFeatureSampledImageFilterLinearBit) == 0 {
				d.violate("linear blit of format %d which does not support linear filtering", s.format)
			}
		}

		for _, r := range regions {
			sl, tl := r.SrcSubresource.MipLevel, r.DstSubresource.MipLevel
			if sl >= s.levels || tl >= t.levels {
				d.violate("blit between mip levels %d and %d out of range", sl, tl)
				continue
			}
			if s.layouts[sl] != srcLayout {
				d.violate("blit from mip level %d in layout %d, given %d", sl, s.layouts[sl], srcLayout)
			}
			if t.layouts[tl] != dstLayout {
				d.violate("blit to mip level %d in layout %d, given %d", tl, t.layouts[tl], dstLayout)
			}
			sw, sh := r.SrcOffsets[1].X-r.SrcOffsets[0].X, r.SrcOffsets[1].Y-r.SrcOffsets[0].Y
			tw, th := r.DstOffsets[1].X-r.DstOffsets[0].X, r.DstOffsets[1].Y-r.DstOffsets[0].Y
			if sw <= 0 || sh <= 0 || tw <= 0 || th <= 0 ||
				uint32(r.SrcOffsets[1].X) > mipSize(s.width, sl) || uint32(r.SrcOffsets[1].Y) > mipSize(s.height, sl) ||
				uint32(r.DstOffsets[1].X) > mipSize(t.width, tl) || uint32(r.DstOffsets[1].Y) > mipSize(t.height, tl) {
				d.violate("blit region out of bounds")
				continue
			}
			d.blitNearest(s, sl, r.SrcOffsets, t, tl, r.DstOffsets)
			d.blits = append(d.blits, Blit{
				SrcLevel:  sl,
				DstLevel:  tl,
				SrcExtent: [2]int32{sw, sh},
				DstExtent: [2]int32{tw, th},
				Filter:    filter,
			})
		}
	})
}

// blitNearest scales with nearest neighbour sampling; filtering is not simulated.
func (d *Driver) blitNearest(s *image, sl uint32, so [2]vk.Offset3D, t *image, tl uint32, to [2]vk.Offset3D) {
	if s.bpp != t.bpp {
		d.violate("blit between formats of different texel size")
		return
	}
	bpp := int64(s.bpp)
	sRow := int64(mipSize(s.width, sl)) * bpp
	tRow := int64(mipSize(t.width, tl)) * bpp
	sBase := int64(s.offset + s.levelOffsets[sl])
	tBase := int64(t.offset + t.levelOffsets[tl])
	sw, sh := int64(so[1].X-so[0].X), int64(so[1].Y-so[0].Y)
	tw, th := int64(to[1].X-to[0].X), int64(to[1].Y-to[0].Y)

	for y := int64(0); y < th; y++ {
		sy := int64(so[0].Y) + y*sh/th
		for x := int64(0); x < tw; x++ {
			sx := int64(so[0].X) + x*sw/tw
			from := sBase + sy*sRow + sx*bpp
			dst := tBase + (int64(to[0].Y)+y)*tRow + (int64(to[0].X)+x)*bpp
			copy(t.mem.data[dst:dst+bpp], s.mem.data[from:from+bpp])
		}
	}
}
