package vkx

import (
	"github.com/pkg/errors"
)

// ExecuteOnce records a single-use command buffer from pool with record, submits it to queue
// with a dedicated fence and blocks until the device has finished it. The command buffer and
// fence are released before returning.
//
// If record fails the buffer is ended and freed without being submitted and that error is
// returned unchanged.
func ExecuteOnce(pool *CommandPool, queue *Queue, record func(cb *CommandBuffer) error) error {
	cb, err := pool.AllocateBuffer()
	if err != nil {
		return errors.Wrap(err, "one-shot command buffer")
	}
	defer pool.FreeBuffer(cb)

	if err := cb.BeginOneTime(); err != nil {
		return submitError(err, "begin one-shot command buffer")
	}

	if err := record(cb); err != nil {
		if endErr := cb.End(); endErr != nil {
			Logger().WithError(endErr).Debug("ending command buffer after failed recording")
		}
		return err
	}

	if err := cb.End(); err != nil {
		return submitError(err, "end one-shot command buffer")
	}

	fence, err := pool.Device.CreateFence(false)
	if err != nil {
		return submitError(err, "one-shot fence")
	}
	defer fence.Destroy()

	if err := queue.SubmitWithFence(fence, cb); err != nil {
		return submitError(err, "submit one-shot command buffer")
	}

	Logger().Debug("one-shot commands submitted")

	if err := pool.Device.WaitForFences(true, WaitForever, fence); err != nil {
		return submitError(err, "wait for one-shot command buffer")
	}
	return nil
}
