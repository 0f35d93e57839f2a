package vkx

import (
	"github.com/pkg/errors"
)

// The error taxonomy of the resource layer. None of these describe transient conditions;
// callers are expected to surface them and stop.
var (
	// ErrResourceCreation is returned when a handle, allocation or binding could not be created.
	ErrResourceCreation = errors.New("resource creation failed")

	// ErrNoSuitableMemoryType is returned when no memory type of the physical device satisfies
	// both the type mask and the requested property flags.
	ErrNoSuitableMemoryType = errors.New("no suitable memory type")

	// ErrUnsupportedLayoutTransition is returned for layout pairs missing from the transition table.
	ErrUnsupportedLayoutTransition = errors.New("unsupported layout transition")

	// ErrLayoutMismatch is returned when the layout a caller asserts an image is in differs from
	// the layout the image is tracked in.
	ErrLayoutMismatch = errors.New("image layout mismatch")

	// ErrUnsupportedBlitFormat is returned when the device cannot blit the image format with a
	// linear filter, which mipmap generation requires.
	ErrUnsupportedBlitFormat = errors.New("format does not support linear blitting")

	// ErrCommandSubmission is returned when recording, submitting or waiting on one-shot
	// command work fails.
	ErrCommandSubmission = errors.New("command submission failed")

	// ErrOutOfRange is returned for host writes or reads that fall outside a resource.
	ErrOutOfRange = errors.New("range exceeds resource size")

	// ErrMissingUsage is returned when an operation needs a usage flag the resource was not
	// created with.
	ErrMissingUsage = errors.New("resource lacks required usage")

	// ErrDestroyed is returned when a destroyed resource is used.
	ErrDestroyed = errors.New("resource has been destroyed")
)

type causer struct {
	kind  error
	cause error
}

func (c *causer) Error() string { return c.kind.Error() + ": " + c.cause.Error() }

func (c *causer) Is(target error) bool { return target == c.kind }

func (c *causer) Unwrap() error { return c.cause }

// kindError tags cause with one of the sentinel kinds above so errors.Is matches both
// the kind and anything the cause matches.
func kindError(kind, cause error) error {
	if cause == nil {
		return kind
	}
	return &causer{kind: kind, cause: cause}
}

// resourceError wraps a native failure as ErrResourceCreation with context.
func resourceError(err error, format string, args ...interface{}) error {
	return errors.Wrapf(kindError(ErrResourceCreation, err), format, args...)
}

// submitError wraps a native failure as ErrCommandSubmission with context.
func submitError(err error, format string, args ...interface{}) error {
	return errors.Wrapf(kindError(ErrCommandSubmission, err), format, args...)
}
