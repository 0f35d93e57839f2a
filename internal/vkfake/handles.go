package vkfake

import (
	"sync"
	"syscall"
	"unsafe"

	"github.com/pkg/errors"
)

const (
	handleSize   = 8
	arenaHandles = 4096
)

// Vulkan handle types are C pointers. They must not point into Go memory: the collector does
// not track them and reflect refuses to read them, so handles are carved out of anonymous
// mappings that are never released.
var arena struct {
	sync.Mutex
	free []byte
}

// newHandle returns an address no other call has returned.
func newHandle() unsafe.Pointer {
	arena.Lock()
	defer arena.Unlock()

	if len(arena.free) < handleSize {
		b, err := syscall.Mmap(-1, 0, handleSize*arenaHandles,
			syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_ANON|syscall.MAP_PRIVATE)
		if err != nil {
			panic(errors.Wrap(err, "map handle arena"))
		}
		arena.free = b
	}
	p := unsafe.Pointer(&arena.free[0])
	arena.free = arena.free[handleSize:]
	return p
}
