package vkx

import (
	"unsafe"
)

// ByteSource is anything that can hand its raw contents to an upload.
type ByteSource interface {
	Bytes() []byte
}

type Uint16Slice []uint16

func (s Uint16Slice) Bytes() []byte {
	if len(s) == 0 {
		return nil
	}
	return ToBytes(unsafe.Pointer(&s[0]), len(s)*int(unsafe.Sizeof(s[0])))
}

type Uint32Slice []uint32

func (s Uint32Slice) Bytes() []byte {
	if len(s) == 0 {
		return nil
	}
	return ToBytes(unsafe.Pointer(&s[0]), len(s)*int(unsafe.Sizeof(s[0])))
}

type Float32Slice []float32

func (s Float32Slice) Bytes() []byte {
	if len(s) == 0 {
		return nil
	}
	return ToBytes(unsafe.Pointer(&s[0]), len(s)*int(unsafe.Sizeof(s[0])))
}
