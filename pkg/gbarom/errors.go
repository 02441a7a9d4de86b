// Package gbarom provides little-endian scalar reads and GBA-pointer
// decoding over an immutable ROM image.
package gbarom

import "errors"

// ErrOutOfRange is returned when a seek or read targets an offset outside
// the ROM image.
var ErrOutOfRange = errors.New("gbarom: offset out of range")

// ErrUnexpectedEOF is returned when a read would cross the end of the ROM
// image.
var ErrUnexpectedEOF = errors.New("gbarom: unexpected end of data")

// GBABaseLow and GBABaseHigh bound the range GBA ROM addresses occupy in
// the 32-bit CPU address space (0x08000000-0x09FFFFFF); PointerMask turns
// such an address into a ROM file offset.
const (
	GBABaseLow  = 0x08000000
	GBABaseHigh = 0x0A000000
	PointerMask = 0x03FFFFFF
)

// IsGBAAddress reports whether v's top byte identifies it as a GBA ROM
// pointer (0x08 or 0x09), per spec §4.2 step 2.
func IsGBAAddress(v uint32) bool {
	return v >= GBABaseLow && v < GBABaseHigh
}
