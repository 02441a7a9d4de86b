// Package locator pattern-scans a GBA ROM image for the Sappy/M4A sound
// engine's control block and song table.
//
// Grounded on the teacher's pkg/stsound/ym-file-utils.go signature-match
// approach (IsYMFile/GetYMInfo: scan for a magic value, validate, extract
// structured parameters) generalized from a single fixed-offset 4-byte ID
// check to spec §4.2's byte-aligned 30-byte code-signature scan plus a
// backward secondary-signature search and parameter-block validation.
package locator

import (
	"bytes"
	"errors"

	"github.com/sappyripper/gba-sappy-ripper/pkg/gbarom"
)

// ErrNotFound is returned when neither selectsong signature is present in
// the ROM, per spec §7.
var ErrNotFound = errors.New("locator: sappy engine not found")

// signatureA and signatureB are the two fixed 30-byte ARM Thumb code
// patterns implementing the engine's "selectsong" routine (spec §4.2 step
// 1). These are the engine's own machine code, not any asset of ours or
// the teacher's; they are the one piece of this package that must match a
// real Sappy engine build byte for byte to locate it.
var (
	signatureA = []byte{
		0x00, 0xB5, 0x00, 0x04, 0x07, 0x4A, 0x08, 0x49, 0x40, 0x0B,
		0x40, 0x18, 0x83, 0x88, 0x59, 0x00, 0xC9, 0x18, 0x89, 0x00,
		0x89, 0x18, 0x0A, 0x68, 0x01, 0x68, 0x10, 0x1C, 0x00, 0xF0,
	}
	signatureB = []byte{
		0x00, 0xB5, 0x00, 0x04, 0x07, 0x4A, 0x08, 0x49, 0x40, 0x0B,
		0x40, 0x18, 0x83, 0x88, 0x59, 0x00, 0x09, 0x68, 0x00, 0x68,
		0x49, 0x00, 0x09, 0x18, 0x0A, 0x68, 0x01, 0x68, 0x10, 0x1C,
	}
)

// sampleRateTable maps a 1-based sample-rate index to a playback rate in
// Hz, per spec §4.2.
var sampleRateTable = [13]int{
	0, // index 0 is invalid
	5734, 7884, 10512, 13379, 15768, 18157, 21024, 26758, 31536, 36314, 40137, 42048,
}

// SampleRateHz returns the playback rate for a 1..12 sample-rate index, or
// 0 if idx is out of range.
func SampleRateHz(idx int) int {
	if idx < 1 || idx > 12 {
		return 0
	}
	return sampleRateTable[idx]
}

// EngineInfo is the decoded result of a successful locate: the parameter
// block offset plus its decoded fields.
type EngineInfo struct {
	ParamBlockOffset int
	Polyphony        int
	MainVolume       int
	SampleRateIdx    int
	DACBits          int
	SongTableOffset  int
}

// Locate scans rom for a Sappy engine control block and decodes it. An
// explicit song-table offset override (spec §6) bypasses this entirely and
// should be handled by the caller before calling Locate.
func Locate(rom []byte) (EngineInfo, error) {
	for _, sig := range [][]byte{signatureA, signatureB} {
		off := 0
		for {
			idx := bytes.Index(rom[off:], sig)
			if idx < 0 {
				break
			}
			candidate := off + idx
			if info, ok := tryCandidate(rom, candidate); ok {
				return info, nil
			}
			off = candidate + 1
		}
	}
	return EngineInfo{}, ErrNotFound
}

func tryCandidate(rom []byte, selectsongOff int) (EngineInfo, bool) {
	r := gbarom.New(rom)

	if selectsongOff+44 > len(rom) {
		return EngineInfo{}, false
	}
	tablePtr, err := r.GBAPointerAt(selectsongOff + 40)
	if err != nil {
		return EngineInfo{}, false
	}
	wordAt40, err := r.U32At(selectsongOff + 40)
	if err != nil || !gbarom.IsGBAAddress(wordAt40) {
		return EngineInfo{}, false
	}
	if tablePtr+4 > len(rom) {
		return EngineInfo{}, false
	}
	if !hasValidSongTableEntry(rom, tablePtr) {
		return EngineInfo{}, false
	}

	mainOff := findEngineMain(rom, selectsongOff)
	if mainOff < 0 {
		return EngineInfo{}, false
	}

	for _, paramOff := range []int{mainOff - 16, mainOff - 32} {
		if info, ok := validateParamBlock(rom, paramOff); ok {
			return info, true
		}
	}
	return EngineInfo{}, false
}

// hasValidSongTableEntry counts 8-byte entries at tableOff whose first word
// is a non-zero valid GBA ROM pointer to an in-range location, accepting
// the candidate as soon as one valid entry is found (spec §4.2 step 2).
func hasValidSongTableEntry(rom []byte, tableOff int) bool {
	r := gbarom.New(rom)
	if tableOff+8 > len(rom) {
		return false
	}
	word, err := r.U32At(tableOff)
	if err != nil || word == 0 || !gbarom.IsGBAAddress(word) {
		return false
	}
	offset := int(word & gbarom.PointerMask)
	return offset < len(rom)
}

// findEngineMain scans backwards up to 0x20 bytes from selectsongOff for
// the 2-byte signature {0x00, 0xB5} and returns the highest matching
// offset, per spec §4.2 step 3.
func findEngineMain(rom []byte, selectsongOff int) int {
	start := selectsongOff - 0x20
	if start < 0 {
		start = 0
	}
	best := -1
	for off := start; off < selectsongOff; off++ {
		if off+2 <= len(rom) && rom[off] == 0x00 && rom[off+1] == 0xB5 {
			best = off
		}
	}
	return best
}

// validateParamBlock decodes and validates the engine parameter word at
// offset, per spec §4.2 step 4.
func validateParamBlock(rom []byte, offset int) (EngineInfo, bool) {
	r := gbarom.New(rom)
	if offset < 0 || offset+12 > len(rom) {
		return EngineInfo{}, false
	}
	w0, err := r.U32At(offset)
	if err != nil {
		return EngineInfo{}, false
	}
	w1, err := r.U32At(offset + 4)
	if err != nil {
		return EngineInfo{}, false
	}
	w2, err := r.U32At(offset + 8)
	if err != nil {
		return EngineInfo{}, false
	}

	if w0>>24 != 0 {
		return EngineInfo{}, false
	}

	polyphony := int((w0 >> 8) & 0x0F)
	mainVol := int((w0 >> 12) & 0x0F)
	sampleRateIdx := int((w0 >> 16) & 0x0F)
	dacBits := 17 - int((w0>>20)&0x0F)

	if mainVol == 0 || polyphony > 12 || dacBits < 6 || dacBits > 9 ||
		sampleRateIdx < 1 || sampleRateIdx > 12 {
		return EngineInfo{}, false
	}

	if w1 >= 256 {
		return EngineInfo{}, false
	}
	songTableAddr := int(w2&gbarom.PointerMask) + 12*int(w1)
	if songTableAddr >= len(rom) || songTableAddr < 0 {
		return EngineInfo{}, false
	}

	return EngineInfo{
		ParamBlockOffset: offset,
		Polyphony:        polyphony,
		MainVolume:       mainVol,
		SampleRateIdx:    sampleRateIdx,
		DACBits:          dacBits,
		SongTableOffset:  songTableAddr,
	}, true
}
