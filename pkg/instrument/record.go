package instrument

import "github.com/sappyripper/gba-sappy-ripper/pkg/gbarom"

// Record is one 12-byte GBA instrument record (spec §3): three
// little-endian u32 words. The low 8 bits of W0 select the instrument
// type tag (spec §4.6).
type Record struct {
	W0, W1, W2 uint32
}

// Tag returns the instrument type tag (W0 & 0xFF).
func (r Record) Tag() uint8 { return uint8(r.W0 & 0xFF) }

// Key returns the record's baked-in base key (W0 byte 1): the key the
// sample or sub-instrument was authored against, used by every-key-split
// (spec §4.6) to compute each key's overridingRootKey.
func (r Record) Key() uint8 { return uint8((r.W0 >> 8) & 0xFF) }

// Panning returns the record's pan byte (W0 byte 3); 0 means unset.
func (r Record) Panning() uint8 { return uint8((r.W0 >> 24) & 0xFF) }

// PointerLow returns W1 masked to a ROM offset (sample pointer, or
// sub-instrument-table pointer for key-split/every-key-split).
func (r Record) PointerLow() int { return int(r.W1 & gbarom.PointerMask) }

// PointerHigh returns W2 masked to a ROM offset (key→index map pointer
// for key-split).
func (r Record) PointerHigh() int { return int(r.W2 & gbarom.PointerMask) }

// ADSR unpacks W2's four ADSR bytes, per spec §4.6.
func (r Record) ADSR() ADSR {
	return ADSR{
		Attack:  uint8(r.W2),
		Decay:   uint8(r.W2 >> 8),
		Sustain: uint8(r.W2 >> 16),
		Release: uint8(r.W2 >> 24),
	}
}

// Duty returns W1's low byte, used by GB pulse/noise tags as a duty cycle
// (pulse) or mode selector (noise).
func (r Record) Duty() uint8 { return uint8(r.W1 & 0xFF) }

// unusedSentinel is the (w0,w1,w2) triple denoting an unused slot, per
// spec §3.
var unusedSentinel = Record{W0: 0x3c01, W1: 0x02, W2: 0x0F0000}

// IsUnused reports whether r is the sentinel "unused slot" record.
func (r Record) IsUnused() bool { return r == unusedSentinel }

// ReadRecord reads a 12-byte instrument record at offset.
func ReadRecord(rom []byte, offset int) (Record, error) {
	r := gbarom.New(rom)
	if err := r.Seek(offset); err != nil {
		return Record{}, err
	}
	w0, err := r.U32()
	if err != nil {
		return Record{}, err
	}
	w1, err := r.U32()
	if err != nil {
		return Record{}, err
	}
	w2, err := r.U32()
	if err != nil {
		return Record{}, err
	}
	return Record{W0: w0, W1: w1, W2: w2}, nil
}

// Sample loop-word values, per spec §3.
const (
	loopFlagLooping = 0x40000000
	loopFlagOneShot = 0x00000000
	loopFlagBDPCM   = 0x00000001
)

// GBASample is a decoded GBA sample record.
type GBASample struct {
	LoopFlagWord uint32
	PitchX1024   uint32
	LoopPos      uint32
	Length       uint32
	Data         []byte
	Looping      bool
	BDPCM        bool
}

// ReadGBASample reads a sample record at a 32-bit-aligned ROM offset,
// validating the loop-flag word and length per spec §3/§7.
func ReadGBASample(rom []byte, offset int) (GBASample, error) {
	r := gbarom.New(rom)
	if err := r.Seek(offset); err != nil {
		return GBASample{}, ErrSampleInvalid
	}
	loopFlag, err := r.U32()
	if err != nil {
		return GBASample{}, ErrSampleInvalid
	}
	pitch, err := r.U32()
	if err != nil {
		return GBASample{}, ErrSampleInvalid
	}
	loopPos, err := r.U32()
	if err != nil {
		return GBASample{}, ErrSampleInvalid
	}
	length, err := r.U32()
	if err != nil {
		return GBASample{}, ErrSampleInvalid
	}

	// A Golden-Sun synth reference repurposes this record's leading word
	// as {0x80, type, duty, _} rather than a loop-flag value (spec §4.6),
	// so it has to be recognized before the loop-flag/length validation
	// below, which would otherwise reject it outright. The caller
	// distinguishes this case with IsGoldenSunSynth.
	if byte(loopFlag) == 0x80 && length == 0 && loopPos == 0 {
		return GBASample{
			LoopFlagWord: loopFlag,
			PitchX1024:   pitch,
			LoopPos:      loopPos,
			Length:       length,
		}, nil
	}

	switch loopFlag {
	case loopFlagLooping, loopFlagOneShot, loopFlagBDPCM:
	default:
		return GBASample{}, ErrSampleInvalid
	}
	if length < 16 || length > 0x3FFFFF {
		return GBASample{}, ErrSampleInvalid
	}

	// length is a sample count, uniformly across encodings (spec §4.4's
	// BDPCM size/64 arithmetic only makes sense in the sample domain). For
	// the BDPCM encoding the on-ROM byte count is smaller: 33 raw bytes
	// per 64 decoded samples.
	rawLen := int(length)
	if loopFlag == loopFlagBDPCM {
		rawLen = ((int(length) + 63) / 64) * 33
	}
	data, err := r.Slice(r.Pos(), rawLen)
	if err != nil {
		return GBASample{}, ErrSampleInvalid
	}

	return GBASample{
		LoopFlagWord: loopFlag,
		PitchX1024:   pitch,
		LoopPos:      loopPos,
		Length:       length,
		Data:         data,
		Looping:      loopFlag == loopFlagLooping,
		BDPCM:        loopFlag == loopFlagBDPCM,
	}, nil
}

// IsGoldenSunSynth reports whether a sample record describes a Golden-Sun
// synthetic instrument reference rather than real PCM data: length==0,
// loop_pos==0, and the first two bytes are {0x80, type}, per spec §4.6.
func (s GBASample) IsGoldenSunSynth() (typ uint8, ok bool) {
	if s.Length != 0 || s.LoopPos != 0 {
		return 0, false
	}
	// LoopFlagWord doubles as the first two bytes here since Golden-Sun
	// synth references repurpose the sample header's leading word.
	b0 := byte(s.LoopFlagWord)
	b1 := byte(s.LoopFlagWord >> 8)
	if b0 != 0x80 {
		return 0, false
	}
	return b1, true
}

// GoldenSunDuty returns the marker word's third byte, used as the duty
// value for type-0 (square) Golden-Sun synth references.
func (s GBASample) GoldenSunDuty() uint8 { return byte(s.LoopFlagWord >> 16) }
