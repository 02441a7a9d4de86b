package instrument

import (
	"testing"

	"github.com/sappyripper/gba-sappy-ripper/pkg/soundfont"
)

func putU32LE(b []byte, off int, v uint32) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
	b[off+2] = byte(v >> 16)
	b[off+3] = byte(v >> 24)
}

// putInstrumentRecord writes a 12-byte instrument record at off.
func putInstrumentRecord(rom []byte, off int, w0, w1, w2 uint32) {
	putU32LE(rom, off, w0)
	putU32LE(rom, off+4, w1)
	putU32LE(rom, off+8, w2)
}

func gbaPtr(offset int) uint32 { return 0x08000000 | uint32(offset) }

func TestBuildSampledInstrumentDedupesByOffset(t *testing.T) {
	rom := make([]byte, 4096)
	sampleOff := 200
	putU32LE(rom, sampleOff, 0) // loopFlag: one-shot
	putU32LE(rom, sampleOff+4, 10512*1024)
	putU32LE(rom, sampleOff+8, 0)
	putU32LE(rom, sampleOff+12, 16) // length
	for i := 0; i < 16; i++ {
		rom[sampleOff+16+i] = byte(0x80 + i)
	}

	recOff1, recOff2 := 400, 420
	adsr := uint32(10) | uint32(10)<<8 | uint32(10)<<16 | uint32(5)<<24
	putInstrumentRecord(rom, recOff1, 0x00, gbaPtr(sampleOff), adsr)
	putInstrumentRecord(rom, recOff2, 0x00, gbaPtr(sampleOff), adsr)

	doc := soundfont.NewDocument()
	b := NewBuilder(doc, rom, 10512)

	if _, _, err := b.BuildInstrument(recOff1); err != nil {
		t.Fatalf("first instrument: %v", err)
	}
	if _, _, err := b.BuildInstrument(recOff2); err != nil {
		t.Fatalf("second instrument: %v", err)
	}
	if len(doc.Samples) != 1 {
		t.Fatalf("expected the shared sample offset to be de-duplicated, got %d samples", len(doc.Samples))
	}
	if len(doc.Instruments) != 2 {
		t.Fatalf("expected two distinct instruments, got %d", len(doc.Instruments))
	}
}

// TestBuildSampledInstrumentGoldenSunSynthMarker guards against the
// loop-flag/length validation in ReadGBASample rejecting a Golden-Sun
// synth marker before buildSample ever gets to dispatch on
// IsGoldenSunSynth: a marker's loop-flag-word low byte is 0x80, which
// never matches the three real loop-flag values.
func TestBuildSampledInstrumentGoldenSunSynthMarker(t *testing.T) {
	rom := make([]byte, 4096)
	sampleOff := 200
	const (
		typ  = 1 // saw
		duty = 0
	)
	putU32LE(rom, sampleOff, 0x80|typ<<8|duty<<16) // Golden-Sun marker word
	putU32LE(rom, sampleOff+4, 0)                  // pitch, unused for synths
	putU32LE(rom, sampleOff+8, 0)                  // loop_pos: must be 0
	putU32LE(rom, sampleOff+12, 0)                 // length: must be 0

	recOff := 400
	adsr := uint32(10) | uint32(10)<<8 | uint32(10)<<16 | uint32(5)<<24
	putInstrumentRecord(rom, recOff, 0x00, gbaPtr(sampleOff), adsr)

	doc := soundfont.NewDocument()
	b := NewBuilder(doc, rom, 10512)

	if _, _, err := b.BuildInstrument(recOff); err != nil {
		t.Fatalf("unexpected error building a Golden-Sun-backed instrument: %v", err)
	}
	if len(doc.Samples) != 1 {
		t.Fatalf("expected one synthesized sample, got %d", len(doc.Samples))
	}
}

func TestBuildPulseInstrumentEmitsFiveZones(t *testing.T) {
	rom := make([]byte, 64)
	adsr := uint32(5) | uint32(5)<<8 | uint32(5)<<16 | uint32(5)<<24
	putInstrumentRecord(rom, 0, 0x01, 0, adsr) // duty 0

	doc := soundfont.NewDocument()
	b := NewBuilder(doc, rom, 10512)

	instIdx, isGameBoy, err := b.BuildInstrument(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !isGameBoy {
		t.Fatalf("expected a GB pulse instrument to be flagged GameBoy")
	}
	if got := len(doc.IBag); got != 5 {
		t.Fatalf("expected 5 instrument zones for the 5 pulse key ranges, got %d", got)
	}
	if instIdx != 0 {
		t.Fatalf("expected the first built instrument to have index 0, got %d", instIdx)
	}
}

func TestBuildPulseInstrumentRejectsDutyAboveThree(t *testing.T) {
	rom := make([]byte, 64)
	putInstrumentRecord(rom, 0, 0x01, 4, 0) // duty 4: invalid

	doc := soundfont.NewDocument()
	b := NewBuilder(doc, rom, 10512)
	if _, _, err := b.BuildInstrument(0); err != ErrInstrumentInvalid {
		t.Fatalf("expected ErrInstrumentInvalid for duty 4, got %v", err)
	}
}

func TestBuildNoiseInstrumentZoneCount(t *testing.T) {
	rom := make([]byte, 64)
	adsr := uint32(5) | uint32(5)<<8 | uint32(5)<<16 | uint32(5)<<24
	putInstrumentRecord(rom, 0, 0x04, 0, adsr) // mode 0: normal

	doc := soundfont.NewDocument()
	b := NewBuilder(doc, rom, 10512)
	if _, isGameBoy, err := b.BuildInstrument(0); err != nil || !isGameBoy {
		t.Fatalf("unexpected result: gb=%v err=%v", isGameBoy, err)
	}
	// 1 low-clamp zone + 36 per-key zones (42..77) + 1 high-clamp zone.
	if got := len(doc.IBag); got != 38 {
		t.Fatalf("expected 38 noise zones, got %d", got)
	}
}

func TestBuildInstrumentUnusedSentinelRejected(t *testing.T) {
	rom := make([]byte, 64)
	putInstrumentRecord(rom, 0, 0x3c01, 0x02, 0x0F0000)

	doc := soundfont.NewDocument()
	b := NewBuilder(doc, rom, 10512)
	if _, _, err := b.BuildInstrument(0); err != ErrInstrumentInvalid {
		t.Fatalf("expected the unused-slot sentinel to be rejected, got %v", err)
	}
}

func TestBuildInstrumentUnknownTagSkipped(t *testing.T) {
	rom := make([]byte, 64)
	putInstrumentRecord(rom, 0, 0x99, 0, 0)

	doc := soundfont.NewDocument()
	b := NewBuilder(doc, rom, 10512)
	if _, _, err := b.BuildInstrument(0); err != ErrInstrumentInvalid {
		t.Fatalf("expected unknown tag to be rejected/skipped, got %v", err)
	}
}
