package ripper

import (
	"bytes"
	"testing"
)

// putU32LE writes a little-endian u32 at offset.
func putU32LE(rom []byte, offset int, v uint32) {
	rom[offset] = byte(v)
	rom[offset+1] = byte(v >> 8)
	rom[offset+2] = byte(v >> 16)
	rom[offset+3] = byte(v >> 24)
}

func gbaPtr(offset int) uint32 { return 0x08000000 + uint32(offset) }

func TestWalkSongTableSkipsLeadingZeros(t *testing.T) {
	rom := make([]byte, 0x40)
	// Two leading zero words (8 bytes), then a valid entry, then a
	// terminating zero song_ptr.
	putU32LE(rom, 0x10, gbaPtr(0x30))
	entries, end, err := WalkSongTable(rom, 0x08)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Offset != 0x30 {
		t.Fatalf("expected one entry at 0x30, got %+v", entries)
	}
	if end != 0x10+8 {
		t.Fatalf("expected end-of-table offset 0x18, got %#x", end)
	}
}

func TestWalkSongTableStopsAtOutOfRangePointer(t *testing.T) {
	rom := make([]byte, 0x40)
	putU32LE(rom, 0x00, gbaPtr(0x20))
	putU32LE(rom, 0x08, 0xFFFFFFFF) // not a usable GBA pointer relative to this ROM
	entries, _, err := WalkSongTable(rom, 0x00)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one entry before the out-of-range stop, got %d", len(entries))
	}
}

func TestReadSongHeaderRejectsBadTrackCount(t *testing.T) {
	rom := make([]byte, 0x40)
	rom[0] = 0 // track_count == 0 is invalid (spec §3: 1..16)
	if _, err := ReadSongHeader(rom, 0); err != ErrStructuralInvalid {
		t.Fatalf("expected ErrStructuralInvalid, got %v", err)
	}

	rom[0] = 17 // track_count == 17 is also invalid
	if _, err := ReadSongHeader(rom, 0); err != ErrStructuralInvalid {
		t.Fatalf("expected ErrStructuralInvalid, got %v", err)
	}
}

func TestReadSongHeaderParsesTrackPointers(t *testing.T) {
	rom := make([]byte, 0x40)
	rom[0] = 2    // track_count
	rom[1] = 0    // reserved
	rom[2] = 5    // priority
	rom[3] = 0xFE // reverb (-2)
	putU32LE(rom, 4, gbaPtr(0x20))
	putU32LE(rom, 8, gbaPtr(0x30))
	putU32LE(rom, 12, gbaPtr(0x31))

	h, err := ReadSongHeader(rom, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.TrackCount != 2 || h.InstrBank != 0x20 {
		t.Fatalf("unexpected header: %+v", h)
	}
	if len(h.TrackPtrs) != 2 || h.TrackPtrs[0] != 0x30 || h.TrackPtrs[1] != 0x31 {
		t.Fatalf("unexpected track pointers: %+v", h.TrackPtrs)
	}
	if h.Reverb != -2 {
		t.Fatalf("expected reverb -2, got %d", h.Reverb)
	}
}

// buildSyntheticROM lays out a complete, minimal song table, song header,
// one-patch instrument bank, and track stream, exercising Run end to end
// without the engine locator (spec §8 scenario shapes, assembled at the
// driver level rather than one component at a time).
func buildSyntheticROM() []byte {
	const (
		bankOff  = 0x300
		trackOff = 0x900
		sampleOff = 0xA00
	)
	rom := make([]byte, 0xB00)

	// Song table at 0x100: one entry, then a terminating zero.
	putU32LE(rom, 0x100, gbaPtr(0x200))
	putU32LE(rom, 0x104, 0) // group, ignored
	putU32LE(rom, 0x108, 0) // terminates the table

	// Song header at 0x200: one track.
	rom[0x200] = 1 // track_count
	rom[0x201] = 0 // reserved
	rom[0x202] = 0 // priority
	rom[0x203] = 0 // reverb
	putU32LE(rom, 0x204, gbaPtr(bankOff))  // instr_bank
	putU32LE(rom, 0x208, gbaPtr(trackOff)) // track_ptrs[0]

	// Instrument bank at bankOff: every slot starts as the "unused"
	// sentinel (spec §3), matching a real bank's unused patches; patch 0
	// alone is overwritten below with a real sampled instrument.
	for patch := 0; patch < 128; patch++ {
		off := bankOff + 12*patch
		putU32LE(rom, off, 0x3c01)
		putU32LE(rom, off+4, 0x02)
		putU32LE(rom, off+8, 0x0F0000)
	}

	// Patch 0: a plain sampled instrument with no envelope (ADSR
	// sentinels that skip every computed generator).
	putU32LE(rom, bankOff, 0x00)                // w0: tag 0x00
	putU32LE(rom, bankOff+4, gbaPtr(sampleOff)) // w1: sample pointer
	// w2 bytes little-endian: attack, decay, sustain, release
	rom[bankOff+8] = 0xFF  // attack
	rom[bankOff+9] = 0x00  // decay
	rom[bankOff+10] = 0xFF // sustain
	rom[bankOff+11] = 0x00 // release

	// Track stream: one note, then end-of-track.
	copy(rom[trackOff:], []byte{0xCF, 60, 100, 0xB1})

	// GBA sample: one-shot, 16 bytes of PCM.
	putU32LE(rom, sampleOff, 0x00000000)    // loop_flag_word: one-shot
	putU32LE(rom, sampleOff+4, 1024*440)    // pitch_x1024
	putU32LE(rom, sampleOff+8, 0)           // loop_pos
	putU32LE(rom, sampleOff+12, 16)         // length
	for i := 0; i < 16; i++ {
		rom[sampleOff+16+i] = byte(0x80 + i)
	}

	return rom
}

func TestRunAggregateBank(t *testing.T) {
	rom := buildSyntheticROM()
	off := 0x100
	result, err := Run(rom, Config{SongTableOffset: &off})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Songs) != 1 || result.Songs[0].Err != nil {
		t.Fatalf("expected one clean song, got %+v", result.Songs)
	}
	// Velocity linearisation is on unless Raw is set: floor(sqrt(127*100)) = 112.
	if !bytes.Contains(result.Songs[0].MIDI, []byte{0x90, 60, 112}) {
		t.Fatalf("expected a NoteOn in the song's MIDI bytes")
	}
	if len(result.Aggregate) == 0 {
		t.Fatalf("expected a non-empty aggregated SF2 document")
	}
	if len(result.Banks) != 0 {
		t.Fatalf("expected no per-bank output in aggregate mode")
	}
}

func TestRunPerBankSF2(t *testing.T) {
	rom := buildSyntheticROM()
	off := 0x100
	result, err := Run(rom, Config{SongTableOffset: &off, PerBankSF2: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Banks) != 1 {
		t.Fatalf("expected exactly one bank, got %d", len(result.Banks))
	}
	if len(result.Banks[0].SF2) == 0 {
		t.Fatalf("expected a non-empty per-bank SF2 document")
	}
	if len(result.Aggregate) != 0 {
		t.Fatalf("expected no aggregate output in per-bank mode")
	}
}

func TestRunSkipsInvalidSongButKeepsRunning(t *testing.T) {
	rom := buildSyntheticROM()
	// Corrupt the song header's track count so this song is skipped, but
	// the table itself still resolves to exactly one entry.
	rom[0x200] = 0

	off := 0x100
	result, err := Run(rom, Config{SongTableOffset: &off})
	if err != nil {
		t.Fatalf("unexpected top-level error: %v", err)
	}
	if len(result.Songs) != 1 || result.Songs[0].Err != ErrStructuralInvalid {
		t.Fatalf("expected the one song to carry ErrStructuralInvalid, got %+v", result.Songs)
	}
}

func TestRunFailsOnUnreadableSongTable(t *testing.T) {
	rom := make([]byte, 0x10)
	off := 0x100 // past the end of this tiny ROM
	if _, err := Run(rom, Config{SongTableOffset: &off}); err == nil {
		t.Fatalf("expected an error for a song table offset past EOF")
	}
}

// writeInstrumentBank fills all 128 patch slots at bankOff with the unused
// sentinel, then overwrites patch 0 with a plain sampled instrument
// pointing at sampleOff.
func writeInstrumentBank(rom []byte, bankOff, sampleOff int) {
	for patch := 0; patch < 128; patch++ {
		off := bankOff + 12*patch
		putU32LE(rom, off, 0x3c01)
		putU32LE(rom, off+4, 0x02)
		putU32LE(rom, off+8, 0x0F0000)
	}
	putU32LE(rom, bankOff, 0x00)
	putU32LE(rom, bankOff+4, gbaPtr(sampleOff))
	rom[bankOff+8] = 0xFF
	rom[bankOff+9] = 0x00
	rom[bankOff+10] = 0xFF
	rom[bankOff+11] = 0x00
}

// writeGBASample writes a minimal one-shot 16-byte PCM sample at sampleOff.
func writeGBASample(rom []byte, sampleOff int) {
	putU32LE(rom, sampleOff, 0x00000000)
	putU32LE(rom, sampleOff+4, 1024*440)
	putU32LE(rom, sampleOff+8, 0)
	putU32LE(rom, sampleOff+12, 16)
	for i := 0; i < 16; i++ {
		rom[sampleOff+16+i] = byte(0x80 + i)
	}
}

// buildTwoBankROM lays out two songs, each pointing at its own distinct
// instrument bank, so aggregate mode is forced to assign two different
// bank IDs inside the one shared document.
func buildTwoBankROM() []byte {
	const (
		bank1Off   = 0x300
		bank2Off   = 0x900
		track1Off  = 0xF00
		track2Off  = 0xF10
		sample1Off = 0x1000
		sample2Off = 0x1100
	)
	rom := make([]byte, 0x1200)

	putU32LE(rom, 0x100, gbaPtr(0x200))
	putU32LE(rom, 0x108, gbaPtr(0x250))
	putU32LE(rom, 0x110, 0) // terminates the table

	rom[0x200] = 1 // track_count
	putU32LE(rom, 0x204, gbaPtr(bank1Off))
	putU32LE(rom, 0x208, gbaPtr(track1Off))

	rom[0x250] = 1 // track_count
	putU32LE(rom, 0x254, gbaPtr(bank2Off))
	putU32LE(rom, 0x258, gbaPtr(track2Off))

	writeInstrumentBank(rom, bank1Off, sample1Off)
	writeInstrumentBank(rom, bank2Off, sample2Off)

	// Each track opens with a program change (0xBD) so the driver's forced
	// bank select is emitted ahead of it.
	copy(rom[track1Off:], []byte{0xBD, 0, 0xCF, 60, 100, 0xB1})
	copy(rom[track2Off:], []byte{0xBD, 0, 0xCF, 64, 100, 0xB1})

	writeGBASample(rom, sample1Off)
	writeGBASample(rom, sample2Off)

	return rom
}

// TestRunAggregateMultipleBanks guards against bankSet.use collapsing every
// distinct instrument bank onto MIDI bank 0 when PerBankSF2 is off: each
// song's forced bank-select byte must reflect its own bank.
func TestRunAggregateMultipleBanks(t *testing.T) {
	rom := buildTwoBankROM()
	off := 0x100
	result, err := Run(rom, Config{SongTableOffset: &off})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Songs) != 2 {
		t.Fatalf("expected two songs, got %d", len(result.Songs))
	}
	for i, song := range result.Songs {
		if song.Err != nil {
			t.Fatalf("song %d: unexpected error: %v", i, song.Err)
		}
	}
	if bytes.Equal(result.Songs[0].MIDI, result.Songs[1].MIDI) {
		t.Fatalf("expected the two songs' bank-select bytes to differ")
	}
	// GS-style bank select: CC0 carries the bank ID on channel 0.
	if !bytes.Contains(result.Songs[0].MIDI, []byte{0xB0, 0, 0}) {
		t.Fatalf("expected song 0 to select bank 0, got %x", result.Songs[0].MIDI)
	}
	if !bytes.Contains(result.Songs[1].MIDI, []byte{0xB0, 0, 1}) {
		t.Fatalf("expected song 1 to select bank 1, got %x", result.Songs[1].MIDI)
	}
}

func TestLoopScanStartSingleTrackUsesHeaderOffset(t *testing.T) {
	if got := loopScanStart([]int{0x900}, 0x200); got != 0x200 {
		t.Fatalf("expected the song header offset 0x200 for a single-track song, got %#x", got)
	}
	if got := loopScanStart([]int{0x900, 0x910}, 0x200); got != 0x910 {
		t.Fatalf("expected track 1's start 0x910 for a multi-track song, got %#x", got)
	}
}

// TestRunDetectsLoopPrecedingHeaderForSingleTrackSong guards against
// scanning the track's own start for a single-track song instead of the
// bytes preceding the song header itself.
func TestRunDetectsLoopPrecedingHeaderForSingleTrackSong(t *testing.T) {
	rom := buildSyntheticROM()

	// Place a jump-to-self opcode (0xB2 + GBA pointer) in the 5 bytes
	// immediately preceding the song header at 0x200, pointing back at the
	// track's own note event so DetectLoop can find it there.
	rom[0x1FB] = 0xB2
	putU32LE(rom, 0x1FC, gbaPtr(0x900))

	off := 0x100
	result, err := Run(rom, Config{SongTableOffset: &off})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Songs) != 1 || result.Songs[0].Err != nil {
		t.Fatalf("expected one clean song, got %+v", result.Songs)
	}
	if !bytes.Contains(result.Songs[0].MIDI, []byte("loopEnd")) {
		t.Fatalf("expected a loopEnd marker once the song header's preceding loop jump was found")
	}
}

// TestRunLoopBodyReplaysAcrossTicksForMultiTrackSong guards against a
// regression where an executed 0xB2 jump would mark its track completed
// and, as a side effect, stop it from ever being dispatched again: track
// 0 here jumps back into its own note-on every tick, and must keep doing
// so for as long as track 1 is still running, not just once.
func TestRunLoopBodyReplaysAcrossTicksForMultiTrackSong(t *testing.T) {
	rom := buildSyntheticROM()

	const track1Off = 0x980
	rom[0x200] = 2 // track_count
	putU32LE(rom, 0x20C, gbaPtr(track1Off))

	// Track 0: note-on, then an unconditional jump back to its own start.
	copy(rom[0x900:], []byte{0xCF, 60, 100, 0xB2, 0x00, 0x09, 0x00, 0x08})
	// Track 1: wait 96 ticks, then its own note, then end.
	copy(rom[track1Off:], []byte{0xB0, 0xCF, 64, 90, 0xB1})

	off := 0x100
	result, err := Run(rom, Config{SongTableOffset: &off})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Songs) != 1 || result.Songs[0].Err != nil {
		t.Fatalf("expected one clean song, got %+v", result.Songs)
	}

	// Velocities are linearised (Raw is unset): 100 -> 112, 90 -> 106.
	b := result.Songs[0].MIDI
	if n := bytes.Count(b, []byte{60, 112}); n < 3 {
		t.Fatalf("expected track 0's loop body to replay at least 3 times while track 1 was still running, got %d NoteOn(60,112) in %x", n, b)
	}
	if !bytes.Contains(b, []byte{64, 106}) {
		t.Fatalf("expected track 1's own NoteOn(64,106) once it finally completed, got %x", b)
	}
}
