package sequencer

import (
	"bytes"
	"testing"

	"github.com/sappyripper/gba-sappy-ripper/pkg/midi"
)

// buildROM lays out a byte stream at a fixed offset so multiple tracks
// (and loop/call targets) can be addressed by plain slice index.
func buildROM(size int, program map[int][]byte) []byte {
	rom := make([]byte, size)
	for off, data := range program {
		copy(rom[off:], data)
	}
	return rom
}

// TestSingleNote covers spec §8 scenario 2: one key-on/key-off pair on
// a single track produces exactly one NoteOn and one NoteOff.
func TestSingleNote(t *testing.T) {
	rom := buildROM(64, map[int][]byte{
		0: {0xD4, 60, 100, 0xB1}, // key-on length-index 4 (value 5), key 60, vel 100; end
	})
	mid := midi.Open(midi.DefaultPPQN)
	s := New(rom, mid, []int{0}, Options{})
	s.Run()

	b := mid.Bytes()
	if !bytes.Contains(b, []byte{0x90, 60, 100}) {
		t.Fatalf("expected a NoteOn(60,100) event in %x", b)
	}
	if !bytes.Contains(b, []byte{0x80, 60, 100}) {
		t.Fatalf("expected a NoteOff(60,100) event in %x", b)
	}
}

// TestCallReturn covers spec §8 scenario 3: 0xB3 jumps into a
// subroutine and 0xB4 returns to the instruction right after the call.
func TestCallReturn(t *testing.T) {
	// Layout: [0] call 0x10 ; [5] end (never reached directly)
	// [0x10] key-on ; [0x13] return
	rom := buildROM(64, map[int][]byte{
		0:    {0xB3, 0x10, 0x00, 0x00, 0x08}, // call GBA pointer 0x08000010, little-endian
		5:    {0xB1},
		0x10: {0xCF, 72, 90}, // indefinite key-on, key 72 vel 90
		0x13: {0xB4},         // return
	})
	mid := midi.Open(midi.DefaultPPQN)
	s := New(rom, mid, []int{0}, Options{})
	s.Run()

	b := mid.Bytes()
	if !bytes.Contains(b, []byte{0x90, 72, 90}) {
		t.Fatalf("expected NoteOn(72,90) from the called subroutine, got %x", b)
	}
}

// TestRunningStatus covers spec §8 scenario 4: a second key-on with no
// opcode byte reuses the previous command, consuming its argument(s)
// without treating the first argument byte as a new opcode. Indefinite
// key-ons (0xCF) are used here since their duration never swallows a
// trailing byte, keeping the running-status argument count unambiguous.
func TestRunningStatus(t *testing.T) {
	rom := buildROM(64, map[int][]byte{
		0: {0xCF, 60, 100, 64, 90, 0xB1},
	})
	mid := midi.Open(midi.DefaultPPQN)
	s := New(rom, mid, []int{0}, Options{})
	s.Run()

	// Both key-ons land in the same tick. New notes go to the front of
	// notes_playing, so the later one (64,90) is announced first with the
	// 0x90 status byte and the earlier one (60,100) follows at delta 0
	// under MIDI running status.
	b := mid.Bytes()
	if !bytes.Contains(b, []byte{0x90, 64, 90}) {
		t.Fatalf("expected running-status-decoded NoteOn(64,90) with its status byte in %x", b)
	}
	if !bytes.Contains(b, []byte{0x00, 60, 100}) {
		t.Fatalf("expected NoteOn(60,100) without a status byte in %x", b)
	}
}

// TestKeyOffExplicitKey covers 0xCE with an explicit key argument,
// releasing a specific held note rather than the most recent one.
func TestKeyOffExplicitKey(t *testing.T) {
	rom := buildROM(64, map[int][]byte{
		0: {
			0xCF, 60, 100, // hold key 60
			0xCF, 64, 90, // hold key 64
			0xCE, 60, // explicit key-off for 60, not the most recent 64
			0xB1,
		},
	})
	mid := midi.Open(midi.DefaultPPQN)
	s := New(rom, mid, []int{0}, Options{})
	s.Run()

	b := mid.Bytes()
	if !bytes.Contains(b, []byte{0x80, 60, 100}) {
		t.Fatalf("expected NoteOff(60,100) for the explicitly released key in %x", b)
	}
}

// TestVMIterationCap ensures a track stream with no terminating 0xB1 is
// bounded by MaxIterations rather than looping forever. A run of wait
// opcodes (0xB0, never completing the track) stands in for malformed
// or truncated data with no end-of-track marker.
func TestVMIterationCap(t *testing.T) {
	waits := bytes.Repeat([]byte{0xB0}, MaxIterations)
	rom := buildROM(len(waits), map[int][]byte{0: waits})
	mid := midi.Open(midi.DefaultPPQN)
	s := New(rom, mid, []int{0}, Options{})
	s.Run()

	if s.iterations != MaxIterations {
		t.Fatalf("expected the run to exhaust the iteration cap, got %d", s.iterations)
	}
}

// TestLoopMarkers covers spec §4.5's loop detection: a jump opcode just
// before the track pointer's scan window produces loopStart/loopEnd
// markers bracketing the loop, and the loop body itself keeps executing
// on every tick (not just once) for as long as some other track is still
// running — track 1 here outlasts track 0's loop by 96 ticks, so the
// loop body's note-on must appear many times before track 1's own 0xB1
// finally lets the "all tracks completed" check end the run.
func TestLoopMarkers(t *testing.T) {
	rom := buildROM(64, map[int][]byte{
		// [0] note, [3] jump-to-0 (the loop), placed so DetectLoop's
		// 5-byte backward scan from offset 8 (track 1's start) finds it.
		0: {0xCF, 60, 100, 0xB2, 0x00, 0x00, 0x00, 0x08},
		8: {0xB0, 0xCF, 64, 90, 0xB1}, // wait 96 ticks, then a note, then end
	})
	mid := midi.Open(midi.DefaultPPQN)
	s := New(rom, mid, []int{0, 8}, Options{})
	s.DetectLoop(8)
	if !s.loopFlag {
		t.Fatalf("expected DetectLoop to find the jump opcode")
	}

	s.Run()
	b := mid.Bytes()
	if !bytes.Contains(b, []byte("loopStart")) {
		t.Fatalf("expected a loopStart marker in %x", b)
	}
	if !bytes.Contains(b, []byte("loopEnd")) {
		t.Fatalf("expected a loopEnd marker in %x", b)
	}
	if n := bytes.Count(b, []byte{60, 100}); n < 3 {
		t.Fatalf("expected track 0's loop body to replay at least 3 times while track 1 was still running, got %d NoteOn(60,100) in %x", n, b)
	}
	if !bytes.Contains(b, []byte{64, 90}) {
		t.Fatalf("expected track 1's own NoteOn(64,90) once it finally completed, got %x", b)
	}
}

// TestMultiTrackCompletion checks that the run only ends once every
// track reaches its own 0xB1, even though track 0 never does.
func TestMultiTrackCompletion(t *testing.T) {
	waits := bytes.Repeat([]byte{0xB0}, MaxIterations)
	track1 := MaxIterations
	rom := buildROM(track1+64, map[int][]byte{
		0:      waits,                 // track 0: never reaches an end-of-track opcode
		track1: {0xCF, 60, 100, 0xB1}, // track 1: one note, then end
	})
	mid := midi.Open(midi.DefaultPPQN)
	s := New(rom, mid, []int{0, track1}, Options{})
	s.Run()

	if s.iterations != MaxIterations {
		t.Fatalf("expected track 0's unterminated stream to exhaust the iteration cap, got %d", s.iterations)
	}
	b := mid.Bytes()
	// Track 1 plays on MIDI channel 1, so its NoteOn status byte is 0x91.
	if !bytes.Contains(b, []byte{0x91, 60, 100}) {
		t.Fatalf("expected track 1's NoteOn to have been emitted before the cap, got %x", b)
	}
}

// TestTempoOpcode checks 0xBB maps to twice the argument byte as BPM.
func TestTempoOpcode(t *testing.T) {
	rom := buildROM(64, map[int][]byte{
		0: {0xBB, 60, 0xB1}, // tempo arg 60 -> 120 BPM
	})
	mid := midi.Open(midi.DefaultPPQN)
	s := New(rom, mid, []int{0}, Options{})
	s.Run()

	b := mid.Bytes()
	// A tempo meta event (FF 51 03) should appear somewhere in the stream.
	if !bytes.Contains(b, []byte{0xFF, 0x51, 0x03}) {
		t.Fatalf("expected a tempo meta event in %x", b)
	}
}

// TestProgramChangeBankOverride checks that a configured BankOverride
// emits a bank-select CC immediately before the program change.
func TestProgramChangeBankOverride(t *testing.T) {
	rom := buildROM(64, map[int][]byte{
		0: {0xBD, 5, 0xB1}, // program change to patch 5
	})
	bank := uint16(3)
	mid := midi.Open(midi.DefaultPPQN)
	s := New(rom, mid, []int{0}, Options{BankOverride: &bank})
	s.Run()

	b := mid.Bytes()
	if !bytes.Contains(b, []byte{0xB0, 0, 3}) {
		t.Fatalf("expected bank-select CC0=3 before the program change, got %x", b)
	}
	if !bytes.Contains(b, []byte{0xC0, 5}) {
		t.Fatalf("expected ProgramChange(5) in %x", b)
	}
}
