package sequencer

import (
	"log"

	"github.com/sappyripper/gba-sappy-ripper/pkg/gbarom"
	"github.com/sappyripper/gba-sappy-ripper/pkg/midi"
)

// MaxIterations hard-caps the outer tick loop to guarantee termination on
// malformed data, per spec §4.5/§9.
const MaxIterations = 100000

// New creates a Sequencer for a song with the given track start offsets
// (1..16 entries, per spec §3's song-header constraint), writing events
// to mid.
func New(rom []byte, mid *midi.Emitter, trackPtrs []int, opt Options) *Sequencer {
	s := &Sequencer{rom: rom, mid: mid, opt: opt, trackCount: len(trackPtrs)}
	for t, p := range trackPtrs {
		s.tracks[t] = track{ptr: p, lastVel: 127}
	}
	return s
}

// DetectLoop scans the 5 bytes preceding scanFrom (the start of track 1,
// or the song header for a single-track song) for the jump opcode 0xB2,
// per spec §4.5's loop-detection paragraph. It configures the
// Sequencer's loop state and must be called before Run.
func (s *Sequencer) DetectLoop(scanFrom int) {
	lo := scanFrom - 5
	if lo < 0 {
		lo = 0
	}
	for i := lo; i < scanFrom; i++ {
		if i < len(s.rom) && s.rom[i] == 0xB2 {
			if addr, err := gbarom.New(s.rom).GBAPointerAt(i + 1); err == nil {
				s.loopFlag = true
				s.loopAddr = addr
				return
			}
		}
	}
}

// Run drives the tick loop to completion (all tracks completed) or until
// the MaxIterations safety cap is hit, in which case it logs a
// diagnostic and returns with whatever partial output has already been
// written to mid, per spec §4.5/§7.
func (s *Sequencer) Run() {
	for s.iterations < MaxIterations {
		s.iterations++
		if s.tick() {
			if s.loopFlag {
				s.mid.Marker("loopEnd")
			}
			return
		}
	}
	log.Printf("sequencer: hit %d-iteration safety cap, returning partial output", MaxIterations)
}
