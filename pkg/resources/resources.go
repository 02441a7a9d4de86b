// Package resources holds the two fixed reference-recording blobs the
// instrument builder synthesises PSG and Golden-Sun waveforms from
// (spec §4.6, §9). They are process-wide constants: every caller gets its
// own copy of the same bytes.
package resources

import (
	_ "embed"
	"sync"
)

//go:embed data/psg_data.bin
var psgData []byte

//go:embed data/goldensun_synth.bin
var goldenSunSynth []byte

var (
	once       sync.Once
	psgCopy    []byte
	synthCopy  []byte
)

// load makes an independent copy of each embedded blob on first use so that
// a caller mutating the slice it receives can never corrupt another
// caller's view.
func load() {
	psgCopy = append([]byte(nil), psgData...)
	synthCopy = append([]byte(nil), goldenSunSynth...)
}

// PSGData returns an independent copy of the band-limited pulse/noise
// reference recordings (psg_data).
func PSGData() []byte {
	once.Do(load)
	out := make([]byte, len(psgCopy))
	copy(out, psgCopy)
	return out
}

// GoldenSunSynth returns an independent copy of the square/saw/triangle
// synth tables (goldensun_synth).
func GoldenSunSynth() []byte {
	once.Do(load)
	out := make([]byte, len(synthCopy))
	copy(out, synthCopy)
	return out
}
