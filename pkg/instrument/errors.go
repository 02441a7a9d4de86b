// Package instrument maps GBA instrument records (sampled, key-split,
// every-key-split, PSG pulse/wave/noise) to SF2 instrument/sample records,
// with ADSR envelope conversion, loop-point resolution, and PSG waveform
// synthesis from the embedded reference recordings in pkg/resources.
//
// Grounded on the teacher's pkg/stsound/ym2149ex.go envelope/volume
// lookup-table construction for the ADSR/PSG-ADSR conversion math, and
// ymmusic.go's DigiDrum (a raw PCM sample played back at a programmable
// rate) for the sampled-instrument and PSG-synthesis machinery.
package instrument

import "errors"

// ErrSampleInvalid and ErrInstrumentInvalid are caught locally by the
// builder: the offending instrument or sample is skipped and processing
// continues, per spec §7 — real ROMs contain garbage entries in unused
// slots.
var (
	ErrSampleInvalid     = errors.New("instrument: invalid GBA sample record")
	ErrInstrumentInvalid = errors.New("instrument: invalid or unsupported instrument record")
)
