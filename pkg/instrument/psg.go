package instrument

import (
	"github.com/sappyripper/gba-sappy-ripper/pkg/gbarom"
	"github.com/sappyripper/gba-sappy-ripper/pkg/soundfont"
)

// keyRange is an inclusive MIDI key span.
type keyRange struct{ Lo, Hi uint8 }

// Pulse (GB channels 1/2) loop regions: 5 per duty cycle, sizes per spec
// §4.6, at the byte offsets pkg/resources' placeholder psg_data.bin
// lays out. Each duty's table spans 1334 samples (the sum of the 5
// region sizes), so row d's offsets are row 0's plus d*1334 — kept as
// an explicit table rather than computed, to document the
// layout alongside the data it addresses.
var (
	pulseRegionSizes = [5]int{689, 344, 172, 86, 43}
	pulseKeyRanges   = [5]keyRange{{0, 45}, {46, 57}, {58, 69}, {70, 81}, {82, 127}}
	pulseRegionOffset = [3][5]int{
		{0, 689, 1033, 1205, 1291},
		{1334, 2023, 2367, 2539, 2625},
		{2668, 3357, 3701, 3873, 3959},
	}
)

const (
	noiseSectionStart = 4002
	noiseRegionLen    = 256
	noiseKeyLo        = 42
	noiseKeyHi        = 77
	// noiseKeyHiClamp is the open-question clamp: keys above noiseKeyHi
	// reuse the recording for key 76, not 77 (spec §9).
	noiseKeyHiClamp = 76
)

var (
	ch3RegionSizes = [4]int{256, 128, 64, 32}
	ch3KeyRanges   = [4]keyRange{{0, 52}, {53, 64}, {65, 76}, {77, 127}}
)

// loadPSGSigned16 reads size signed-16 LE samples at a sample offset
// (not byte offset) into the psg_data blob.
func (b *Builder) loadPSGSigned16(sampleOffset, size int) []int16 {
	byteOff := sampleOffset * 2
	end := byteOff + size*2
	if end > len(b.psgData) {
		end = len(b.psgData)
	}
	if byteOff > len(b.psgData) {
		byteOff = len(b.psgData)
	}
	return soundfont.TranscodeSigned16(b.psgData[byteOff:end])
}

// buildPulseInstrument builds a GB pulse-channel (1 or 2) instrument from
// the embedded psg_data recordings, per spec §4.6. channel is unused
// beyond documentation purposes: both GB pulse channels share the same
// duty-cycle waveform table.
func (b *Builder) buildPulseInstrument(rec Record, channel int) (int, bool, error) {
	duty := rec.Duty()
	if duty > 3 {
		return 0, false, ErrInstrumentInvalid
	}
	if duty == 3 {
		duty = 1
	}

	env, err := psgEnvelope(rec.ADSR())
	if err != nil {
		return 0, false, err
	}

	instIdx := b.Doc.AddInstrument("pulse")
	for i, kr := range pulseKeyRanges {
		size := pulseRegionSizes[i]
		offset := pulseRegionOffset[duty][i]
		pcm := b.loadPSGSigned16(offset, size)
		rootKey := (kr.Lo + kr.Hi) / 2
		sampleIdx := b.Doc.AddSample("pulse", pcm, true, 0, uint32(b.DefaultSampleRate), rootKey, 0)

		gens := []soundfont.GenRecord{{Gen: soundfont.GenKeyRange, Amount: soundfont.RangeAmount(kr.Lo, kr.Hi)}}
		gens = appendEnvelopeGens(gens, env)
		gens = append(gens,
			soundfont.GenRecord{Gen: soundfont.GenSampleModes, Amount: soundfont.Amount(soundfont.SampleModeLooping)},
			soundfont.GenRecord{Gen: soundfont.GenSampleID, Amount: soundfont.Amount(int16(sampleIdx))},
		)
		b.Doc.AddInstrumentZone(gens, nil)
	}
	return instIdx, true, nil
}

// buildChannel3Instrument builds a GB channel-3 (waveform RAM) instrument
// by expanding the referenced 16-byte waveform into each key range's
// region size, per spec §4.6.
func (b *Builder) buildChannel3Instrument(rec Record) (int, bool, error) {
	ram, err := gbarom.New(b.ROM).Slice(rec.PointerLow(), 16)
	if err != nil {
		return 0, false, ErrSampleInvalid
	}

	env, err := psgEnvelope(rec.ADSR())
	if err != nil {
		return 0, false, err
	}

	instIdx := b.Doc.AddInstrument("ch3")
	for i, kr := range ch3KeyRanges {
		size := ch3RegionSizes[i]
		pcm := soundfont.TranscodeGameBoyCh3(ram, size)
		rootKey := (kr.Lo + kr.Hi) / 2
		sampleIdx := b.Doc.AddSample("ch3", pcm, true, 0, uint32(b.DefaultSampleRate), rootKey, 0)

		gens := []soundfont.GenRecord{{Gen: soundfont.GenKeyRange, Amount: soundfont.RangeAmount(kr.Lo, kr.Hi)}}
		gens = appendEnvelopeGens(gens, env)
		gens = append(gens,
			soundfont.GenRecord{Gen: soundfont.GenSampleModes, Amount: soundfont.Amount(soundfont.SampleModeLooping)},
			soundfont.GenRecord{Gen: soundfont.GenSampleID, Amount: soundfont.Amount(int16(sampleIdx))},
		)
		b.Doc.AddInstrumentZone(gens, nil)
	}
	return instIdx, true, nil
}

// buildNoiseInstrument builds a GB noise instrument from one
// pre-synthesized recording per key in [42,77], plus clamped zones below
// and above that range (spec §4.6; the above-77 clamp reuses key 76's
// recording per the documented open question in spec §9).
func (b *Builder) buildNoiseInstrument(rec Record) (int, bool, error) {
	mode := rec.Duty()
	if mode > 1 {
		return 0, false, ErrInstrumentInvalid
	}

	env, err := psgEnvelope(rec.ADSR())
	if err != nil {
		return 0, false, err
	}

	instIdx := b.Doc.AddInstrument("noise")

	addZone := func(lo, hi uint8, sampleIdx int, scaleTuning bool) {
		gens := []soundfont.GenRecord{{Gen: soundfont.GenKeyRange, Amount: soundfont.RangeAmount(lo, hi)}}
		gens = appendEnvelopeGens(gens, env)
		if scaleTuning {
			gens = append(gens, soundfont.GenRecord{Gen: soundfont.GenScaleTuning, Amount: soundfont.Amount(0)})
		}
		gens = append(gens,
			soundfont.GenRecord{Gen: soundfont.GenSampleModes, Amount: soundfont.Amount(soundfont.SampleModeLooping)},
			soundfont.GenRecord{Gen: soundfont.GenSampleID, Amount: soundfont.Amount(int16(sampleIdx))},
		)
		b.Doc.AddInstrumentZone(gens, nil)
	}

	lowSample := b.noiseSampleForKey(uint8(noiseKeyLo))
	addZone(0, noiseKeyLo-1, lowSample, true)

	for key := noiseKeyLo; key <= noiseKeyHi; key++ {
		addZone(uint8(key), uint8(key), b.noiseSampleForKey(uint8(key)), false)
	}

	highSample := b.noiseSampleForKey(noiseKeyHiClamp)
	addZone(noiseKeyHi+1, 127, highSample, true)

	return instIdx, true, nil
}

// noiseSampleForKey adds a new SF2 sample holding the noise recording for
// key, clamped to [noiseKeyLo,noiseKeyHi] with the noiseKeyHiClamp bug
// preserved. Every call adds a sample; noise samples are not cached.
func (b *Builder) noiseSampleForKey(key uint8) int {
	clamped := key
	if clamped < noiseKeyLo {
		clamped = noiseKeyLo
	} else if clamped > noiseKeyHi {
		clamped = noiseKeyHiClamp
	}
	idx := int(clamped) - noiseKeyLo
	offset := noiseSectionStart + idx*noiseRegionLen
	pcm := b.loadPSGSigned16(offset, noiseRegionLen)
	return b.Doc.AddSample("noise", pcm, true, 0, uint32(b.DefaultSampleRate), key, 0)
}
