package instrument

import "github.com/sappyripper/gba-sappy-ripper/pkg/soundfont"

// buildSampledInstrument builds an SF2 instrument for a plain sampled
// GBA instrument record (tags 0x00/0x10/0x20/0x30, or the fixed-pitch
// variants 0x08/0x18/0x28/0x38), per spec §4.6.
func (b *Builder) buildSampledInstrument(rec Record, fixedPitch bool) (int, bool, error) {
	sample, err := b.buildSample(rec.PointerLow())
	if err != nil {
		return 0, false, err
	}

	gens := appendEnvelopeGens(nil, sampledEnvelope(rec.ADSR()))
	if fixedPitch {
		gens = append(gens, soundfont.GenRecord{Gen: soundfont.GenScaleTuning, Amount: soundfont.Amount(0)})
	}
	sampleModes := int16(soundfont.SampleModeNoLoop)
	if sample.Looping {
		sampleModes = soundfont.SampleModeLooping
	}
	gens = append(gens,
		soundfont.GenRecord{Gen: soundfont.GenSampleModes, Amount: soundfont.Amount(sampleModes)},
		soundfont.GenRecord{Gen: soundfont.GenSampleID, Amount: soundfont.Amount(int16(sample.Index))},
	)

	instIdx := b.Doc.AddInstrument("inst")
	b.Doc.AddInstrumentZone(gens, nil)
	return instIdx, false, nil
}
