package instrument

import "github.com/sappyripper/gba-sappy-ripper/pkg/soundfont"

// Golden-Sun synthetic waveform layout within goldensun_synth, per spec
// §4.6: a 64-sample saw at offset 0, a 64-sample triangle at offset 64,
// then a 8192-sample variable-duty square table at offset 128 (128
// consecutive 64-sample duty steps).
const (
	goldenSunSawOffset      = 0
	goldenSunTriangleOffset = 64
	goldenSunSquareOffset   = 128
	goldenSunWaveLen        = 64
)

// buildGoldenSunSample synthesizes the SF2 sample for a Golden-Sun
// synthetic instrument marker (type 0 square, 1 saw, 2 triangle), per
// spec §4.6. All three are 64-sample looping waveforms; the square's
// offset additionally depends on duty.
func (b *Builder) buildGoldenSunSample(typ, duty uint8) (builtSample, error) {
	var offset int
	switch typ {
	case 0:
		offset = goldenSunSquareOffset + goldenSunWaveLen*(int(duty)>>2)
	case 1:
		offset = goldenSunSawOffset
	case 2:
		offset = goldenSunTriangleOffset
	default:
		return builtSample{}, ErrInstrumentInvalid
	}

	byteOff := offset * 2
	end := byteOff + goldenSunWaveLen*2
	if end > len(b.synthData) {
		return builtSample{}, ErrSampleInvalid
	}
	pcm := soundfont.TranscodeSigned16(b.synthData[byteOff:end])

	idx := b.Doc.AddSample("gsSynth", pcm, true, 0, uint32(b.DefaultSampleRate), 60, 0)
	return builtSample{Index: idx, RootKey: 60, PitchCorrection: 0, Looping: true}, nil
}
