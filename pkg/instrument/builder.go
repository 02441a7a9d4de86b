package instrument

import (
	"github.com/sappyripper/gba-sappy-ripper/pkg/resources"
	"github.com/sappyripper/gba-sappy-ripper/pkg/soundfont"
)

// Builder maps GBA instrument records from one ROM into a single SF2
// document, de-duplicating samples by ROM offset across the whole run
// (spec §4.6, "Samples are de-duplicated by ROM offset").
type Builder struct {
	Doc               *soundfont.Document
	ROM               []byte
	DefaultSampleRate int

	sampleCache map[int]builtSample
	psgData     []byte
	synthData   []byte
}

// NewBuilder creates a Builder writing into doc, reading samples from rom,
// with defaultSampleRate (Hz) used for the pitch/root-key conversion in
// spec §4.6.
func NewBuilder(doc *soundfont.Document, rom []byte, defaultSampleRate int) *Builder {
	return &Builder{
		Doc:               doc,
		ROM:               rom,
		DefaultSampleRate: defaultSampleRate,
		sampleCache:       make(map[int]builtSample),
		psgData:           resources.PSGData(),
		synthData:         resources.GoldenSunSynth(),
	}
}

// BuildInstrument reads the 12-byte instrument record at offset and
// builds the corresponding SF2 instrument, per the tag table in spec
// §4.6. It returns the new instrument's index, whether it is a GameBoy
// (PSG pulse, channel-3 or noise) instrument — these never receive the
// initialAttenuation preset generator (spec §4.6, "Preset wiring"); a
// sampled record backed by a Golden-Sun synth sample is reported as not
// GameBoy — and
// an error for unknown tags or invalid sub-records, which the caller
// skips silently per spec §7.
func (b *Builder) BuildInstrument(offset int) (instIdx int, isGameBoy bool, err error) {
	rec, err := ReadRecord(b.ROM, offset)
	if err != nil {
		return 0, false, err
	}
	if rec.IsUnused() {
		return 0, false, ErrInstrumentInvalid
	}

	switch tag := rec.Tag(); tag {
	case 0x00, 0x10, 0x20, 0x30:
		return b.buildSampledInstrument(rec, false)
	case 0x08, 0x18, 0x28, 0x38:
		return b.buildSampledInstrument(rec, true)
	case 0x01, 0x09:
		return b.buildPulseInstrument(rec, 1)
	case 0x02, 0x0A:
		return b.buildPulseInstrument(rec, 2)
	case 0x03, 0x0B:
		return b.buildChannel3Instrument(rec)
	case 0x04, 0x0C:
		return b.buildNoiseInstrument(rec)
	case 0x40:
		return b.buildKeySplitInstrument(rec)
	case 0x80:
		return b.buildEveryKeySplitInstrument(rec)
	default:
		return 0, false, ErrInstrumentInvalid
	}
}

// builtSample is a sample's SF2 representation plus the pitch data
// derived from its header, cached across all instruments referencing the
// same ROM offset.
type builtSample struct {
	Index           int
	RootKey         uint8
	PitchCorrection int8
	Looping         bool
}

// buildSample reads and transcodes the GBA sample at offset into the SF2
// document, or returns a cached result if this offset was already built.
func (b *Builder) buildSample(offset int) (builtSample, error) {
	if cached, ok := b.sampleCache[offset]; ok {
		return cached, nil
	}

	gs, err := ReadGBASample(b.ROM, offset)
	if err != nil {
		return builtSample{}, err
	}
	if typ, ok := gs.IsGoldenSunSynth(); ok {
		built, err := b.buildGoldenSunSample(typ, gs.GoldenSunDuty())
		if err != nil {
			return builtSample{}, err
		}
		b.sampleCache[offset] = built
		return built, nil
	}

	var pcm []int16
	if gs.BDPCM {
		pcm = soundfont.TranscodeBDPCM(gs.Data, int(gs.Length))
	} else {
		pcm = soundfont.TranscodeUnsigned8(trimOrPad(gs.Data, int(gs.Length)))
	}

	rootKey, pitchCorrection := rootKeyAndCorrection(gs.PitchX1024, b.DefaultSampleRate)
	idx := b.Doc.AddSample("smp", pcm, gs.Looping, int(gs.LoopPos), uint32(b.DefaultSampleRate), rootKey, pitchCorrection)

	built := builtSample{Index: idx, RootKey: rootKey, PitchCorrection: pitchCorrection, Looping: gs.Looping}
	b.sampleCache[offset] = built
	return built, nil
}

// trimOrPad returns data truncated or zero-extended to exactly n bytes.
func trimOrPad(data []byte, n int) []byte {
	if len(data) == n {
		return data
	}
	out := make([]byte, n)
	copy(out, data)
	return out
}
