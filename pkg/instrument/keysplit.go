package instrument

import (
	"math"

	"github.com/sappyripper/gba-sappy-ripper/pkg/gbarom"
	"github.com/sappyripper/gba-sappy-ripper/pkg/soundfont"
)

func isSampledTag(tag uint8) bool {
	switch tag {
	case 0x00, 0x10, 0x20, 0x30, 0x08, 0x18, 0x28, 0x38:
		return true
	}
	return false
}

func isFixedPitchTag(tag uint8) bool {
	switch tag {
	case 0x08, 0x18, 0x28, 0x38:
		return true
	}
	return false
}

// buildKeySplitInstrument builds a tag-0x40 key-split instrument: a
// 128-byte key-to-subinstrument-index map selects one of several 12-byte
// sub-instrument records per key range, per spec §4.6. Only sampled
// sub-types are supported; other sub-types are skipped.
func (b *Builder) buildKeySplitInstrument(rec Record) (int, bool, error) {
	keyMap, err := gbarom.New(b.ROM).Slice(rec.PointerHigh(), 128)
	if err != nil {
		return 0, false, ErrInstrumentInvalid
	}

	instIdx := b.Doc.AddInstrument("keysplit")
	zonesAdded := false

	for lo := 0; lo < 128; {
		idx := keyMap[lo]
		hi := lo
		for hi+1 < 128 && keyMap[hi+1] == idx {
			hi++
		}

		subRec, err := ReadRecord(b.ROM, rec.PointerLow()+12*int(idx))
		if err == nil && isSampledTag(subRec.Tag()) {
			if sample, err := b.buildSample(subRec.PointerLow()); err == nil {
				sampleModes := int16(soundfont.SampleModeNoLoop)
				if sample.Looping {
					sampleModes = soundfont.SampleModeLooping
				}
				gens := []soundfont.GenRecord{
					{Gen: soundfont.GenKeyRange, Amount: soundfont.RangeAmount(uint8(lo), uint8(hi))},
					{Gen: soundfont.GenSampleModes, Amount: soundfont.Amount(sampleModes)},
					{Gen: soundfont.GenSampleID, Amount: soundfont.Amount(int16(sample.Index))},
				}
				b.Doc.AddInstrumentZone(gens, nil)
				zonesAdded = true
			}
		}

		lo = hi + 1
	}

	if !zonesAdded {
		return 0, false, ErrInstrumentInvalid
	}
	return instIdx, false, nil
}

// buildEveryKeySplitInstrument builds a tag-0x80 every-key-split
// instrument: 128 contiguous 12-byte sub-instrument records, one per
// MIDI key, per spec §4.6.
func (b *Builder) buildEveryKeySplitInstrument(rec Record) (int, bool, error) {
	instIdx := b.Doc.AddInstrument("everykeysplit")
	zonesAdded := false
	sawGameBoy := false

	for key := 0; key < 128; key++ {
		subRec, err := ReadRecord(b.ROM, rec.PointerLow()+12*key)
		if err != nil || subRec.IsUnused() {
			continue
		}

		switch {
		case isSampledTag(subRec.Tag()):
			sample, err := b.buildSample(subRec.PointerLow())
			if err != nil {
				continue
			}
			keynum := subRec.Key()
			overridingRoot := clampKey(int(sample.RootKey) - int(keynum) + key)

			gens := []soundfont.GenRecord{
				{Gen: soundfont.GenKeyRange, Amount: soundfont.RangeAmount(uint8(key), uint8(key))},
			}
			gens = appendEnvelopeGens(gens, sampledEnvelope(subRec.ADSR()))
			if isFixedPitchTag(subRec.Tag()) {
				gens = append(gens, soundfont.GenRecord{Gen: soundfont.GenScaleTuning, Amount: soundfont.Amount(0)})
			}
			gens = append(gens, soundfont.GenRecord{Gen: soundfont.GenOverridingRootKey, Amount: soundfont.Amount(int16(overridingRoot))})
			if panning := subRec.Panning(); panning != 0 {
				pan := int16(math.Round((float64(panning) - 192) * (500.0 / 128)))
				gens = append(gens, soundfont.GenRecord{Gen: soundfont.GenPan, Amount: soundfont.Amount(pan)})
			}
			sampleModes := int16(soundfont.SampleModeNoLoop)
			if sample.Looping {
				sampleModes = soundfont.SampleModeLooping
			}
			gens = append(gens,
				soundfont.GenRecord{Gen: soundfont.GenSampleModes, Amount: soundfont.Amount(sampleModes)},
				soundfont.GenRecord{Gen: soundfont.GenSampleID, Amount: soundfont.Amount(int16(sample.Index))},
			)
			b.Doc.AddInstrumentZone(gens, nil)
			zonesAdded = true

		case subRec.Tag() == 0x04 || subRec.Tag() == 0x0C:
			if subRec.Duty() > 1 {
				continue
			}
			env, err := psgEnvelope(subRec.ADSR())
			if err != nil {
				continue
			}
			sampleIdx := b.noiseSampleForKey(uint8(key))
			gens := []soundfont.GenRecord{
				{Gen: soundfont.GenKeyRange, Amount: soundfont.RangeAmount(uint8(key), uint8(key))},
			}
			gens = appendEnvelopeGens(gens, env)
			gens = append(gens,
				soundfont.GenRecord{Gen: soundfont.GenSampleModes, Amount: soundfont.Amount(soundfont.SampleModeLooping)},
				soundfont.GenRecord{Gen: soundfont.GenSampleID, Amount: soundfont.Amount(int16(sampleIdx))},
			)
			b.Doc.AddInstrumentZone(gens, nil)
			zonesAdded = true
			sawGameBoy = true

		default:
			continue
		}
	}

	if !zonesAdded {
		return 0, false, ErrInstrumentInvalid
	}
	return instIdx, sawGameBoy, nil
}

func clampKey(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return uint8(v)
}
