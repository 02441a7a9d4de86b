package instrument

import (
	"math"

	"github.com/sappyripper/gba-sappy-ripper/pkg/soundfont"
)

// AddPreset wires a built instrument into a preset at {bank, patch}, per
// spec §4.6's "Preset wiring": sampled/split instruments whose bank main
// volume is below the maximum (15) get an initialAttenuation generator;
// GameBoy instruments never do.
func (b *Builder) AddPreset(name string, bank, patch uint16, instIdx int, mainVolume int, isGameBoy bool) int {
	presetIdx := b.Doc.AddPreset(name, bank, patch)

	var gens []soundfont.GenRecord
	if !isGameBoy && mainVolume < 15 {
		atten := 100 * math.Log(15/float64(mainVolume))
		gens = append(gens, soundfont.GenRecord{
			Gen:    soundfont.GenInitialAttenuation,
			Amount: soundfont.Amount(int16(math.Round(atten))),
		})
	}
	gens = append(gens, soundfont.GenRecord{
		Gen:    soundfont.GenInstrument,
		Amount: soundfont.Amount(int16(instIdx)),
	})
	b.Doc.AddPresetZone(gens, nil)
	return presetIdx
}
