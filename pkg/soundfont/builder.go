package soundfont

// AddInstrument appends an inst record whose BagNdx points at the next bag
// slot (not yet created). Callers must follow with one or more
// AddInstrumentZone calls before adding the next instrument, per the
// append-only bag-index invariant in spec §3/§9.
func (d *Document) AddInstrument(name string) int {
	d.Instruments = append(d.Instruments, InstrumentHeader{
		Name:   truncate20(name),
		BagNdx: uint16(len(d.IBag)),
	})
	return len(d.Instruments) - 1
}

// AddInstrumentZone appends one ibag record (pointing at the next
// generator/modulator slot) followed by its generators, in the order the
// caller supplies them. spec §4.6 requires keyRange first when present.
func (d *Document) AddInstrumentZone(gens []GenRecord, mods []ModRecord) {
	d.IBag = append(d.IBag, bagEntry{
		GenNdx: uint16(len(d.IGen)),
		ModNdx: uint16(len(d.IMod)),
	})
	d.IGen = append(d.IGen, gens...)
	d.IMod = append(d.IMod, mods...)
}

// AddPreset appends a phdr record whose BagNdx points at the next bag slot.
func (d *Document) AddPreset(name string, bank, patch uint16) int {
	d.Presets = append(d.Presets, PresetHeader{
		Name:   truncate20(name),
		Bank:   bank,
		Preset: patch,
		BagNdx: uint16(len(d.PBag)),
	})
	return len(d.Presets) - 1
}

// AddPresetZone appends one pbag record followed by its generators.
func (d *Document) AddPresetZone(gens []GenRecord, mods []ModRecord) {
	d.PBag = append(d.PBag, bagEntry{
		GenNdx: uint16(len(d.PGen)),
		ModNdx: uint16(len(d.PMod)),
	})
	d.PGen = append(d.PGen, gens...)
	d.PMod = append(d.PMod, mods...)
}

func truncate20(s string) string {
	if len(s) > 20 {
		return s[:20]
	}
	return s
}

// Close appends the mandatory terminator records (EOS/EOI/EOP sample,
// instrument, and preset, plus one trailing blank bag/generator/modulator
// per hydra list) exactly once, per spec §4.4. It is idempotent; Write
// calls it if it has not been called yet.
func (d *Document) Close() {
	if d.closed {
		return
	}
	d.closed = true

	d.Samples = append(d.Samples, SampleHeader{Name: "EOS"})

	d.Instruments = append(d.Instruments, InstrumentHeader{
		Name:   "EOI",
		BagNdx: uint16(len(d.IBag)),
	})
	d.IBag = append(d.IBag, bagEntry{GenNdx: uint16(len(d.IGen)), ModNdx: uint16(len(d.IMod))})
	d.IGen = append(d.IGen, GenRecord{})
	d.IMod = append(d.IMod, ModRecord{})

	d.Presets = append(d.Presets, PresetHeader{
		Name:   "EOP",
		BagNdx: uint16(len(d.PBag)),
	})
	d.PBag = append(d.PBag, bagEntry{GenNdx: uint16(len(d.PGen)), ModNdx: uint16(len(d.PMod))})
	d.PGen = append(d.PGen, GenRecord{})
	d.PMod = append(d.PMod, ModRecord{})
}
