package soundfont

import (
	"bytes"
	"encoding/binary"
	"io"
)

// Fixed header strings, per spec §4.4.
const (
	isngString = "EMU8000"
	inamString = "Unnamed"
	iengString = "Nintendo Game Boy Advance SoundFont"
	icopString = "Ripped with SF2Ripper v0.0 (c) 2012 by Bregalad"
)

func writeChunk(w *bytes.Buffer, id string, body []byte) {
	w.WriteString(id)
	binary.Write(w, binary.LittleEndian, uint32(len(body)))
	w.Write(body)
	if len(body)%2 != 0 {
		w.WriteByte(0) // RIFF chunks pad to an even boundary
	}
}

func nulString(s string, fixedLen int) []byte {
	b := make([]byte, fixedLen)
	n := copy(b, s)
	_ = n
	return b
}

func infoSubchunk(id, s string) []byte {
	var buf bytes.Buffer
	writeChunk(&buf, id, append([]byte(s), 0))
	return buf.Bytes()
}

func buildINFO() []byte {
	var body bytes.Buffer
	// ifil: major=2 minor=1
	var ifil bytes.Buffer
	binary.Write(&ifil, binary.LittleEndian, uint16(2))
	binary.Write(&ifil, binary.LittleEndian, uint16(1))
	writeChunk(&body, "ifil", ifil.Bytes())

	body.Write(infoSubchunk("isng", isngString))
	body.Write(infoSubchunk("INAM", inamString))
	body.Write(infoSubchunk("IENG", iengString))
	body.Write(infoSubchunk("ICOP", icopString))

	var out bytes.Buffer
	out.WriteString("LIST")
	listBody := append([]byte("INFO"), body.Bytes()...)
	binary.Write(&out, binary.LittleEndian, uint32(len(listBody)))
	out.Write(listBody)
	return out.Bytes()
}

func buildSDTA(smpl []byte) []byte {
	var body bytes.Buffer
	writeChunk(&body, "smpl", smpl)

	var out bytes.Buffer
	out.WriteString("LIST")
	listBody := append([]byte("sdta"), body.Bytes()...)
	binary.Write(&out, binary.LittleEndian, uint32(len(listBody)))
	out.Write(listBody)
	return out.Bytes()
}

func packPhdr(p PresetHeader) []byte {
	b := make([]byte, 38)
	copy(b[0:20], nulString(p.Name, 20))
	binary.LittleEndian.PutUint16(b[20:], p.Preset)
	binary.LittleEndian.PutUint16(b[22:], p.Bank)
	binary.LittleEndian.PutUint16(b[24:], p.BagNdx)
	binary.LittleEndian.PutUint32(b[26:], p.Library)
	binary.LittleEndian.PutUint32(b[30:], p.Genre)
	binary.LittleEndian.PutUint32(b[34:], p.Morphology)
	return b
}

func packBag(b bagEntry) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint16(out[0:], b.GenNdx)
	binary.LittleEndian.PutUint16(out[2:], b.ModNdx)
	return out
}

func packMod(ModRecord) []byte {
	return make([]byte, 10)
}

func packGen(g GenRecord) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint16(out[0:], uint16(g.Gen))
	if g.Amount.Range {
		out[2] = g.Amount.Lo
		out[3] = g.Amount.Hi
	} else {
		binary.LittleEndian.PutUint16(out[2:], uint16(g.Amount.ShortAmt))
	}
	return out
}

func packInst(i InstrumentHeader) []byte {
	b := make([]byte, 22)
	copy(b[0:20], nulString(i.Name, 20))
	binary.LittleEndian.PutUint16(b[20:], i.BagNdx)
	return b
}

func packShdr(s SampleHeader) []byte {
	b := make([]byte, 46)
	copy(b[0:20], nulString(s.Name, 20))
	binary.LittleEndian.PutUint32(b[20:], s.Start)
	binary.LittleEndian.PutUint32(b[24:], s.End)
	binary.LittleEndian.PutUint32(b[28:], s.LoopStart)
	binary.LittleEndian.PutUint32(b[32:], s.LoopEnd)
	binary.LittleEndian.PutUint32(b[36:], s.SampleRate)
	b[40] = s.OriginalPitch
	b[41] = byte(s.PitchCorrection)
	binary.LittleEndian.PutUint16(b[42:], s.SampleLink)
	binary.LittleEndian.PutUint16(b[44:], s.SampleType)
	return b
}

func buildPDTA(d *Document) []byte {
	var phdr, pbag, pmod, pgen, inst, ibag, imod, igen, shdr bytes.Buffer
	for _, p := range d.Presets {
		phdr.Write(packPhdr(p))
	}
	for _, b := range d.PBag {
		pbag.Write(packBag(b))
	}
	for _, m := range d.PMod {
		pmod.Write(packMod(m))
	}
	for _, g := range d.PGen {
		pgen.Write(packGen(g))
	}
	for _, i := range d.Instruments {
		inst.Write(packInst(i))
	}
	for _, b := range d.IBag {
		ibag.Write(packBag(b))
	}
	for _, m := range d.IMod {
		imod.Write(packMod(m))
	}
	for _, g := range d.IGen {
		igen.Write(packGen(g))
	}
	for _, s := range d.Samples {
		shdr.Write(packShdr(s))
	}

	var body bytes.Buffer
	writeChunk(&body, "phdr", phdr.Bytes())
	writeChunk(&body, "pbag", pbag.Bytes())
	writeChunk(&body, "pmod", pmod.Bytes())
	writeChunk(&body, "pgen", pgen.Bytes())
	writeChunk(&body, "inst", inst.Bytes())
	writeChunk(&body, "ibag", ibag.Bytes())
	writeChunk(&body, "imod", imod.Bytes())
	writeChunk(&body, "igen", igen.Bytes())
	writeChunk(&body, "shdr", shdr.Bytes())

	var out bytes.Buffer
	out.WriteString("LIST")
	listBody := append([]byte("pdta"), body.Bytes()...)
	binary.Write(&out, binary.LittleEndian, uint32(len(listBody)))
	out.Write(listBody)
	return out.Bytes()
}

// Write assembles and writes the complete SF2 RIFF file. If Close has not
// been called yet, Write calls it so the hydra terminator records are
// present.
func (d *Document) Write(out io.Writer) error {
	if !d.closed {
		d.Close()
	}

	info := buildINFO()
	sdta := buildSDTA(d.Smpl)
	pdta := buildPDTA(d)

	var riffBody bytes.Buffer
	riffBody.WriteString("sfbk")
	riffBody.Write(info)
	riffBody.Write(sdta)
	riffBody.Write(pdta)

	var file bytes.Buffer
	file.WriteString("RIFF")
	binary.Write(&file, binary.LittleEndian, uint32(riffBody.Len()))
	file.Write(riffBody.Bytes())

	_, err := out.Write(file.Bytes())
	return err
}

// Bytes assembles the complete SF2 byte stream (convenience over Write).
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	_ = d.Write(&buf)
	return buf.Bytes()
}
