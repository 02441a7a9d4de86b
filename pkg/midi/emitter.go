// Package midi implements a buffered Standard MIDI File (SMF type 0)
// track emitter: variable-length delta times, running-status compression,
// RPN/NRPN coalescing, and channel remapping.
//
// Grounded on the teacher's hand-packed binary struct style
// (pkg/stsound/ym-file-utils.go); no MIDI-writing library appears anywhere
// in the retrieved corpus, so this is written against stdlib
// encoding/binary the way the teacher writes every other binary format.
package midi

import (
	"bytes"
	"encoding/binary"
	"io"
)

// PPQN default resolution: 24 ticks per quarter note, per spec §6.
const DefaultPPQN = 24

// lastEvent records enough of the previous emitted event to decide whether
// running status applies to the next one.
type lastEvent struct {
	valid   bool
	channel uint8
	typ     uint8 // high nibble of the status byte
}

// rpnState tracks, per channel, the most recently selected RPN/NRPN pair so
// that CC#101/100 (or CC#99/98) is only re-sent when it actually changes.
type rpnState struct {
	valid bool
	nrpn  bool
	typ   int
}

// Emitter buffers one SMF-0 track's worth of events.
type Emitter struct {
	ppqn uint16
	buf  bytes.Buffer

	pendingTicks uint32
	last         lastEvent
	rpn          [16]rpnState

	// ChanReorder remaps every emitted channel; identity by default. The
	// "-rc" CLI option fills this to dodge MIDI channel 10 (spec §4.3).
	ChanReorder [16]uint8
}

// Open creates an Emitter at the given PPQN with an identity channel map.
func Open(ppqn uint16) *Emitter {
	e := &Emitter{ppqn: ppqn}
	for i := range e.ChanReorder {
		e.ChanReorder[i] = uint8(i)
	}
	return e
}

// SetDrumAvoidingReorder installs the "-rc" channel map: channel 9 (the GM
// drum channel, 0-based) maps to 15, and channels 10..15 shift down to
// 9..14, per spec §4.3.
func (e *Emitter) SetDrumAvoidingReorder() {
	for i := range e.ChanReorder {
		e.ChanReorder[i] = uint8(i)
	}
	e.ChanReorder[9] = 15
	for i := 10; i < 16; i++ {
		e.ChanReorder[i] = uint8(i - 1)
	}
}

func (e *Emitter) remap(ch uint8) uint8 {
	if int(ch) >= len(e.ChanReorder) {
		return ch
	}
	return e.ChanReorder[ch]
}

// Clock advances the pending delta-time counter by one tick.
func (e *Emitter) Clock() {
	e.pendingTicks++
}

// writeVLQ appends n to w using standard 7-bit-per-byte variable length
// encoding (MSB-first groups, continuation bit set on all but the last).
func writeVLQ(w *bytes.Buffer, n uint32) {
	var stack [5]byte
	i := len(stack)
	i--
	stack[i] = byte(n & 0x7F)
	n >>= 7
	for n > 0 {
		i--
		stack[i] = byte(n&0x7F) | 0x80
		n >>= 7
	}
	w.Write(stack[i:])
}

// DecodeVLQ decodes one variable-length quantity from the front of b,
// returning the value and the number of bytes consumed. Exists to satisfy
// the round-trip law in spec §8 and is exercised only by tests.
func DecodeVLQ(b []byte) (value uint32, n int) {
	for _, c := range b {
		n++
		value = (value << 7) | uint32(c&0x7F)
		if c&0x80 == 0 {
			break
		}
	}
	return value, n
}

// beginEvent writes the pending delta time, then the status byte unless
// running status applies (same channel and same high-nibble event type as
// the previous emitted event on this track), per spec §4.3.
func (e *Emitter) beginEvent(status, channel uint8) {
	writeVLQ(&e.buf, e.pendingTicks)
	e.pendingTicks = 0

	typ := status >> 4
	ch := e.remap(channel)
	if !e.last.valid || e.last.channel != ch || e.last.typ != typ {
		e.buf.WriteByte((status & 0xF0) | (ch & 0x0F))
	}
	e.last = lastEvent{valid: true, channel: ch, typ: typ}
}

// NoteOn emits a Note On event (status 0x90).
func (e *Emitter) NoteOn(ch, key, vel uint8) {
	e.beginEvent(0x90, ch)
	e.buf.WriteByte(key & 0x7F)
	e.buf.WriteByte(vel & 0x7F)
}

// NoteOff emits a Note Off event (status 0x80).
func (e *Emitter) NoteOff(ch, key, vel uint8) {
	e.beginEvent(0x80, ch)
	e.buf.WriteByte(key & 0x7F)
	e.buf.WriteByte(vel & 0x7F)
}

// Controller emits a Control Change event (status 0xB0) unconditionally;
// any coalescing policy lives in the caller (RPN/NRPN) or not at all
// (plain CCs always emit), per DESIGN NOTES §9.
func (e *Emitter) Controller(ch, ctl, val uint8) {
	e.beginEvent(0xB0, ch)
	e.buf.WriteByte(ctl & 0x7F)
	e.buf.WriteByte(val & 0x7F)
}

// ProgramChange emits a Program Change event (status 0xC0).
func (e *Emitter) ProgramChange(ch, n uint8) {
	e.beginEvent(0xC0, ch)
	e.buf.WriteByte(n & 0x7F)
}

// ChannelAftertouch emits a Channel Pressure event (status 0xD0).
func (e *Emitter) ChannelAftertouch(ch, v uint8) {
	e.beginEvent(0xD0, ch)
	e.buf.WriteByte(v & 0x7F)
}

// PitchBend emits a Pitch Bend event (status 0xE0) from a 14-bit value.
func (e *Emitter) PitchBend(ch uint8, value14 uint16) {
	e.beginEvent(0xE0, ch)
	e.buf.WriteByte(uint8(value14 & 0x7F))
	e.buf.WriteByte(uint8((value14 >> 7) & 0x7F))
}

// PitchBendMSB emits a Pitch Bend event using only a coarse MSB value
// (LSB forced to zero), matching the sequencer's 0xC0 opcode (spec §4.5).
func (e *Emitter) PitchBendMSB(ch, msb uint8) {
	e.beginEvent(0xE0, ch)
	e.buf.WriteByte(0)
	e.buf.WriteByte(msb & 0x7F)
}

// selectRPN emits CC#101/100 (RPN) or CC#99/98 (NRPN) only if (typ, nrpn)
// differs from the previous selection on this channel, per spec §4.3 and
// the invariant in spec §8.
func (e *Emitter) selectRPN(ch uint8, typ int, nrpn bool) {
	st := &e.rpn[ch&0x0F]
	if st.valid && st.nrpn == nrpn && st.typ == typ {
		return
	}
	msb := uint8((typ >> 7) & 0x7F)
	lsb := uint8(typ & 0x7F)
	if nrpn {
		e.Controller(ch, 99, msb)
		e.Controller(ch, 98, lsb)
	} else {
		e.Controller(ch, 101, msb)
		e.Controller(ch, 100, lsb)
	}
	*st = rpnState{valid: true, nrpn: nrpn, typ: typ}
}

// rpnValue emits CC#6 (MSB) always, and CC#38 (LSB) only when the low 7
// bits of the value are non-zero, per spec §4.3.
func (e *Emitter) rpnValue(ch uint8, value14 uint16) {
	e.Controller(ch, 6, uint8((value14>>7)&0x7F))
	if value14&0x7F != 0 {
		e.Controller(ch, 38, uint8(value14&0x7F))
	}
}

// RPN selects and writes a Registered Parameter Number value.
func (e *Emitter) RPN(ch uint8, typ int, value14 uint16) {
	e.selectRPN(ch, typ, false)
	e.rpnValue(ch, value14)
}

// RPNByte is the common case of an RPN value expressed only by its MSB.
func (e *Emitter) RPNByte(ch uint8, typ int, msb uint8) {
	e.RPN(ch, typ, uint16(msb)<<7)
}

// NRPN selects and writes a Non-Registered Parameter Number value.
func (e *Emitter) NRPN(ch uint8, typ int, value14 uint16) {
	e.selectRPN(ch, typ, true)
	e.rpnValue(ch, value14)
}

// NRPNByte is the common case of an NRPN value expressed only by its MSB.
func (e *Emitter) NRPNByte(ch uint8, typ int, msb uint8) {
	e.NRPN(ch, typ, uint16(msb)<<7)
}

// writeMeta appends a meta event (FF <type> <vlq length> <bytes>).
func (e *Emitter) writeMeta(typ uint8, payload []byte) {
	writeVLQ(&e.buf, e.pendingTicks)
	e.pendingTicks = 0
	e.buf.WriteByte(0xFF)
	e.buf.WriteByte(typ)
	writeVLQ(&e.buf, uint32(len(payload)))
	e.buf.Write(payload)
	e.last = lastEvent{} // meta/sysex events never participate in running status
}

// Marker emits a text meta event (FF 06), used for "loopStart"/"loopEnd".
func (e *Emitter) Marker(text string) {
	e.writeMeta(0x06, []byte(text))
}

// Tempo emits a Set Tempo meta event (FF 51 03) for the given BPM.
func (e *Emitter) Tempo(bpm float64) {
	usPerQuarter := uint32(60000000 / bpm)
	payload := []byte{
		byte(usPerQuarter >> 16),
		byte(usPerQuarter >> 8),
		byte(usPerQuarter),
	}
	writeVLQ(&e.buf, e.pendingTicks)
	e.pendingTicks = 0
	e.buf.WriteByte(0xFF)
	e.buf.WriteByte(0x51)
	e.buf.WriteByte(0x03)
	e.buf.Write(payload)
	e.last = lastEvent{}
}

// SysEx emits a system-exclusive event (F0 <vlq length> <payload> F7). The
// payload should not include the leading F0 or trailing F7.
func (e *Emitter) SysEx(payload []byte) {
	writeVLQ(&e.buf, e.pendingTicks)
	e.pendingTicks = 0
	e.buf.WriteByte(0xF0)
	writeVLQ(&e.buf, uint32(len(payload)+1))
	e.buf.Write(payload)
	e.buf.WriteByte(0xF7)
	e.last = lastEvent{}
}

// Write finalises the track (appending the end-of-track meta event) and
// writes the complete SMF-0 byte stream: MThd, then one MTrk.
func (e *Emitter) Write(out io.Writer) error {
	track := append([]byte(nil), e.buf.Bytes()...)
	track = append(track, 0x00, 0xFF, 0x2F, 0x00)

	var hdr bytes.Buffer
	hdr.WriteString("MThd")
	binary.Write(&hdr, binary.BigEndian, uint32(6))
	binary.Write(&hdr, binary.BigEndian, uint16(0)) // format 0
	binary.Write(&hdr, binary.BigEndian, uint16(1)) // ntrks
	binary.Write(&hdr, binary.BigEndian, e.ppqn)

	var trk bytes.Buffer
	trk.WriteString("MTrk")
	binary.Write(&trk, binary.BigEndian, uint32(len(track)))
	trk.Write(track)

	if _, err := out.Write(hdr.Bytes()); err != nil {
		return err
	}
	_, err := out.Write(trk.Bytes())
	return err
}

// Bytes returns the finalised SMF-0 byte stream (convenience over Write).
func (e *Emitter) Bytes() []byte {
	var buf bytes.Buffer
	_ = e.Write(&buf)
	return buf.Bytes()
}
