package sequencer

import "math"

// execCommand decodes and executes one command at tr.ptr, per spec
// §4.5's "Command decoding" list. It reports whether the command just
// executed was a jump or a track-ending opcode (0xB1/0xB2, or a 0xB3
// with an unreadable target) — the caller uses this to stop dispatching
// further commands to this track within the same tick, independent of
// tr.completed, which stays set for good (per spec's "all tracks
// completed" rule) even though execution legitimately continues at a
// jump target in later ticks.
func (s *Sequencer) execCommand(t int) bool {
	tr := &s.tracks[t]
	ch := uint8(t)

	b, ok := s.readU8(tr)
	if !ok {
		tr.ptr = -1
		tr.completed = true
		return true
	}

	var cmd uint8
	if b < 0x80 {
		// Running status: reuse the previous command; this byte is its
		// first argument, so un-consume it.
		cmd = tr.lastCmd
		tr.ptr--
	} else {
		cmd = b
		tr.lastCmd = cmd
	}

	switch {
	case cmd >= 0x80 && cmd <= 0xB0:
		tr.counter = lengthTable[cmd-0x80]

	case cmd == 0xB1:
		tr.ptr = -1
		tr.completed = true
		return true

	case cmd == 0xB2:
		if target, ok := s.readGBAPointer(tr); ok {
			tr.ptr = target
		} else {
			tr.ptr = -1
		}
		tr.completed = true
		return true

	case cmd == 0xB3:
		if target, ok := s.readGBAPointer(tr); ok {
			tr.returnPtr = tr.ptr
			tr.returnSet = true
			tr.ptr = target
		} else {
			tr.ptr = -1
			tr.completed = true
			return true
		}

	case cmd == 0xB4:
		if tr.returnSet {
			tr.ptr = tr.returnPtr
			tr.returnSet = false
		}

	case cmd == 0xBB:
		if arg, ok := s.readU8(tr); ok {
			s.mid.Tempo(2 * float64(arg))
		}

	case cmd == 0xBC:
		if arg, ok := s.readU8(tr); ok {
			tr.keyShift = int8(arg)
		}

	case cmd == 0xBD:
		s.execProgramChange(tr, ch)

	case cmd == 0xBE:
		if arg, ok := s.readU8(tr); ok {
			val := arg
			if s.opt.LinearizeVelocity {
				val = uint8(math.Sqrt(127 * float64(arg)))
			}
			s.mid.Controller(ch, 7, val)
		}

	case cmd == 0xBF:
		if arg, ok := s.readU8(tr); ok {
			s.mid.Controller(ch, 10, arg)
		}

	case cmd == 0xC0:
		if arg, ok := s.readU8(tr); ok {
			s.mid.PitchBendMSB(ch, arg)
		}

	case cmd == 0xC1:
		if arg, ok := s.readU8(tr); ok {
			if s.opt.SimulateVibrato {
				s.mid.RPNByte(ch, 0, arg)
			} else {
				s.mid.Controller(ch, 20, arg)
			}
		}

	case cmd == 0xC2:
		if arg, ok := s.readU8(tr); ok {
			if s.opt.SimulateVibrato {
				s.mid.NRPNByte(ch, 136, arg)
			} else {
				s.mid.Controller(ch, 21, arg)
			}
		}

	case cmd == 0xC3:
		if arg, ok := s.readU8(tr); ok {
			if s.opt.SimulateVibrato {
				tr.lfoDelay = arg
			} else {
				s.mid.Controller(ch, 26, arg)
			}
		}

	case cmd == 0xC4:
		if arg, ok := s.readU8(tr); ok {
			s.execLFODepth(tr, ch, arg)
		}

	case cmd == 0xC5:
		if arg, ok := s.readU8(tr); ok {
			if s.opt.SimulateVibrato {
				tr.lfoType = arg
			} else {
				s.mid.Controller(ch, 22, arg)
			}
		}

	case cmd == 0xC8:
		if arg, ok := s.readU8(tr); ok {
			if s.opt.SimulateVibrato {
				s.mid.RPNByte(ch, 1, arg)
			} else {
				s.mid.Controller(ch, 24, arg)
			}
		}

	case cmd == 0xCE:
		s.execKeyOff(tr, t, ch)

	case cmd == 0xCF:
		s.execKeyOn(tr, t, ch, -1)

	case cmd >= 0xD0:
		length := lengthTable[int(cmd-0xD0)+1]
		s.execKeyOn(tr, t, ch, length)

	default:
		// Unrecognised opcode in the command range that still carries
		// exactly one argument byte, per spec §4.5's catch-all.
		s.readU8(tr)
	}
	return false
}

func (s *Sequencer) execProgramChange(tr *track, ch uint8) {
	arg, ok := s.readU8(tr)
	if !ok {
		return
	}
	if s.opt.BankOverride != nil {
		bank := *s.opt.BankOverride
		if s.opt.XGBankSelect {
			s.mid.Controller(ch, 0, uint8(bank>>7))
			s.mid.Controller(ch, 32, uint8(bank&0x7F))
		} else {
			s.mid.Controller(ch, 0, uint8(bank))
		}
	}
	s.mid.ProgramChange(ch, arg)
}

func (s *Sequencer) execLFODepth(tr *track, ch, arg uint8) {
	if !s.opt.SimulateVibrato {
		s.mid.Controller(ch, 1, arg)
		return
	}
	if tr.lfoDelay == 0 && tr.lfoHack {
		value := uint8(min(10*int(arg), 127))
		if tr.lfoType == 0 {
			s.mid.Controller(ch, 1, value)
		} else {
			s.mid.ChannelAftertouch(ch, value)
		}
		tr.lfoFlag = true
	}
	tr.lfoDepth = arg
	tr.lfoHack = true
}

// execKeyOff handles opcode 0xCE: optional key argument, reusing
// last_key[t] when absent, per spec §4.5.
func (s *Sequencer) execKeyOff(tr *track, t int, ch uint8) {
	key := tr.lastKey
	if arg, ok := s.peekU8(tr); ok && arg < 0x80 {
		s.readU8(tr)
		key = arg
	}
	finalKey := uint8(int(key) + int(tr.keyShift))
	if n, found := s.findNote(t, finalKey); found {
		s.mid.NoteOff(ch, finalKey, n.Vel)
	}
	s.lfoStop(t)
}

// execKeyOn handles opcodes 0xCF (length < 0, indefinite) and 0xD0..0xFF
// (length >= 0, bounded plus an optional additive offset), per spec
// §4.5's argument-stickiness rules.
func (s *Sequencer) execKeyOn(tr *track, t int, ch uint8, length int) {
	key := tr.lastKey
	vel := tr.lastVel

	if arg1, ok := s.peekU8(tr); ok && arg1 < 0x80 {
		s.readU8(tr)
		key = arg1
		tr.lastKey = key

		if arg2, ok := s.peekU8(tr); ok && arg2 < 0x80 {
			s.readU8(tr)
			vel = arg2
			tr.lastVel = vel

			if length >= 0 {
				if arg3, ok := s.peekU8(tr); ok && arg3 < 0x80 {
					s.readU8(tr)
					length += int(arg3)
				}
			}
		}
	}

	velLin := vel
	if s.opt.LinearizeVelocity {
		velLin = uint8(math.Sqrt(127 * float64(vel)))
	}
	finalKey := uint8(int(key) + int(tr.keyShift))

	s.notes = append([]note{{Track: t, Key: finalKey, Vel: velLin, Remaining: length}}, s.notes...)
	s.lfoStart(t)

	// A bounded note length also sets the track's own wait, same as a
	// plain wait opcode; an indefinite key-on (0xCF) advances no time of
	// its own and relies on a following wait/note opcode for that.
	if length >= 0 {
		tr.counter = length
	}
}
