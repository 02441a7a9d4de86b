package sequencer

// lfoStart arms a track's LFO delay countdown on a new key-on, per
// spec §4.5's LFO sub-machine. A zero delay leaves the counter alone:
// the immediate-emit path lives in 0xC4's own handler (execLFODepth),
// not here.
func (s *Sequencer) lfoStart(t int) {
	if !s.opt.SimulateVibrato {
		return
	}
	tr := &s.tracks[t]
	if tr.lfoDelay != 0 {
		tr.lfoDelayCtr = tr.lfoDelay
	}
}

// lfoTick advances one track's LFO delay countdown; reaching zero
// fires a single step to the depth-scaled value, per spec §4.5.
func (s *Sequencer) lfoTick(t int) {
	if !s.opt.SimulateVibrato {
		return
	}
	tr := &s.tracks[t]
	if tr.lfoDelayCtr == 0 {
		return
	}
	tr.lfoDelayCtr--
	if tr.lfoDelayCtr != 0 {
		return
	}
	value := uint8(min(8*int(tr.lfoDepth), 127))
	ch := uint8(t)
	if tr.lfoType == 0 {
		s.mid.Controller(ch, 1, value)
	} else {
		s.mid.ChannelAftertouch(ch, value)
	}
	tr.lfoFlag = true
}

// lfoStop clears an active LFO step back to zero on key-off, or simply
// zeroes the delay counter if the LFO never fired, per spec §4.5.
func (s *Sequencer) lfoStop(t int) {
	if !s.opt.SimulateVibrato {
		return
	}
	tr := &s.tracks[t]
	if tr.lfoFlag {
		ch := uint8(t)
		if tr.lfoType == 0 {
			s.mid.Controller(ch, 1, 0)
		} else {
			s.mid.ChannelAftertouch(ch, 0)
		}
		tr.lfoFlag = false
	} else {
		tr.lfoDelayCtr = 0
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
