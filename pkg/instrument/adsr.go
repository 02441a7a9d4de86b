package instrument

import (
	"math"

	"github.com/sappyripper/gba-sappy-ripper/pkg/soundfont"
)

// Envelope holds the optional SF2 volume-envelope generators derived from
// a GBA ADSR byte quad. A nil *int16 field means "don't emit this
// generator" (spec §4.6 only emits attack/decay/sustain when the source
// byte isn't its sentinel, and release only when non-zero).
type Envelope struct {
	Attack  *int16
	Decay   *int16
	Sustain *int16
	Release *int16
}

// ADSR is the raw {attack, decay, sustain, release} byte quad packed into
// a GBA instrument record.
type ADSR struct {
	Attack, Decay, Sustain, Release uint8
}

// sampledEnvelope converts a sampled-instrument ADSR quad to SF2
// envelope generator amounts, per spec §4.6.
func sampledEnvelope(a ADSR) Envelope {
	var env Envelope
	if a.Attack != 0xFF {
		attackTime := 256.0 / 60.0 / float64(a.Attack)
		env.Attack = centsPtr(1200 * log2(attackTime))
	}
	if a.Sustain != 0xFF {
		var sustainCB float64
		if a.Sustain == 0 {
			sustainCB = 1000
		} else {
			sustainCB = 100 * math.Log(256/float64(a.Sustain))
		}
		env.Sustain = centsPtr(sustainCB)

		decayTime := math.Log(256) / (math.Log(256) - lnOrEpsilon(a.Decay)) / 60
		decayTime *= 10 / math.Log(256)
		env.Decay = centsPtr(1200 * log2(decayTime))
	}
	if a.Release != 0 {
		relTime := math.Log(256) / (math.Log(256) - lnOrEpsilon(a.Release)) / 60
		env.Release = centsPtr(1200 * log2(relTime))
	}
	return env
}

// psgEnvelope converts a PSG-instrument ADSR quad (each component
// restricted to 0..15) to SF2 envelope generator amounts, per spec §4.6.
// Components outside that range reject the whole instrument.
func psgEnvelope(a ADSR) (Envelope, error) {
	if a.Attack > 15 || a.Decay > 15 || a.Sustain > 15 || a.Release > 15 {
		return Envelope{}, ErrInstrumentInvalid
	}
	var env Envelope
	if a.Attack != 0 {
		attackTime := float64(a.Attack) / 5
		env.Attack = centsPtr(1200 * log2(attackTime))
	}
	if a.Sustain != 15 {
		var sustainCB float64
		if a.Sustain == 0 {
			sustainCB = 1000
		} else {
			sustainCB = 100 * math.Log(15/float64(a.Sustain))
		}
		env.Sustain = centsPtr(sustainCB)

		decayTime := float64(a.Decay) / 5
		env.Decay = centsPtr(1200 * log2(decayTime+1))
	}
	if a.Release != 0 {
		relTime := float64(a.Release) / 5
		env.Release = centsPtr(1200 * log2(relTime))
	}
	return env, nil
}

func log2(x float64) float64 { return math.Log2(x) }

// decayEpsilon stands in for ln(0): the sampled-instrument decay formula
// has no sentinel for d==0 (unlike attack/sustain's 0xFF), but d==0
// means "decay instantly", which the formula only reaches in the limit
// as ln(d) -> -Inf. Using a small epsilon keeps the result finite while
// preserving the formula's intent (fastest possible decay).
const decayEpsilon = 1e-6

func lnOrEpsilon(v uint8) float64 {
	if v == 0 {
		return math.Log(decayEpsilon)
	}
	return math.Log(float64(v))
}

func centsPtr(v float64) *int16 {
	if v > 32767 {
		v = 32767
	}
	if v < -32768 {
		v = -32768
	}
	r := int16(math.Round(v))
	return &r
}

// appendEnvelopeGens appends the non-nil envelope generators to gens, in
// attack/decay/sustain/release order, and returns the extended slice.
func appendEnvelopeGens(gens []soundfont.GenRecord, env Envelope) []soundfont.GenRecord {
	if env.Attack != nil {
		gens = append(gens, soundfont.GenRecord{Gen: soundfont.GenAttackVolEnv, Amount: soundfont.Amount(*env.Attack)})
	}
	if env.Decay != nil {
		gens = append(gens, soundfont.GenRecord{Gen: soundfont.GenDecayVolEnv, Amount: soundfont.Amount(*env.Decay)})
	}
	if env.Sustain != nil {
		gens = append(gens, soundfont.GenRecord{Gen: soundfont.GenSustainVolEnv, Amount: soundfont.Amount(*env.Sustain)})
	}
	if env.Release != nil {
		gens = append(gens, soundfont.GenRecord{Gen: soundfont.GenReleaseVolEnv, Amount: soundfont.Amount(*env.Release)})
	}
	return gens
}
