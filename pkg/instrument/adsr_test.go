package instrument

import "testing"

func TestSampledEnvelopeSentinelsOmitGenerators(t *testing.T) {
	env := sampledEnvelope(ADSR{Attack: 0xFF, Sustain: 0xFF, Decay: 0, Release: 0})
	if env.Attack != nil || env.Sustain != nil || env.Decay != nil {
		t.Fatalf("expected sentinel bytes to omit their generators, got %+v", env)
	}
	if env.Release != nil {
		t.Fatalf("release==0 must be omitted")
	}
}

func TestSampledEnvelopeSustainZeroIsFullAttenuationFloor(t *testing.T) {
	env := sampledEnvelope(ADSR{Attack: 10, Sustain: 0, Decay: 10, Release: 5})
	if env.Sustain == nil || *env.Sustain != 1000 {
		t.Fatalf("expected sustain==0 to map to 1000 cB, got %v", env.Sustain)
	}
}

func TestPSGEnvelopeRejectsOutOfRangeComponents(t *testing.T) {
	if _, err := psgEnvelope(ADSR{Attack: 16}); err != ErrInstrumentInvalid {
		t.Fatalf("expected ErrInstrumentInvalid for attack>15, got %v", err)
	}
	if _, err := psgEnvelope(ADSR{Decay: 200}); err != ErrInstrumentInvalid {
		t.Fatalf("expected ErrInstrumentInvalid for decay>15, got %v", err)
	}
}

func TestPSGEnvelopeSustainFullIsOmitted(t *testing.T) {
	env, err := psgEnvelope(ADSR{Attack: 5, Sustain: 15, Decay: 5, Release: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Sustain != nil {
		t.Fatalf("sustain==15 (max) must omit sustainVolEnv, got %v", *env.Sustain)
	}
}
