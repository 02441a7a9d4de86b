package instrument

import "math"

// rootKeyAndCorrection computes the SF2 root key and pitch-correction cents
// for a GBA sample whose header pitch is pitch (the record's PitchX1024
// field) played back at the engine's configured DAC sample rate, per spec
// §4.6.
func rootKeyAndCorrection(pitch uint32, defaultSampleRate int) (rootKey uint8, pitchCorrection int8) {
	if pitch == 0 {
		return 60, 0
	}
	deltaNote := 12 * math.Log2(float64(defaultSampleRate)*1024/float64(pitch))
	rounded := math.Round(deltaNote)
	rootKey = uint8(60 + int(rounded))
	pitchCorrection = int8(math.Round((rounded - deltaNote) * 100))
	return rootKey, pitchCorrection
}
