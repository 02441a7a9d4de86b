package ripper

import "github.com/sappyripper/gba-sappy-ripper/pkg/gbarom"

// SongHeader is one song's decoded header (spec §3).
type SongHeader struct {
	TrackCount int
	Priority   uint8
	Reverb     int8
	InstrBank  int   // ROM offset
	TrackPtrs  []int // ROM offsets, TrackCount entries
}

// ReadSongHeader reads and validates the song header at offset, rejecting
// a track count outside 1..16 and any pointer that doesn't resolve inside
// rom, per spec §3/§7.
func ReadSongHeader(rom []byte, offset int) (SongHeader, error) {
	r := gbarom.New(rom)
	if err := r.Seek(offset); err != nil {
		return SongHeader{}, ErrStructuralInvalid
	}

	trackCount, err := r.U8()
	if err != nil {
		return SongHeader{}, ErrStructuralInvalid
	}
	if _, err := r.U8(); err != nil { // reserved
		return SongHeader{}, ErrStructuralInvalid
	}
	priority, err := r.U8()
	if err != nil {
		return SongHeader{}, ErrStructuralInvalid
	}
	reverb, err := r.I8()
	if err != nil {
		return SongHeader{}, ErrStructuralInvalid
	}
	instrBank, err := r.GBAPointer()
	if err != nil || instrBank >= len(rom) {
		return SongHeader{}, ErrStructuralInvalid
	}

	if trackCount < 1 || trackCount > 16 {
		return SongHeader{}, ErrStructuralInvalid
	}

	trackPtrs := make([]int, trackCount)
	for i := range trackPtrs {
		p, err := r.GBAPointer()
		if err != nil || p >= len(rom) {
			return SongHeader{}, ErrStructuralInvalid
		}
		trackPtrs[i] = p
	}

	return SongHeader{
		TrackCount: int(trackCount),
		Priority:   priority,
		Reverb:     reverb,
		InstrBank:  instrBank,
		TrackPtrs:  trackPtrs,
	}, nil
}
