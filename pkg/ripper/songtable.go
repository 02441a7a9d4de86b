package ripper

import "github.com/sappyripper/gba-sappy-ripper/pkg/gbarom"

// SongTableEntry is one decoded, in-range song table entry (spec §3); the
// ignored `group` word is not retained.
type SongTableEntry struct {
	Offset int // the song header's ROM offset
}

// WalkSongTable decodes the song table starting at tableOffset. Leading
// 4-byte words that are zero are skipped one word at a time — not one
// 8-byte entry at a time; this is the upstream table format's own quirk,
// preserved rather than "fixed" (spec §3). From the first non-zero word,
// entries are then read in 8-byte strides until one whose song_ptr, after
// subtracting the GBA base, is zero or falls outside the ROM. It returns
// the decoded entries and the end-of-table offset (start + 8*count).
func WalkSongTable(rom []byte, tableOffset int) ([]SongTableEntry, int, error) {
	r := gbarom.New(rom)

	start := tableOffset
	for {
		word, err := r.U32At(start)
		if err != nil {
			return nil, 0, ErrStructuralInvalid
		}
		if word != 0 {
			break
		}
		start += 4
	}

	var entries []SongTableEntry
	pos := start
	for {
		word, err := r.U32At(pos)
		if err != nil {
			return nil, 0, ErrStructuralInvalid
		}
		rel := int64(word) - gbarom.GBABaseLow
		if rel <= 0 || rel >= int64(len(rom)) {
			break
		}
		entries = append(entries, SongTableEntry{Offset: int(rel)})
		pos += 8
	}
	if len(entries) == 0 {
		return nil, 0, ErrStructuralInvalid
	}
	return entries, start + 8*len(entries), nil
}
