package ripper

import "errors"

// ErrStructuralInvalid covers a song table past EOF, an invalid track
// count (outside 1..16), or a GBA pointer outside the ROM — the
// StructuralInvalid error kind of spec §7. From a song header it aborts
// only that song and the run continues with the next one; from the song
// table itself (WalkSongTable) it aborts the whole Run.
var ErrStructuralInvalid = errors.New("ripper: structurally invalid song table or song header")
