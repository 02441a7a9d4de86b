package ripper

// Config mirrors the CLI surface (spec §6). cmd/ripper parses flags into
// this plain struct and hands it to Run; argument parsing itself is the
// CLI wrapper's job, not the core's.
type Config struct {
	// GMNames ("-gm") assigns General MIDI preset names by patch index.
	// Cosmetic only: it never changes which instrument a patch sounds
	// like, only the name an editor displays for it.
	GMNames bool
	// AvoidDrumChannel ("-rc") installs the channel map that dodges MIDI
	// channel 10, the GM drum channel.
	AvoidDrumChannel bool
	// XGBankSelect ("-xg") emits XG-style two-CC bank select instead of
	// GS-style single-CC bank select.
	XGBankSelect bool
	// PerBankSF2 ("-sb") emits one SF2 document per instrument bank
	// instead of aggregating every bank into one.
	PerBankSF2 bool
	// Raw ("-raw") disables velocity linearisation and vibrato
	// simulation, passing GBA values straight through.
	Raw bool

	// SongTableOffset overrides the engine locator with an explicit ROM
	// offset when non-nil, per spec §6's optional positional argument.
	SongTableOffset *int
}
