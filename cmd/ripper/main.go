package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sappyripper/gba-sappy-ripper/pkg/locator"
	"github.com/sappyripper/gba-sappy-ripper/pkg/ripper"
)

var (
	outDir  = flag.String("o", ".", "output directory")
	gmNames = flag.Bool("gm", false, "assign General MIDI preset names by patch index")
	rc      = flag.Bool("rc", false, "rearrange channels to avoid MIDI channel 10")
	xg      = flag.Bool("xg", false, "emit XG-compatible bank select; otherwise GS")
	sb      = flag.Bool("sb", false, "emit one SF2 per bank into per-bank sub-directories")
	raw     = flag.Bool("raw", false, "disable volume linearisation and vibrato simulation")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <in.gba> [song_table_hex_or_dec]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Extract MIDI sequences and an SF2 instrument bank from a GBA ROM\n")
		fmt.Fprintf(os.Stderr, "using the Sappy/M4A sound engine.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(-1)
	}
	romPath := flag.Arg(0)

	rom, err := os.ReadFile(romPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ripper: reading %s: %v\n", romPath, err)
		os.Exit(-1)
	}

	cfg := ripper.Config{
		GMNames:          *gmNames,
		AvoidDrumChannel: *rc,
		XGBankSelect:     *xg,
		PerBankSF2:       *sb,
		Raw:              *raw,
	}

	if flag.NArg() > 1 {
		off, err := parseSongTableOffset(flag.Arg(1))
		if err != nil {
			fmt.Fprintf(os.Stderr, "ripper: invalid song table offset %q: %v\n", flag.Arg(1), err)
			os.Exit(-1)
		}
		cfg.SongTableOffset = &off
	}

	result, err := ripper.Run(rom, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ripper: %v\n", err)
		if errors.Is(err, locator.ErrNotFound) {
			os.Exit(-1)
		}
		os.Exit(-2)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "ripper: creating output directory: %v\n", err)
		os.Exit(-1)
	}

	writeOutputs(result, cfg)
	os.Exit(0)
}

// writeOutputs persists every song and bank, logging but not aborting on
// individual write failures — an IoError surfaces to the driver here, which
// continues to the next file, per spec §7.
func writeOutputs(result ripper.Result, cfg ripper.Config) {
	for _, song := range result.Songs {
		if song.Err != nil {
			fmt.Fprintf(os.Stderr, "ripper: song %d: %v (skipped)\n", song.Index, song.Err)
			continue
		}
		path := filepath.Join(*outDir, fmt.Sprintf("song%03d.mid", song.Index))
		if err := os.WriteFile(path, song.MIDI, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "ripper: writing %s: %v\n", path, err)
		}
	}

	if cfg.PerBankSF2 {
		for _, bank := range result.Banks {
			dir := filepath.Join(*outDir, fmt.Sprintf("bank%03d", bank.ID))
			if err := os.MkdirAll(dir, 0o755); err != nil {
				fmt.Fprintf(os.Stderr, "ripper: creating %s: %v\n", dir, err)
				continue
			}
			path := filepath.Join(dir, "bank.sf2")
			if err := os.WriteFile(path, bank.SF2, 0o644); err != nil {
				fmt.Fprintf(os.Stderr, "ripper: writing %s: %v\n", path, err)
			}
		}
		return
	}

	path := filepath.Join(*outDir, "bank.sf2")
	if err := os.WriteFile(path, result.Aggregate, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "ripper: writing %s: %v\n", path, err)
	}
}

// parseSongTableOffset accepts "0x"-prefixed hex or plain decimal, per
// spec §6's <song_table_hex_or_dec> positional argument.
func parseSongTableOffset(s string) (int, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err := strconv.ParseInt(s[2:], 16, 64)
		return int(n), err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return int(n), err
}
