// Package archive defines the read-only contract Approximate Search needs
// from a pre-built genomic index: FM-index stepping and lookup, text
// access, and position-to-chromosome mapping. Building a real Archive
// (FASTA parsing, FM-index/BWT construction, suffix-array sampling) is out
// of scope for this module — see archive/refindex for a small reference
// implementation used by tests and the demo command.
package archive

import "github.com/pkg/errors"

// ErrOutOfBounds is returned (and otherwise swallowed — see filtering)
// when a text slice request falls outside the archive's encoded text.
var ErrOutOfBounds = errors.New("archive: text position out of bounds")

// Interval is a suffix-array range [Lo, Hi), the GEM3 "SA interval". Every
// suffix in [Lo, Hi) shares the queried pattern slice as a prefix. Depth is
// the length of that shared prefix; callers never interpret it themselves,
// they only thread it back through FMIndexStep, but some Archive
// implementations (refindex among them) need it to reconstruct the
// matched slice.
type Interval struct {
	Lo, Hi uint64
	Depth  uint64
}

// Len returns Hi - Lo, the number of suffixes (and therefore candidate
// occurrences) the interval represents.
func (iv Interval) Len() uint64 {
	if iv.Hi <= iv.Lo {
		return 0
	}
	return iv.Hi - iv.Lo
}

// Empty reports whether the interval contains no suffixes.
func (iv Interval) Empty() bool { return iv.Hi <= iv.Lo }

// Strand identifies which strand of the archive a position or pattern
// refers to.
type Strand int

const (
	// Forward is the strand as read from the input.
	Forward Strand = iota
	// Reverse is the reverse-complement (or, in color-space, reversed)
	// strand.
	Reverse
)

func (s Strand) String() string {
	if s == Reverse {
		return "-"
	}
	return "+"
}

// Location is the result of mapping an absolute text position back to a
// named reference sequence and strand-relative offset.
type Location struct {
	SeqName string
	Offset  uint64
	Strand  Strand
}

// Archive is the opaque, read-only handle Approximate Search drives. It is
// a weak relation — the search never owns it, only looks things up in it,
// per design note §9.
type Archive interface {
	// FMIndexLookup locates a suffix-array index to its absolute position
	// in the encoded text ("locate").
	FMIndexLookup(saIdx uint64) uint64

	// FMIndexStep extends an SA interval one character backward ("backward
	// search"). The returned interval may be empty.
	FMIndexStep(iv Interval, c byte) Interval

	// FMIndexRoot returns the total SA interval [0, N) of the
	// indexed text — the starting point of a backward search.
	FMIndexRoot() Interval

	// TextSlice returns up to length bytes of the encoded text starting at
	// pos. A request that runs past either end of the text is clipped
	// rather than failing (§7, TextOutOfBounds).
	TextSlice(pos uint64, length uint64) []byte

	// TextLength returns the total length of the encoded text (all
	// reference sequences concatenated, plus separators).
	TextLength() uint64

	// LocatorMap maps an absolute text position to its chromosome name,
	// chromosome-relative offset, and strand.
	LocatorMap(pos uint64) Location

	// IndexedComplement reports whether the archive already indexes the
	// reverse-complement strand, in which case Archive Search does not need
	// to prepare or search a second pattern.
	IndexedComplement() bool

	// ColorSpace reports whether the archive was built over color-space
	// reads, which changes RC generation and CIGAR-reversal rules (§9).
	ColorSpace() bool
}
