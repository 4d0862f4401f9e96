// Package pattern prepares a read for approximate search: it encodes the
// key, builds the Myers bit-parallel PEQ table, counts wildcards, and
// derives the reverse-complement twin.  Preparation is pure; a Pattern is
// immutable once built.
package pattern

import (
	"github.com/grailbio/gemsearch/biosimd"
	"github.com/grailbio/gemsearch/searchparams"
	"github.com/pkg/errors"
)

// ErrPatternTooShort is returned by Prepare when the read is shorter than
// the configured minimum pattern length.
var ErrPatternTooShort = errors.New("pattern: too short")

// ErrAllWildcards is returned by Prepare when every base of the read is a
// wildcard (N), leaving nothing to search for.
var ErrAllWildcards = errors.New("pattern: all wildcards")

// wordBits is the width of one Myers bit-vector word.
const wordBits = 64

// alphabet is the DNA alphabet the PEQ table is built over. 'N' is
// deliberately excluded: a wildcard matches every letter, which build
// implements by setting the wildcard's bit in all four PEQ rows (and in
// WildcardMask), rather than by storing a fifth row.
var alphabet = [4]byte{'A', 'C', 'G', 'T'}

func alphabetIndex(b byte) int {
	switch b {
	case 'A', 'a':
		return 0
	case 'C', 'c':
		return 1
	case 'G', 'g':
		return 2
	case 'T', 't':
		return 3
	default:
		return -1
	}
}

// Pattern is a read encoded for approximate search.
type Pattern struct {
	// Key is the forward-strand read bytes, copied as given (ASCII,
	// unclipped, case not normalized).
	Key []byte
	// NumWildcards is the number of 'N' bases in Key.
	NumWildcards int
	// MaxError is the error budget this pattern was prepared with.
	MaxError int
	// NumWords is ceil(len(Key) / wordBits); the PEQ table has one row of
	// NumWords words per alphabet letter.
	NumWords int
	// PEQ[letter] is the Myers "equal" bit-vector for that letter, packed
	// NumWords words wide, least-significant word first.
	PEQ [4][]uint64
	// WildcardMask has bit i set iff Key[i] is a wildcard, packed the same
	// way as PEQ.
	WildcardMask []uint64

	// rc, if non-nil, is the reverse-complement twin of this pattern. It is
	// nil on a twin itself, to avoid an infinite chain.
	rc *Pattern
}

// Len returns the number of bases in the pattern's key.
func (p *Pattern) Len() int { return len(p.Key) }

// ReverseComplementTwin returns the reverse-complement pattern paired with
// p, or nil if p is itself a twin (RC twins are not chained).
func (p *Pattern) ReverseComplementTwin() *Pattern { return p.rc }

// Prepare builds a Pattern from raw read bytes. It fails with
// ErrPatternTooShort when len(read) < params.MinPatternLength, and with
// ErrAllWildcards when every base is a wildcard.
//
// withTwin controls whether the reverse-complement twin is also built; an
// Archive that already indexes the complement strand (§6) doesn't need one.
func Prepare(read []byte, params searchparams.Params, withTwin bool) (*Pattern, error) {
	if len(read) < params.MinPatternLength {
		return nil, ErrPatternTooShort
	}
	p := build(read, params.MaxError)
	if p.NumWildcards == len(read) {
		return nil, ErrAllWildcards
	}
	if withTwin {
		rc := make([]byte, len(read))
		if params.ColorSpace {
			// Color-space reversal: colors encode transitions between
			// adjacent bases, so the reverse strand is a plain reversal,
			// never a base complement.
			for i, b := range read {
				rc[len(read)-1-i] = b
			}
		} else {
			biosimd.ReverseComp8NoValidate(rc, read)
		}
		p.rc = build(rc, params.MaxError)
	}
	return p, nil
}

func build(key []byte, maxError int) *Pattern {
	numWords := (len(key) + wordBits - 1) / wordBits
	if numWords == 0 {
		numWords = 1
	}
	p := &Pattern{
		Key:          append([]byte(nil), key...),
		MaxError:     maxError,
		NumWords:     numWords,
		WildcardMask: make([]uint64, numWords),
	}
	for i := range p.PEQ {
		p.PEQ[i] = make([]uint64, numWords)
	}
	// IsNonACGTPresent lets the common, wildcard-free read take a simpler
	// path through the loop below, without an increment and a mask write
	// per base.
	if !biosimd.IsNonACGTPresent(p.Key) {
		for i, b := range key {
			word, bit := i/wordBits, uint(i%wordBits)
			p.PEQ[alphabetIndex(b)][word] |= 1 << bit
		}
		return p
	}
	for i, b := range key {
		word, bit := i/wordBits, uint(i%wordBits)
		idx := alphabetIndex(b)
		if idx < 0 {
			p.NumWildcards++
			p.WildcardMask[word] |= 1 << bit
			// A wildcard matches every letter, per Myers' PEQ convention
			// for "don't care" positions.
			for letter := range alphabet {
				p.PEQ[letter][word] |= 1 << bit
			}
			continue
		}
		p.PEQ[idx][word] |= 1 << bit
	}
	return p
}
