// Package refindex is a small, naive Archive built directly from in-memory
// FASTA data: a sorted suffix array over the concatenated sequences,
// searched by binary search rather than a true FM-index/BWT. It exists so
// the rest of this module (and its tests) have a concrete, correct Archive
// to run against; building a production FM-index is out of scope (§9).
package refindex

import (
	"bytes"
	"sort"

	"github.com/grailbio/gemsearch/archive"
	"github.com/grailbio/gemsearch/encoding/fasta"
	"github.com/pkg/errors"
)

// separator is inserted between concatenated sequences so no suffix match
// can span two of them. It sorts before every base, including 'N'.
const separator = 0

type seqSpan struct {
	name  string
	start uint64
	end   uint64 // exclusive, in the concatenated text
}

// Index is a refindex Archive instance.
type Index struct {
	text        []byte
	suffixArray []uint64
	spans       []seqSpan
	colorSpace  bool
}

// Opt configures Build.
type Opt func(*Index)

// OptColorSpace marks the built index as color-space, per §9's
// reverse-complement/CIGAR-reversal rule.
func OptColorSpace(idx *Index) { idx.colorSpace = true }

// Build constructs an Index over every sequence in f.
func Build(f fasta.Fasta, opts ...Opt) (*Index, error) {
	idx := &Index{}
	for _, o := range opts {
		o(idx)
	}
	var text []byte
	for _, name := range f.SeqNames() {
		n, err := f.Len(name)
		if err != nil {
			return nil, err
		}
		seq, err := f.Get(name, 0, n)
		if err != nil {
			return nil, err
		}
		start := uint64(len(text))
		text = append(text, []byte(seq)...)
		idx.spans = append(idx.spans, seqSpan{name: name, start: start, end: uint64(len(text))})
		text = append(text, separator)
	}
	if len(text) == 0 {
		return nil, errors.New("refindex: empty archive")
	}
	idx.text = text

	var sa []uint64
	for pos, b := range text {
		if b != separator {
			sa = append(sa, uint64(pos))
		}
	}
	sort.Slice(sa, func(i, j int) bool {
		return bytes.Compare(text[sa[i]:], text[sa[j]:]) < 0
	})
	idx.suffixArray = sa
	return idx, nil
}

// FMIndexRoot implements archive.Archive.
func (idx *Index) FMIndexRoot() archive.Interval {
	return archive.Interval{Lo: 0, Hi: uint64(len(idx.suffixArray)), Depth: 0}
}

// FMIndexLookup implements archive.Archive.
func (idx *Index) FMIndexLookup(saIdx uint64) uint64 {
	return idx.suffixArray[saIdx]
}

// FMIndexStep implements archive.Archive. It uses iv.Depth (see the doc
// comment on archive.Interval) to reconstruct the matched slice, so each
// step is a plain substring search over the whole suffix array rather
// than an incremental narrowing of iv.
func (idx *Index) FMIndexStep(iv archive.Interval, c byte) archive.Interval {
	if iv.Empty() {
		return archive.Interval{Lo: iv.Lo, Hi: iv.Lo, Depth: iv.Depth + 1}
	}
	sample := idx.suffixArray[iv.Lo]
	depth := iv.Depth
	query := make([]byte, depth+1)
	query[0] = c
	copy(query[1:], idx.sliceAt(sample, depth))

	sa := idx.suffixArray
	lo := sort.Search(len(sa), func(i int) bool {
		return bytes.Compare(idx.sliceAt(sa[i], uint64(len(query))), query) >= 0
	})
	hi := sort.Search(len(sa), func(i int) bool {
		return bytes.Compare(idx.sliceAt(sa[i], uint64(len(query))), query) > 0
	})
	return archive.Interval{Lo: uint64(lo), Hi: uint64(hi), Depth: depth + 1}
}

// sliceAt returns up to length bytes of text starting at pos, clipped at
// the end of text (a short slice compares as less than any longer one with
// the same prefix, which is the behavior bytes.Compare already gives us).
func (idx *Index) sliceAt(pos, length uint64) []byte {
	end := pos + length
	if end > uint64(len(idx.text)) {
		end = uint64(len(idx.text))
	}
	return idx.text[pos:end]
}

// TextSlice implements archive.Archive, clipping at either end of the text
// rather than failing (§7).
func (idx *Index) TextSlice(pos uint64, length uint64) []byte {
	if pos >= uint64(len(idx.text)) {
		return nil
	}
	return idx.sliceAt(pos, length)
}

// TextLength implements archive.Archive.
func (idx *Index) TextLength() uint64 { return uint64(len(idx.text)) }

// LocatorMap implements archive.Archive.
func (idx *Index) LocatorMap(pos uint64) archive.Location {
	i := sort.Search(len(idx.spans), func(i int) bool { return idx.spans[i].end > pos })
	if i == len(idx.spans) {
		return archive.Location{}
	}
	span := idx.spans[i]
	return archive.Location{SeqName: span.name, Offset: pos - span.start, Strand: archive.Forward}
}

// IndexedComplement implements archive.Archive; refindex never indexes the
// reverse-complement strand, so Archive Search always builds its own twin.
func (idx *Index) IndexedComplement() bool { return false }

// ColorSpace implements archive.Archive.
func (idx *Index) ColorSpace() bool { return idx.colorSpace }

var _ archive.Archive = (*Index)(nil)
