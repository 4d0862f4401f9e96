// Package bpm computes banded edit-distance alignments of a prepared
// Pattern against a text window, and the CIGAR traceback of an accepted
// alignment. Patterns that fit a single 64-bit Myers block use the
// classic bit-parallel algorithm (Myers, 1999); longer patterns fall back
// to a plain (unbanded) dynamic-programming pass over the whole window,
// accepting only results within the same error budget, since correctly propagating carries across the cooperative multi-block
// scheme the original CUDA kernels use (resources/gpu_bpm_core.h in the
// original source) is not something that can be gotten right without the
// ability to run it — see DESIGN.md.
package bpm

import (
	"strconv"
	"strings"

	"github.com/grailbio/gemsearch/pattern"
)

// Op is one CIGAR operation kind.
type Op byte

const (
	OpMatch    Op = '='
	OpMismatch Op = 'X'
	// OpIns is a base present in the text but not the pattern (an
	// insertion relative to the pattern, consumes only text).
	OpIns Op = 'I'
	// OpDel is a base present in the pattern but not the text (a deletion
	// relative to the pattern, consumes only pattern).
	OpDel Op = 'D'
)

type cigarRun struct {
	op  Op
	len int
}

// cigarString renders a run-length-encoded CIGAR string, e.g. "3=1X2=1D4=".
func cigarString(runs []cigarRun) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(strconv.Itoa(r.len))
		b.WriteByte(byte(r.op))
	}
	return b.String()
}

// Result is the outcome of aligning a Pattern against a text window.
type Result struct {
	// Distance is the edit distance of the best alignment found.
	Distance int
	// EndColumn is the offset (within the text window) one past the last
	// text base consumed by the alignment.
	EndColumn int
	// CIGAR is the run-length-encoded traceback of the best alignment.
	CIGAR string
}

// Align finds the minimum-edit-distance alignment of p fully consumed
// against some substring of text (free start, free end — "approximate
// string matching with k differences"), bounded by maxError. ok is false
// when no alignment within maxError exists anywhere in text.
func Align(p *pattern.Pattern, text []byte, maxError int) (result Result, ok bool) {
	if p.NumWords == 1 {
		return alignBitParallel(p, text, maxError)
	}
	return alignBanded(p.Key, text, maxError)
}

// alignBitParallel runs the classic single-block Myers bit-vector
// algorithm, then recovers the CIGAR with a banded DP traceback seeded by
// the distance and end column it found.
func alignBitParallel(p *pattern.Pattern, text []byte, maxError int) (Result, bool) {
	m := p.Len()
	peq := [4][]uint64{p.PEQ[0], p.PEQ[1], p.PEQ[2], p.PEQ[3]}
	wildcard := p.WildcardMask
	topBit := uint64(1) << uint(m-1)
	fullMask := uint64(1)<<uint(m) - 1
	if m == 64 {
		fullMask = ^uint64(0)
	}

	pv := fullMask
	mv := uint64(0)
	score := m

	best := -1
	bestEnd := -1
	for j, c := range text {
		eq := eqForBase(peq, wildcard, c, 0) & fullMask
		xv := eq | mv
		xh := (((eq & pv) + pv) ^ pv) | eq
		ph := mv | ^(xh | pv)
		mh := pv & xh
		ph &= fullMask
		mh &= fullMask

		if ph&topBit != 0 {
			score++
		} else if mh&topBit != 0 {
			score--
		}

		ph = ph << 1
		mh = mh << 1
		pv = (mh | ^(xv | ph)) & fullMask
		mv = (ph & xv) & fullMask

		if score <= maxError && (best == -1 || score <= best) {
			best = score
			bestEnd = j + 1
		}
	}
	if best == -1 {
		return Result{}, false
	}
	return traceback(p.Key, text, bestEnd, best)
}

// eqForBase returns the pattern's PEQ row for base c, OR-ing in the
// wildcard mask so a pattern wildcard matches any text base; word is the
// Myers block index (always 0 on the single-word path).
func eqForBase(peq [4][]uint64, wildcard []uint64, c byte, word int) uint64 {
	idx := alphabetIndex(c)
	if idx < 0 {
		// A wildcard (N) in the text matches every pattern letter.
		return ^uint64(0)
	}
	return peq[idx][word] | wildcard[word]
}

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

// alignBanded is the multi-word fallback: a plain O(len(key)*len(text))
// dynamic-programming pass with free start and free end on the text axis,
// which is exactly the "k differences" alignment bpm computes for the
// single-word case, just without the bit-parallel speedup.
func alignBanded(key []byte, text []byte, maxError int) (Result, bool) {
	n, m := len(key), len(text)
	// cur[i] (prev[i] for the previous column) holds the edit distance of key[:i] against the best-matching
	// text prefix ending at the current column.
	prev := make([]int, n+1)
	for i := range prev {
		prev[i] = i
	}
	best := -1
	bestEnd := -1
	for j := 1; j <= m; j++ {
		cur := make([]int, n+1)
		cur[0] = 0 // free start: an alignment may begin at any text column.
		for i := 1; i <= n; i++ {
			cost := 1
			if equalBase(key[i-1], text[j-1]) {
				cost = 0
			}
			sub := prev[i-1] + cost
			del := prev[i] + 1
			ins := cur[i-1] + 1
			v := sub
			if del < v {
				v = del
			}
			if ins < v {
				v = ins
			}
			cur[i] = v
		}
		if cur[n] <= maxError && (best == -1 || cur[n] <= best) {
			best = cur[n]
			bestEnd = j
		}
		prev = cur
	}
	if best == -1 {
		return Result{}, false
	}
	return traceback(key, text, bestEnd, best)
}

func equalBase(a, b byte) bool {
	ai, bi := alphabetIndex(a), alphabetIndex(b)
	if ai < 0 || bi < 0 {
		// A wildcard on either side matches anything.
		return true
	}
	return ai == bi
}

// traceback recomputes the full edit matrix for key against
// text[:endCol] (free start on the text axis) and walks it back from
// (len(key), endCol) to produce a CIGAR, choosing the diagonal move
// whenever it is optimal to keep traces free of spurious indels.
func traceback(key []byte, text []byte, endCol int, distance int) (Result, bool) {
	n := len(key)
	window := text[:endCol]
	m := len(window)
	rows := make([][]int, n+1)
	for i := range rows {
		rows[i] = make([]int, m+1)
	}
	for j := 0; j <= m; j++ {
		rows[0][j] = 0
	}
	for i := 1; i <= n; i++ {
		rows[i][0] = i
		for j := 1; j <= m; j++ {
			cost := 1
			if equalBase(key[i-1], window[j-1]) {
				cost = 0
			}
			sub := rows[i-1][j-1] + cost
			del := rows[i-1][j] + 1
			ins := rows[i][j-1] + 1
			v := sub
			if del < v {
				v = del
			}
			if ins < v {
				v = ins
			}
			rows[i][j] = v
		}
	}

	i, j := n, m
	var runs []cigarRun
	push := func(op Op) {
		if len(runs) > 0 && runs[len(runs)-1].op == op {
			runs[len(runs)-1].len++
			return
		}
		runs = append(runs, cigarRun{op: op, len: 1})
	}
	for i > 0 && j > 0 {
		cost := 1
		if equalBase(key[i-1], window[j-1]) {
			cost = 0
		}
		switch {
		case rows[i][j] == rows[i-1][j-1]+cost:
			if cost == 0 {
				push(OpMatch)
			} else {
				push(OpMismatch)
			}
			i--
			j--
		case rows[i][j] == rows[i-1][j]+1:
			push(OpDel)
			i--
		default:
			push(OpIns)
			j--
		}
	}
	for i > 0 {
		push(OpDel)
		i--
	}
	// Any remaining text (j > 0) is the free start/end slack outside the
	// alignment and is not part of the CIGAR.
	for l, r := 0, len(runs)-1; l < r; l, r = l+1, r-1 {
		runs[l], runs[r] = runs[r], runs[l]
	}
	return Result{Distance: distance, EndColumn: endCol, CIGAR: cigarString(runs)}, true
}
