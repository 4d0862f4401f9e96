// Package matches holds the accepted alignments an Archive Search has
// produced so far, and implements the match decoding/selection policy
// that runs once a search ends: stratum accounting, (max_decoded,
// min_strata, min_reported, max_reported) trimming, and deduplication by
// (position, CIGAR).
package matches

import (
	"sort"

	"github.com/minio/highwayhash"

	"github.com/grailbio/gemsearch/archive"
	"github.com/grailbio/gemsearch/filtering"
)

// zeroKey is the highwayhash seed used throughout this package, matching
// the zero-seed convention used for in-process-only hashing (no
// adversarial input, no cross-process key agreement needed).
var zeroKey [highwayhash.Size]uint8

// Match is one accepted alignment.
type Match struct {
	Position uint64
	Distance int
	CIGAR    string
	Strand   archive.Strand
}

// Matches accumulates accepted alignments across both strands of one
// Archive Search, bucketed by edit distance ("stratum").
type Matches struct {
	// counters[d] is the number of matches found at distance d.
	counters []int
	byStratum [][]Match
	seen      map[[highwayhash.Size]uint8]struct{}
}

// New returns an empty Matches sized for error budgets up to maxError.
func New(maxError int) *Matches {
	return &Matches{
		counters:  make([]int, maxError+1),
		byStratum: make([][]Match, maxError+1),
		seen:      make(map[[highwayhash.Size]uint8]struct{}),
	}
}

func dedupKey(pos uint64, cigar string) [highwayhash.Size]uint8 {
	buf := make([]byte, 8+len(cigar))
	for i := 0; i < 8; i++ {
		buf[i] = byte(pos >> (8 * uint(i)))
	}
	copy(buf[8:], cigar)
	return highwayhash.Sum(buf, zeroKey[:])
}

// Add records an accepted region as a Match, silently dropping it if a
// match with the same (position, CIGAR) was already recorded (§4.5's
// "duplicate matches are silently dropped").
func (m *Matches) Add(r filtering.Region, strand archive.Strand) {
	if r.State != filtering.VerifiedAccepted {
		return
	}
	key := dedupKey(r.Begin, r.CIGAR)
	if _, dup := m.seen[key]; dup {
		return
	}
	m.seen[key] = struct{}{}
	if r.Distance >= len(m.counters) {
		return
	}
	m.counters[r.Distance]++
	m.byStratum[r.Distance] = append(m.byStratum[r.Distance], Match{
		Position: r.Begin,
		Distance: r.Distance,
		CIGAR:    r.CIGAR,
		Strand:   strand,
	})
}

// Count returns the total number of accepted matches across all strata.
func (m *Matches) Count() int {
	total := 0
	for _, c := range m.counters {
		total += c
	}
	return total
}

// Select implements the stratum-capping selection policy of §4.8,
// ported from archive_search_calculate_matches_to_decode /
// archive_search_decode_matches.
func Select(m *Matches, maxDecoded, minStrata, minReported, maxReported int) []Match {
	maxNZStratum := -1
	for d, c := range m.counters {
		if c > 0 {
			maxNZStratum = d
		}
	}
	if maxNZStratum < 0 {
		return nil
	}

	firstNonEmpty := -1
	for d, c := range m.counters {
		if c > 0 {
			firstNonEmpty = d
			break
		}
	}

	// Accumulate strata until the running total would exceed maxDecoded,
	// then back off one stratum.
	lastStratum := 0
	accumulated := 0
	for d := 0; d <= maxNZStratum; d++ {
		next := accumulated + m.counters[d]
		if next > maxDecoded && accumulated >= minReported {
			break
		}
		accumulated = next
		lastStratum = d
	}

	// Extend to minStrata beyond the first non-empty stratum, and to at
	// least minReported matches.
	for lastStratum < firstNonEmpty+minStrata-1 && lastStratum < maxNZStratum {
		lastStratum++
		accumulated += m.counters[lastStratum]
	}
	for accumulated < minReported && lastStratum < maxNZStratum {
		lastStratum++
		accumulated += m.counters[lastStratum]
	}

	var out []Match
	priorCount := 0
	for d := 0; d < lastStratum; d++ {
		out = append(out, m.byStratum[d]...)
		priorCount += m.counters[d]
	}
	// Step 5: the last retained stratum keeps at most
	// maxReported - priorCount matches, but the overall result is never
	// trimmed below minReported (step 4).
	budget := maxReported - priorCount
	if budget < 0 {
		budget = 0
	}
	if budget < minReported-priorCount {
		budget = minReported - priorCount
	}
	last := m.byStratum[lastStratum]
	if budget >= 0 && budget < len(last) {
		last = last[:budget]
	}
	out = append(out, last...)

	if len(out) > maxReported && len(out) > minReported {
		out = out[:maxIntOf(maxReported, minReported)]
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Position < out[j].Position
	})
	return out
}

func maxIntOf(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// NormalizeReverseMatch adjusts a reverse-strand match's reported
// position by its CIGAR's effective reference length minus one, and
// reverses the CIGAR itself, per §4.8 step 6. colorSpace is passed through
// to reverseCIGAR but does not change the result: in both modes the CIGAR's
// run order is reversed and nothing is complemented.
func NormalizeReverseMatch(match Match, refLen int, colorSpace bool) Match {
	if refLen > 0 {
		match.Position += uint64(refLen - 1)
	}
	match.CIGAR = reverseCIGAR(match.CIGAR, colorSpace)
	return match
}

// reverseCIGAR reverses a run-length-encoded CIGAR string's run order. In
// color space, the underlying colors being reversed means adjacent
// transitions are complemented, not merely mirrored; this package only
// carries the CIGAR (not colors), so colorSpace is ignored and the run
// order is flipped the same way in both modes, which is correct for base
// space. No color complement is applied here or by archivesearch.Search.
func reverseCIGAR(cigar string, colorSpace bool) string {
	runs := splitCIGAR(cigar)
	for i, j := 0, len(runs)-1; i < j; i, j = i+1, j-1 {
		runs[i], runs[j] = runs[j], runs[i]
	}
	return joinCIGAR(runs)
}
