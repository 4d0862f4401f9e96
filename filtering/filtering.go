// Package filtering is the staging area for approximate search: it turns
// a Region Profile's SA intervals into text positions (decode), merges
// nearby positions into candidate groups (compaction), and verifies each
// group by banded edit distance (verify). It corresponds to spec
// components "FilteringPosition", "FilteringRegion", and "Interval Set".
package filtering

import (
	"sort"

	farm "github.com/dgryski/go-farm"
	"github.com/biogo/store/llrb"

	"github.com/grailbio/gemsearch/archive"
	"github.com/grailbio/gemsearch/arena"
	"github.com/grailbio/gemsearch/bpm"
	"github.com/grailbio/gemsearch/pattern"
	"github.com/grailbio/gemsearch/region"
)

// decodeShards is the shard count of the decode dedup map, following
// fusion/kmer_index.go's farmhash-sharded layout.
const decodeShards = 256

// Position is a candidate begin-position on the text, produced by
// decoding one SA interval and adjusting for the region's offset within
// the pattern.
type Position struct {
	TextBegin    uint64
	SourceRegion int
	// Distance is the source region's error budget, used as the initial
	// tagged distance estimate before verification.
	Distance int
}

// Region is a verified (or pending) candidate span: a group of decoded
// positions within max_error of each other, collapsed to one alignment
// window.
type Region struct {
	Begin, End uint64
	MinTaggedDistance int
	// State tracks how far this candidate has progressed.
	State State
	// Distance and CIGAR are set once State == VerifiedAccepted.
	Distance int
	CIGAR    string
}

// State is a FilteringRegion's alignment state.
type State int

const (
	Pending State = iota
	VerifiedAccepted
	VerifiedDiscarded
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case VerifiedAccepted:
		return "verified-accepted"
	case VerifiedDiscarded:
		return "verified-discarded"
	default:
		return "unknown"
	}
}

// Candidates accumulates decoded positions and their compaction into
// FilteringRegions across one Archive Search.
type Candidates struct {
	positions []Position
	regions   []Region
	seen      [decodeShards]map[uint64]struct{}
	intervals intervalSet
}

// NewCandidates returns an empty Candidates staging area.
func NewCandidates() *Candidates {
	c := &Candidates{}
	for i := range c.seen {
		c.seen[i] = make(map[uint64]struct{})
	}
	return c
}

func decodeKey(region int, textPos uint64) uint64 {
	return farm.Hash64WithSeed(nil, uint64(region)^(textPos*0x9E3779B97F4A7C15))
}

// Decode turns every non-empty region of a profile into Positions,
// skipping SA intervals already decoded by a prior (less-boosted)
// profile, per the Interval Set component.
func (c *Candidates) Decode(a archive.Archive, profile region.Profile) {
	for ri, r := range profile.Regions {
		if r.Interval.Empty() {
			continue
		}
		if c.intervals.seenAndMark(r.Interval) {
			continue
		}
		for saIdx := r.Interval.Lo; saIdx < r.Interval.Hi; saIdx++ {
			textPos := a.FMIndexLookup(saIdx)
			begin := textPos
			if uint64(r.Begin) <= begin {
				begin -= uint64(r.Begin)
			} else {
				begin = 0
			}
			shard := decodeKey(ri, begin) % decodeShards
			key := begin
			if _, dup := c.seen[shard][key]; dup {
				continue
			}
			c.seen[shard][key] = struct{}{}
			c.positions = append(c.positions, Position{
				TextBegin:    begin,
				SourceRegion: ri,
				Distance:     r.MaxError,
			})
		}
	}
}

// Compact sorts decoded positions by text offset and merges positions
// within maxError of each other into candidate groups, preserving the
// minimum tagged distance across each merged group.
func (c *Candidates) Compact(maxError int, patternLen int) {
	sort.Slice(c.positions, func(i, j int) bool {
		return c.positions[i].TextBegin < c.positions[j].TextBegin
	})
	c.regions = c.regions[:0]
	tol := uint64(maxError)
	for _, p := range c.positions {
		if n := len(c.regions); n > 0 {
			last := &c.regions[n-1]
			if p.TextBegin <= last.Begin+tol {
				if p.Distance < last.MinTaggedDistance {
					last.MinTaggedDistance = p.Distance
				}
				continue
			}
		}
		c.regions = append(c.regions, Region{
			Begin:             p.TextBegin,
			End:               p.TextBegin + uint64(patternLen),
			MinTaggedDistance: p.Distance,
			State:             Pending,
		})
	}
}

// Verify runs banded Myers edit distance (via bpm) on every region staged
// by the last Compact, whatever its current state, fetching a text window of [begin-band, end+band] (band =
// currentMaxError). Out-of-bounds fetches are clipped, not failed, by
// archive.Archive.TextSlice itself. ar, when non-nil, supplies the
// per-search scoped buffer the text window is copied into, per the
// arena-allocated-per-search-memory design note (§9): the archive's own
// TextSlice result is never retained past the call, so copying it into
// the search's arena keeps every byte Verify touches inside one scope
// that is released in full when the search ends.
func (c *Candidates) Verify(a archive.Archive, p *pattern.Pattern, currentMaxError int, ar *arena.Arena) {
	band := uint64(currentMaxError)
	for i := range c.regions {
		r := &c.regions[i]
		var windowStart uint64
		if r.Begin > band {
			windowStart = r.Begin - band
		}
		windowLen := (r.End - windowStart) + band
		window := a.TextSlice(windowStart, windowLen)
		if ar != nil {
			scratch := ar.Get(len(window))
			copy(scratch, window)
			window = scratch
		}
		result, ok := bpm.Align(p, window, currentMaxError)
		if !ok {
			r.State = VerifiedDiscarded
			continue
		}
		r.State = VerifiedAccepted
		r.Distance = result.Distance
		r.CIGAR = result.CIGAR
		r.Begin = windowStart
		r.End = windowStart + uint64(result.EndColumn)
	}
}

// Accepted returns every region whose state is VerifiedAccepted.
func (c *Candidates) Accepted() []Region {
	var out []Region
	for _, r := range c.regions {
		if r.State == VerifiedAccepted {
			out = append(out, r)
		}
	}
	return out
}

// Regions returns every candidate region produced by the last Compact
// call, regardless of verification state.
func (c *Candidates) Regions() []Region { return c.regions }

// intervalKey adapts an archive.Interval for use as an llrb.Comparable,
// ordered first by Lo then Hi.
type intervalKey archive.Interval

func (k intervalKey) Compare(other llrb.Comparable) int {
	o := other.(intervalKey)
	if k.Lo != o.Lo {
		if k.Lo < o.Lo {
			return -1
		}
		return 1
	}
	if k.Hi != o.Hi {
		if k.Hi < o.Hi {
			return -1
		}
		return 1
	}
	return 0
}

// intervalSet is the union of SA intervals decoded so far, deduplicated
// so a boosted re-profiling pass never decodes the same interval twice.
type intervalSet struct {
	tree llrb.Tree
}

// seenAndMark reports whether iv was already recorded, and records it if
// not.
func (s *intervalSet) seenAndMark(iv archive.Interval) bool {
	key := intervalKey(iv)
	if s.tree.Get(key) != nil {
		return true
	}
	s.tree.Insert(key)
	return false
}
