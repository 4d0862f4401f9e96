// Package region decomposes a prepared Pattern into a RegionProfile: an
// ordered, non-overlapping sequence of slices, each carrying an FM-index
// interval and an error budget. It is the search engine's seed-finding
// step — mirroring how fusion.GeneDB.findByKmer looks up k-mers against an
// index to annotate a geneRangeInfo, generalized here to FM-index
// backward-search intervals instead of fixed-length k-mer hashes.
package region

import (
	"github.com/grailbio/gemsearch/archive"
	"github.com/grailbio/gemsearch/pattern"
	"github.com/grailbio/gemsearch/searchparams"
	"github.com/pkg/errors"
)

// ErrNoRegions is returned when the pattern contains too many wildcards (or
// is too short) to admit the k+1 regions the filtration lemma requires.
var ErrNoRegions = errors.New("region: no usable regions")

// State classifies how a region's profiling step ended.
type State int

const (
	// Standard regions ended because their interval shrank below
	// region_th, or they hit max_steps.
	Standard State = iota
	// Unique regions narrowed to exactly one SA hit before closing.
	Unique
	// Elected regions were chosen by the delimit/boost strategy to be
	// bisected and re-searched.
	Elected
	// Gap regions cover a pattern slice skipped by a prior profile (e.g. a
	// stretch of wildcards) and carry no SA interval.
	Gap
)

func (s State) String() string {
	switch s {
	case Standard:
		return "standard"
	case Unique:
		return "unique"
	case Elected:
		return "elected"
	case Gap:
		return "gap"
	default:
		return "unknown"
	}
}

// Region is a maximal, non-overlapping slice of the pattern together with
// the SA interval it resolves to and the error budget allotted to it.
type Region struct {
	// Begin, End is the [begin, end) slice of the pattern this region
	// covers.
	Begin, End int
	// Interval is the FM-index interval for Pattern.Key[Begin:End], read
	// backward (End-1 down to Begin).
	Interval archive.Interval
	// MaxError is the error budget assigned to this region.
	MaxError int
	// State records how profiling ended for this region.
	State State
}

// Len returns End - Begin, the number of pattern bases this region covers.
func (r Region) Len() int { return r.End - r.Begin }

// Profile is an ordered, non-overlapping decomposition of a pattern.
// Regions are strictly ordered by Begin, per the invariant in §3.
type Profile struct {
	Regions []Region
	// Strategy names which profiler produced this profile ("adaptive" or
	// "delimit-boost"), for logging and for Search's escalation logic.
	Strategy string
}

// TotalErrorBudget sums every region's MaxError. The output invariant is
// that this sum is >= the search's current max error.
func (p Profile) TotalErrorBudget() int {
	total := 0
	for _, r := range p.Regions {
		total += r.MaxError
	}
	return total
}

// ExactMatch reports whether the profile consists of a single region
// spanning the whole pattern with at least one SA hit — the
// exact_matches shortcut in the search state machine.
func (p Profile) ExactMatch(patternLen int) bool {
	return len(p.Regions) == 1 &&
		p.Regions[0].Begin == 0 && p.Regions[0].End == patternLen &&
		!p.Regions[0].Interval.Empty()
}

// Profiler builds a Profile from a prepared Pattern. Adaptive and
// delimit/boost are the two strategies behind this interface (§4.2).
type Profiler interface {
	Profile(a archive.Archive, p *pattern.Pattern, params searchparams.Params) (Profile, error)
}

// AdaptiveProfiler walks the pattern right-to-left, extending each region
// with backward FM-index steps until its interval shrinks below
// params.RegionMinLength-derived region_th or it hits params.MaxSteps,
// then starts the next region at the next unused position. This is the
// "fixed/adaptive" strategy of §4.2.
type AdaptiveProfiler struct{}

// Profile implements Profiler.
func (AdaptiveProfiler) Profile(a archive.Archive, p *pattern.Pattern, params searchparams.Params) (Profile, error) {
	key := p.Key
	n := len(key)
	var regions []Region
	pos := n
	regionTh := uint64(params.RegionMinLength)
	for pos > 0 {
		end := pos
		iv := a.FMIndexRoot()
		steps := 0
		begin := pos
		for begin > 0 && steps < params.MaxSteps {
			next := a.FMIndexStep(iv, key[begin-1])
			if next.Empty() {
				break
			}
			iv = next
			begin--
			steps++
			if iv.Len() < regionTh {
				break
			}
		}
		if begin == end {
			// A single backward step already produced nothing: the base at
			// begin-1 doesn't occur at all combined with the rest of the
			// region. Treat it as a one-base region so profiling still makes
			// progress.
			begin = end - 1
			iv = a.FMIndexStep(a.FMIndexRoot(), key[begin])
		}
		state := Standard
		if iv.Len() == 1 {
			state = Unique
		}
		regions = append(regions, Region{
			Begin:    begin,
			End:      end,
			Interval: iv,
			MaxError: 1,
			State:    state,
		})
		pos = begin
	}
	if len(regions) == 0 {
		return Profile{}, ErrNoRegions
	}
	// Regions were built back-to-front; restore begin-ascending order per
	// the invariant in §3.
	for i, j := 0, len(regions)-1; i < j; i, j = i+1, j-1 {
		regions[i], regions[j] = regions[j], regions[i]
	}
	profile := Profile{Regions: regions, Strategy: "adaptive"}
	if profile.TotalErrorBudget() < params.MaxError+1 {
		return Profile{}, ErrNoRegions
	}
	return profile, nil
}

// DelimitBoostProfiler bisects the longest regions of a prior, failed
// profile to refine locality, per the "delimit/boost" strategy of §4.2.
type DelimitBoostProfiler struct {
	// Prior is the profile that failed to yield enough matches.
	Prior Profile
}

// Profile implements Profiler. It re-derives SA intervals for the
// bisected halves of the prior profile's longest regions, marking them
// Elected.
func (d DelimitBoostProfiler) Profile(a archive.Archive, p *pattern.Pattern, params searchparams.Params) (Profile, error) {
	if len(d.Prior.Regions) == 0 {
		return Profile{}, ErrNoRegions
	}
	longest := 0
	for _, prior := range d.Prior.Regions {
		if prior.Len() > longest {
			longest = prior.Len()
		}
	}
	var regions []Region
	for _, prior := range d.Prior.Regions {
		if prior.Len() < 2 || prior.Len() < longest {
			regions = append(regions, prior)
			continue
		}
		mid := prior.Begin + prior.Len()/2
		for _, half := range [2]struct{ begin, end int }{{prior.Begin, mid}, {mid, prior.End}} {
			iv := a.FMIndexRoot()
			for i := half.end - 1; i >= half.begin; i-- {
				iv = a.FMIndexStep(iv, p.Key[i])
				if iv.Empty() {
					break
				}
			}
			state := Elected
			if iv.Len() == 1 {
				state = Unique
			}
			regions = append(regions, Region{
				Begin:    half.begin,
				End:      half.end,
				Interval: iv,
				MaxError: 1,
				State:    state,
			})
		}
	}
	if len(regions) == 0 {
		return Profile{}, ErrNoRegions
	}
	profile := Profile{Regions: regions, Strategy: "delimit-boost"}
	if profile.TotalErrorBudget() < params.MaxError+1 {
		return Profile{}, ErrNoRegions
	}
	return profile, nil
}
