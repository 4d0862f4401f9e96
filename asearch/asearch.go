// Package asearch implements the Approximate Search state machine: the
// per-strand engine that profiles a pattern into regions, escalates
// through exact, boosted, and inexact filtering, and falls back to
// neighborhood search or read recovery. It is grounded directly on
// approximate_search_filtering_adaptive.c and approximate_search.h's
// state enum in the original source.
package asearch

import (
	"strconv"

	"github.com/grailbio/base/log"

	"github.com/grailbio/gemsearch/archive"
	"github.com/grailbio/gemsearch/arena"
	"github.com/grailbio/gemsearch/filtering"
	"github.com/grailbio/gemsearch/pattern"
	"github.com/grailbio/gemsearch/region"
	"github.com/grailbio/gemsearch/searchparams"
)

// State is one node of the Approximate Search state machine.
type State int

const (
	Begin State = iota
	NoRegions
	ExactMatches
	ExactFilteringAdaptive
	CandidatesVerified
	ExactFilteringBoost
	InexactFiltering
	Neighborhood
	ReadRecovery
	LocalAlignmentState
	End
)

func (s State) String() string {
	switch s {
	case Begin:
		return "begin"
	case NoRegions:
		return "no_regions"
	case ExactMatches:
		return "exact_matches"
	case ExactFilteringAdaptive:
		return "exact_filtering_adaptive"
	case CandidatesVerified:
		return "candidates_verified"
	case ExactFilteringBoost:
		return "exact_filtering_boost"
	case InexactFiltering:
		return "inexact_filtering"
	case Neighborhood:
		return "neighborhood"
	case ReadRecovery:
		return "read_recovery"
	case LocalAlignmentState:
		return "local_alignment"
	case End:
		return "end"
	default:
		return "unknown"
	}
}

// Terminal reports whether s has no outgoing transitions.
func (s State) Terminal() bool {
	switch s {
	case NoRegions, ExactMatches, End:
		return true
	default:
		return false
	}
}

// FulfillmentHook, if set, is consulted in the CandidatesVerified step
// (after the adaptive filtering verify, not after the later escalation
// steps) and may request an early stop. It mirrors the commented-out
// asearch_control_fulfilled logic in the original source: nil by default,
// so the search never short-circuits on its own, per the design note's
// Open Question resolution (see DESIGN.md).
type FulfillmentHook func(s *Search) bool

// Search is one strand's Approximate Search engine.
type Search struct {
	Archive archive.Archive
	Pattern *pattern.Pattern
	Params  searchparams.Params

	State State
	// CurrentMaxError narrows over the course of the search via the
	// max-error adjustment rule.
	CurrentMaxError int
	// StopBefore suspends Run just before entering this state, so a
	// pipeline stage boundary can resume it later. Zero value (Begin)
	// means run to completion.
	StopBefore State

	Profile    region.Profile
	Candidates *filtering.Candidates
	Matches    *filteringMatches
	// Arena is this search's scoped bump allocator for verify-step scratch
	// buffers; it is reset whenever Run reaches a terminal state, so a
	// search's working memory never outlives the search itself.
	Arena *arena.Arena

	// FulfillmentHook is consulted after CandidatesVerified; see the type
	// doc above.
	FulfillmentHook FulfillmentHook

	bestDistance    int
	haveBestDistance bool
}

// filteringMatches is the minimal view asearch needs of a strand's
// accepted regions; archivesearch owns the richer matches.Matches.
type filteringMatches struct {
	regions []filtering.Region
}

// New returns a Search ready to Run from the Begin state.
func New(a archive.Archive, p *pattern.Pattern, params searchparams.Params) *Search {
	return &Search{
		Archive:         a,
		Pattern:         p,
		Params:          params,
		State:           Begin,
		CurrentMaxError: params.MaxError,
		Candidates:      filtering.NewCandidates(),
		Matches:         &filteringMatches{},
		Arena:           &arena.Arena{},
	}
}

// Run drives the state machine forward from its current State until it
// reaches a terminal state or StopBefore, whichever comes first.
func (s *Search) Run() {
	for {
		if s.State == s.StopBefore && s.StopBefore != Begin {
			return
		}
		if s.State.Terminal() {
			s.Arena.Reset()
			return
		}
		switch s.State {
		case Begin:
			s.stepBegin()
		case ExactFilteringAdaptive:
			s.stepExactFilteringAdaptive()
		case CandidatesVerified:
			s.stepCandidatesVerified()
		case ExactFilteringBoost:
			s.stepExactFilteringBoost()
		case InexactFiltering:
			s.stepInexactFiltering()
		case Neighborhood:
			s.stepNeighborhood()
		case ReadRecovery:
			s.stepReadRecovery()
		case LocalAlignmentState:
			s.stepLocalAlignment()
		default:
			log.Error.Printf("asearch: no transition defined for state %s", s.State)
			s.State = End
		}
	}
}

// stepBegin implements transition rule 1.
func (s *Search) stepBegin() {
	if s.Pattern.Len() == 0 || s.Pattern.NumWildcards == s.Pattern.Len() {
		s.State = End
		return
	}
	s.State = ExactFilteringAdaptive
}

// stepExactFilteringAdaptive implements transition rule 2.
func (s *Search) stepExactFilteringAdaptive() {
	profile, err := region.AdaptiveProfiler{}.Profile(s.Archive, s.Pattern, s.Params)
	if err != nil {
		if s.Params.MappingMode == searchparams.Complete || s.Params.MappingMode == searchparams.Sensitive {
			s.State = ReadRecovery
			return
		}
		s.State = NoRegions
		return
	}
	s.Profile = profile

	if profile.ExactMatch(s.Pattern.Len()) {
		s.recordIntervalMatch(profile.Regions[0])
		s.State = ExactMatches
		return
	}

	s.Candidates.Decode(s.Archive, profile)
	s.Candidates.Compact(s.CurrentMaxError, s.Pattern.Len())
	s.Candidates.Verify(s.Archive, s.Pattern, s.CurrentMaxError, s.Arena)
	s.applyMaxErrorAdjustment()
	s.State = CandidatesVerified
}

// recordIntervalMatch expands an interval match (a region spanning the
// whole pattern) directly, without going through filtering/verify.
func (s *Search) recordIntervalMatch(r region.Region) {
	for saIdx := r.Interval.Lo; saIdx < r.Interval.Hi; saIdx++ {
		pos := s.Archive.FMIndexLookup(saIdx)
		s.Matches.regions = append(s.Matches.regions, filtering.Region{
			Begin:    pos,
			End:      pos + uint64(s.Pattern.Len()),
			State:    filtering.VerifiedAccepted,
			Distance: 0,
			CIGAR:    cigarAllMatch(s.Pattern.Len()),
		})
	}
}

func cigarAllMatch(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n) + "="
}

// stepCandidatesVerified implements transition rule 3.
func (s *Search) stepCandidatesVerified() {
	s.Matches.regions = append(s.Matches.regions, s.Candidates.Accepted()...)
	hasMatch := len(s.Matches.regions) > 0

	if s.FulfillmentHook != nil && s.FulfillmentHook(s) {
		s.State = End
		return
	}

	if hasMatch {
		switch s.Params.LocalAlignment {
		case searchparams.LocalNever:
			s.State = End
			return
		case searchparams.LocalIfUnmapped:
			s.State = End
			return
		case searchparams.LocalAlways:
			s.State = LocalAlignmentState
			return
		}
	}

	if !hasMatch && s.Params.LocalAlignment == searchparams.LocalIfUnmapped {
		s.State = LocalAlignmentState
		return
	}

	if s.Params.MappingMode == searchparams.Fast {
		s.State = End
		return
	}
	s.State = ExactFilteringBoost
}

// stepExactFilteringBoost rebuilds the profile with more, finer regions
// (transition rule 5), then re-runs decode/verify.
func (s *Search) stepExactFilteringBoost() {
	profile, err := (region.DelimitBoostProfiler{Prior: s.Profile}).Profile(s.Archive, s.Pattern, s.Params)
	if err != nil {
		s.State = InexactFiltering
		return
	}
	s.Profile = profile
	s.Candidates.Decode(s.Archive, profile)
	s.Candidates.Compact(s.CurrentMaxError, s.Pattern.Len())
	s.Candidates.Verify(s.Archive, s.Pattern, s.CurrentMaxError, s.Arena)
	s.applyMaxErrorAdjustment()
	s.Matches.regions = append(s.Matches.regions, s.Candidates.Accepted()...)

	if s.Params.MappingMode == searchparams.Sensitive {
		s.State = End
		return
	}
	s.State = InexactFiltering
}

// stepInexactFiltering runs a per-region approximate search: each region
// with a nonzero error budget has its interval widened by widenRegion (one
// base substitution at one position), and the widened intervals are
// decoded and re-verified.
func (s *Search) stepInexactFiltering() {
	for _, r := range s.Profile.Regions {
		if r.MaxError == 0 {
			continue
		}
		widened := widenRegion(s.Archive, s.Pattern, r)
		if widened.Interval.Empty() {
			continue
		}
		s.Candidates.Decode(s.Archive, region.Profile{Regions: []region.Region{widened}})
	}
	s.Candidates.Compact(s.CurrentMaxError, s.Pattern.Len())
	s.Candidates.Verify(s.Archive, s.Pattern, s.CurrentMaxError, s.Arena)
	s.applyMaxErrorAdjustment()
	s.Matches.regions = append(s.Matches.regions, s.Candidates.Accepted()...)
	s.State = Neighborhood
}

// widenRegion re-derives a region's interval with each alphabet base in
// place of its last base (the first one the backward walk steps over) and
// keeps the largest resulting interval, approximating the per-region
// approximate search of §4.3 rule 5 without a full neighborhood
// enumeration.
func widenRegion(a archive.Archive, p *pattern.Pattern, r region.Region) region.Region {
	if r.Len() == 0 {
		return r
	}
	best := archive.Interval{}
	for _, base := range []byte{'A', 'C', 'G', 'T'} {
		iv := a.FMIndexRoot()
		for i := r.End - 1; i >= r.Begin; i-- {
			c := p.Key[i]
			if i == r.End-1 {
				c = base
			}
			iv = a.FMIndexStep(iv, c)
			if iv.Empty() {
				break
			}
		}
		if iv.Len() > best.Len() {
			best = iv
		}
	}
	r.Interval = best
	return r
}

// stepNeighborhood re-verifies every candidate region already staged by
// filtering at the (now possibly narrower) CurrentMaxError, which is the
// terminal escalation step before giving up. It does not generate new
// candidates: no k-bounded neighborhood enumeration of the pattern is
// performed.
func (s *Search) stepNeighborhood() {
	s.Candidates.Verify(s.Archive, s.Pattern, s.CurrentMaxError, s.Arena)
	s.applyMaxErrorAdjustment()
	s.Matches.regions = append(s.Matches.regions, s.Candidates.Accepted()...)
	s.State = End
}

// stepReadRecovery re-runs the adaptive profiler with RegionMinLength (the
// region_th interval threshold) set to 1, so a region closes only when the
// next backward step would empty its interval or MaxSteps is reached, and
// then decodes and verifies as usual. It does not seed short fragments
// separately; if this profile also fails, the search ends.
func (s *Search) stepReadRecovery() {
	relaxed := s.Params
	relaxed.RegionMinLength = 1
	profile, err := region.AdaptiveProfiler{}.Profile(s.Archive, s.Pattern, relaxed)
	if err != nil {
		s.State = End
		return
	}
	s.Profile = profile
	s.Candidates.Decode(s.Archive, profile)
	s.Candidates.Compact(s.CurrentMaxError, s.Pattern.Len())
	s.Candidates.Verify(s.Archive, s.Pattern, s.CurrentMaxError, s.Arena)
	s.Matches.regions = append(s.Matches.regions, s.Candidates.Accepted()...)
	s.State = End
}

// stepLocalAlignment moves straight to End: no local (Smith-Waterman-like)
// re-alignment is performed, and no matches are added in this state.
func (s *Search) stepLocalAlignment() {
	s.State = End
}

// applyMaxErrorAdjustment implements transition rule 4: once the best
// match distance is known, lower CurrentMaxError to
// best + CompleteStrataAfterBest whenever that is tighter.
func (s *Search) applyMaxErrorAdjustment() {
	for _, r := range s.Candidates.Accepted() {
		if !s.haveBestDistance || r.Distance < s.bestDistance {
			s.bestDistance = r.Distance
			s.haveBestDistance = true
		}
	}
	if !s.haveBestDistance {
		return
	}
	candidate := s.bestDistance + s.Params.CompleteStrataAfterBest
	if candidate < s.CurrentMaxError {
		s.CurrentMaxError = candidate
	}
}

// Regions returns every accepted FilteringRegion this Search has
// produced so far.
func (s *Search) Regions() []filtering.Region { return s.Matches.regions }
