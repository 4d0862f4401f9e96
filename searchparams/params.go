// Package searchparams holds the evaluated parameter block that drives one
// approximate search: error budgets, escalation policy, and the knobs that
// control match reporting and GPU staging.
package searchparams

// MappingMode selects how aggressively the search escalates past exact and
// adaptive filtering when no (or too few) matches are found.
type MappingMode int

const (
	// Fast stops after adaptive filtering; it never tries boosted profiles,
	// inexact filtering, or neighborhood search.
	Fast MappingMode = iota
	// Sensitive escalates through boosted profiling before giving up; it
	// reaches inexact filtering and neighborhood search only when the
	// boosted profile cannot be built.
	Sensitive
	// Complete escalates all the way to neighborhood search.
	Complete
)

func (m MappingMode) String() string {
	switch m {
	case Fast:
		return "fast"
	case Sensitive:
		return "sensitive"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// LocalAlignment selects when Approximate Search falls back to local
// (Smith-Waterman-like) alignment after filtering fails to fully map a read.
type LocalAlignment int

const (
	// LocalNever disables local alignment entirely.
	LocalNever LocalAlignment = iota
	// LocalIfUnmapped only runs local alignment when filtering produced no
	// accepted match.
	LocalIfUnmapped
	// LocalAlways runs local alignment whenever filtering mapped the read;
	// an unmapped read escalates according to MappingMode instead.
	LocalAlways
)

func (l LocalAlignment) String() string {
	switch l {
	case LocalNever:
		return "never"
	case LocalIfUnmapped:
		return "if_unmapped"
	case LocalAlways:
		return "always"
	default:
		return "unknown"
	}
}

// Params is the evaluated (read-length-instantiated) parameter block
// consulted throughout the search. Go: field names below; GEM3: the
// corresponding C flag/struct-field name, for readers cross-referencing the
// original implementation.
//
// MinIdentity, AlignmentGlobalMinIdentity, AlignmentLocalMinIdentity,
// DecFactor, GPUEnabled, GPUBuffersPerStage and GPUBufferCapacity are not
// read by any package in this module: pipeline.NewStage takes its ring size
// as an argument and every buffer holds a fixed 64 searches.
type Params struct {
	// MaxError caps the edit distance considered during search.
	// Go: -max-error, GEM3: search_parameters_t.max_error
	MaxError int

	// CompleteStrataAfterBest (delta) bounds exploration to at most
	// best-distance + delta once a best distance is known.
	// Go: -complete-strata-after-best, GEM3: complete_strata_after_best_nominal
	CompleteStrataAfterBest int

	// MappingMode selects the escalation policy.
	// Go: -mapping-mode, GEM3: mapping_mode
	MappingMode MappingMode

	// LocalAlignment selects the local-alignment fallback policy.
	// Go: -local-alignment, GEM3: local_alignment
	LocalAlignment LocalAlignment

	// MinIdentity is the minimum fraction of matching bases required for a
	// match to be reportable at all.
	MinIdentity float64
	// AlignmentGlobalMinIdentity is the minimum identity required to accept
	// a filtering-produced (global) alignment.
	AlignmentGlobalMinIdentity float64
	// AlignmentLocalMinIdentity is the minimum identity required to accept
	// a local-alignment result.
	AlignmentLocalMinIdentity float64

	// MaxMatches aborts the search (declaring max_complete_stratum=0) once
	// the accepted match count exceeds this bound.
	// Go: -max-matches, GEM3: max_matches
	MaxMatches int
	// MaxReported caps the number of matches ultimately reported.
	MaxReported int
	// MinReported is the minimum number of matches to try to report, even
	// if it requires decoding an extra stratum.
	MinReported int
	// MinStrata is the minimum number of non-empty strata to decode beyond
	// the first one, regardless of match counts.
	MinStrata int

	// RegionMinLength is the SA-interval size threshold: the adaptive
	// profiler closes a region once its interval holds fewer hits than this
	// ("region_th" in GEM3).
	RegionMinLength int
	// MaxSteps bounds the number of backward FM-index steps taken while
	// growing one region ("max_steps" in GEM3).
	MaxSteps int
	// DecFactor scales how aggressively region_th shrinks between regions
	// ("dec_factor" in GEM3).
	DecFactor float64

	// MinPatternLength rejects patterns shorter than this during
	// preparation (PatternTooShort).
	MinPatternLength int

	// GPUEnabled routes searches through the staged pipeline instead of
	// running Approximate Search inline.
	GPUEnabled bool
	// GPUBuffersPerStage is the ring size (B >= 2) of each pipeline stage.
	GPUBuffersPerStage int
	// GPUBufferCapacity bounds how many Archive Searches fit in one buffer.
	GPUBufferCapacity int

	// ColorSpace toggles color-space semantics: reverse-complement
	// generation becomes a plain reversal (colors already encode relative
	// transitions). CIGAR reversal of reverse-strand matches is the same
	// run-order reversal as in base space; no color complement is applied.
	ColorSpace bool
}

// DefaultParams mirrors GEM-Mapper's default mapping_mode=fast profile.
var DefaultParams = Params{
	MaxError:                   4,
	CompleteStrataAfterBest:    1,
	MappingMode:                Fast,
	LocalAlignment:             LocalIfUnmapped,
	MinIdentity:                0.8,
	AlignmentGlobalMinIdentity: 0.8,
	AlignmentLocalMinIdentity:  0.6,
	MaxMatches:                 10000,
	MaxReported:                5,
	MinReported:                1,
	MinStrata:                  1,
	RegionMinLength:            4,
	MaxSteps:                   2,
	DecFactor:                  2.0,
	MinPatternLength:           4,
	GPUEnabled:                 false,
	GPUBuffersPerStage:         2,
	GPUBufferCapacity:          512,
	ColorSpace:                 false,
}
